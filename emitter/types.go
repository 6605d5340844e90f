package emitter

import (
	"github.com/waddlelang/waddle/ast"
	"github.com/waddlelang/waddle/diagnostics"
	"github.com/waddlelang/waddle/symbols"
)

// typeExtractor derives the static type of expressions without relying
// on the checker having run.
type typeExtractor struct {
	table symbols.Table
	fn    *symbols.FunctionDecl
}

func (x typeExtractor) typeOf(e ast.Expr) (symbols.TypeSymbol, error) {
	switch e := e.(type) {
	case *ast.IntegerLiteral:
		return symbols.Integer, nil
	case *ast.BoolLiteral:
		return symbols.Bool, nil
	case *ast.StringLiteral:
		return symbols.String, nil
	case *ast.Identifier:
		v, ok := x.fn.Lookup(e.Name)
		if !ok {
			return symbols.Void, diagnostics.Semanticf(e.Pos(), "unknown identifier %s", e.Name)
		}
		return v.Type, nil
	case *ast.TermExpr:
		return x.operands(e.Left, e.Right, symbols.Integer, symbols.Integer)
	case *ast.ProductExpr:
		return x.operands(e.Left, e.Right, symbols.Integer, symbols.Integer)
	case *ast.RelationalExpr:
		return x.operands(e.Left, e.Right, symbols.Integer, symbols.Bool)
	case *ast.LogicalExpr:
		return x.operands(e.Left, e.Right, symbols.Bool, symbols.Bool)
	case *ast.Invocation:
		callee, ok := x.table[e.Name]
		if !ok {
			return symbols.Void, diagnostics.Semanticf(e.Pos(), "function %s is not defined", e.Name)
		}
		return callee.ReturnType(), nil
	}
	return symbols.Void, diagnostics.Semanticf(e.Pos(), "unsupported expression")
}

func (x typeExtractor) operands(left, right ast.Expr, operand, result symbols.TypeSymbol) (symbols.TypeSymbol, error) {
	for _, e := range []ast.Expr{left, right} {
		t, err := x.typeOf(e)
		if err != nil {
			return symbols.Void, err
		}
		if t != operand {
			return symbols.Void, diagnostics.Semanticf(e.Pos(), "only %s supported, found %s", operand, t)
		}
	}
	return result, nil
}
