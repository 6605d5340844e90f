// Package checker implements the semantic analysis of Waddle programs.
//
// The checker is a Listener over the ast traversal engine. Expression
// types are computed bottom-up in Leave callbacks; statements are checked
// once their children have been typed. The first violation aborts the walk.
package checker

import (
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/waddlelang/waddle/ast"
	"github.com/waddlelang/waddle/diagnostics"
	"github.com/waddlelang/waddle/symbols"
)

func tracer() tracing.Trace {
	return gtrace.SyntaxTracer
}

// Check type checks program against table using the default entry point.
func Check(program *ast.Program, table symbols.Table) error {
	return CheckEntry(program, table, symbols.EntryPointName)
}

// CheckEntry type checks program with entry as the entry point name.
// Neither program nor table is modified, so repeated checks of the same
// pair give the same result.
func CheckEntry(program *ast.Program, table symbols.Table, entry string) error {
	c := &checker{
		table: table,
		entry: entry,
		types: map[ast.Expr]symbols.TypeSymbol{},
	}
	if err := ast.Walk(c, program); err != nil {
		tracer().Infof("check failed: %v", err)
		return err
	}
	tracer().Debugf("checked %d functions, %d expressions typed", len(program.Functions), len(c.types))
	return nil
}

type checker struct {
	table symbols.Table
	entry string
	types map[ast.Expr]symbols.TypeSymbol
	fn    *symbols.FunctionDecl
}

func (c *checker) Enter(n ast.Node, ctx *ast.Context) bool {
	switch n := n.(type) {
	case *ast.Program:
		if err := c.checkEntryPoint(); err != nil {
			ctx.Abort(err)
			return false
		}
	case *ast.FunctionDecl:
		c.fn = c.table[n.Name]
	case *ast.ParameterDecl, *ast.Type:
		return false
	case *ast.DeclStmt:
		if !isFunctionBody(ctx.Parent(), ctx) {
			ctx.Abort(diagnostics.Semanticf(n.Pos(), "variable '%s' must be declared at function level", n.Param.Name))
			return false
		}
	case ast.Stmt:
		if ctx.EnclosingFunction() == nil {
			ctx.Abort(diagnostics.Semanticf(n.Pos(), "can not use statement outside of function."))
			return false
		}
	}
	return true
}

// isFunctionBody reports whether block is the body of a function, given
// the context of one of its children.
func isFunctionBody(block ast.Node, ctx *ast.Context) bool {
	if _, ok := block.(*ast.Block); !ok {
		return false
	}
	ancestors := ctx.Ancestors()
	if len(ancestors) < 2 {
		return false
	}
	_, ok := ancestors[1].(*ast.FunctionDecl)
	return ok
}

func (c *checker) checkEntryPoint() error {
	main, ok := c.table[c.entry]
	if !ok {
		return diagnostics.Semanticf(diagnostics.Position{}, "Program has no entry Point.")
	}
	pos := main.Node.Pos()
	if t := main.ReturnType(); t != symbols.Void && t != symbols.Integer {
		return diagnostics.Semanticf(pos, "Main must return either void or int")
	}
	if len(main.Parameters) != 0 {
		return diagnostics.Semanticf(pos, "Main signature mismatch")
	}
	return nil
}

func (c *checker) Leave(n ast.Node, ctx *ast.Context) {
	var err error
	switch n := n.(type) {
	case ast.Expr:
		var t symbols.TypeSymbol
		t, err = c.typeOf(n)
		if err == nil {
			c.types[n] = t
		}
	case *ast.Block:
		err = c.checkCompleteness(n, ctx)
	case *ast.PrintStmt:
		for _, arg := range n.Args {
			if c.types[arg] == symbols.Void {
				err = diagnostics.Semanticf(arg.Pos(), "Can not print void-value.")
				break
			}
		}
	case *ast.IfStmt:
		if c.types[n.Cond] != symbols.Bool {
			err = diagnostics.Semanticf(n.Cond.Pos(), "If-Statement expression must result in boolean value.")
		}
	case *ast.ReturnStmt:
		// The result of a function without a return type is not checked.
		if t := c.fn.ReturnType(); t != symbols.Void && !t.IsAssignableFrom(c.types[n.Expr]) {
			err = diagnostics.Semanticf(n.Expr.Pos(), "Function result is of type %s, the type %s can not be assigned as result.", t, c.types[n.Expr])
		}
	case *ast.AssignStmt:
		v, ok := c.fn.Lookup(n.Identifier())
		if !ok {
			err = diagnostics.Semanticf(n.Pos(), "unknown identifier %s", n.Identifier())
		} else if !v.Type.IsAssignableFrom(c.types[n.Expr]) {
			err = diagnostics.Semanticf(n.Expr.Pos(), "type %s is not assignable from %s", v.Type, c.types[n.Expr])
		}
	case *ast.DeclStmt:
		v, ok := c.fn.Lookup(n.Param.Name)
		if !ok {
			err = diagnostics.Semanticf(n.Pos(), "unknown identifier %s", n.Param.Name)
		} else if !v.Type.IsAssignableFrom(c.types[n.Expr]) {
			err = diagnostics.Semanticf(n.Expr.Pos(), "type %s is not assignable from %s", v.Type, c.types[n.Expr])
		}
	}
	if err != nil {
		ctx.Abort(err)
	}
}

// checkCompleteness requires the body of a typed function to end in return.
func (c *checker) checkCompleteness(block *ast.Block, ctx *ast.Context) error {
	fn, ok := ctx.Parent().(*ast.FunctionDecl)
	if !ok || fn.ReturnType == nil {
		return nil
	}
	if len(block.Statements) > 0 {
		if _, ok := block.Statements[len(block.Statements)-1].(*ast.ReturnStmt); ok {
			return nil
		}
	}
	return diagnostics.Semanticf(fn.Pos(), "missing return statement in function %s", fn.Name)
}

// typeOf computes the type of n from the already computed types of its
// operands.
func (c *checker) typeOf(n ast.Expr) (symbols.TypeSymbol, error) {
	switch n := n.(type) {
	case *ast.IntegerLiteral:
		return symbols.Integer, nil
	case *ast.BoolLiteral:
		return symbols.Bool, nil
	case *ast.StringLiteral:
		return symbols.String, nil
	case *ast.Identifier:
		v, ok := c.fn.Lookup(n.Name)
		if !ok {
			return symbols.Void, diagnostics.Semanticf(n.Pos(), "unknown identifier %s", n.Name)
		}
		return v.Type, nil
	case *ast.TermExpr:
		return c.binary(n.Op.String(), n.Left, n.Right, symbols.Integer, symbols.Integer)
	case *ast.ProductExpr:
		return c.binary(n.Op.String(), n.Left, n.Right, symbols.Integer, symbols.Integer)
	case *ast.RelationalExpr:
		return c.binary(n.Op.String(), n.Left, n.Right, symbols.Integer, symbols.Bool)
	case *ast.LogicalExpr:
		return c.binary(n.Op.String(), n.Left, n.Right, symbols.Bool, symbols.Bool)
	case *ast.Invocation:
		return c.invocation(n)
	}
	return symbols.Void, diagnostics.Semanticf(n.Pos(), "unsupported expression")
}

func (c *checker) binary(op string, left, right ast.Expr, operand, result symbols.TypeSymbol) (symbols.TypeSymbol, error) {
	for _, e := range []ast.Expr{left, right} {
		if t := c.types[e]; t != operand {
			return symbols.Void, diagnostics.Semanticf(e.Pos(), "operator %s requires %s operands, found %s", op, operand, t)
		}
	}
	return result, nil
}

func (c *checker) invocation(n *ast.Invocation) (symbols.TypeSymbol, error) {
	callee, ok := c.table[n.Name]
	if !ok {
		return symbols.Void, diagnostics.Semanticf(n.Pos(), "function %s is not defined", n.Name)
	}
	if len(callee.Parameters) != len(n.Args) {
		return symbols.Void, diagnostics.Semanticf(n.Pos(), "function %s has %d parameters, %d arguments were given.",
			n.Name, len(callee.Parameters), len(n.Args))
	}
	for i, param := range callee.Parameters {
		if t := c.types[n.Args[i]]; !param.Type.IsAssignableFrom(t) {
			return symbols.Void, diagnostics.Semanticf(n.Args[i].Pos(), "Parameter %s requires type %s, but type %s was given.",
				param.Name, param.Type, t)
		}
	}
	return callee.ReturnType(), nil
}
