package ast

import (
	"strconv"
	"strings"
)

// ToSExpr converts a node to its s-expression representation.
func ToSExpr(node Node) string {
	switch n := node.(type) {
	case *Program:
		result := "(program"
		for _, f := range n.Functions {
			result += " " + ToSExpr(f)
		}
		return result + ")"
	case *FunctionDecl:
		result := "(func " + quote(n.Name) + " ["
		for i, p := range n.Parameters {
			if i > 0 {
				result += " "
			}
			result += ToSExpr(p)
		}
		result += "] "
		if n.ReturnType != nil {
			result += ToSExpr(n.ReturnType)
		} else {
			result += "void"
		}
		return result + " " + ToSExpr(n.Body) + ")"
	case *Type:
		return n.Name()
	case *ParameterDecl:
		return "(param " + quote(n.Name) + " " + ToSExpr(n.Type) + ")"
	case *Block:
		result := "(block"
		for _, s := range n.Statements {
			result += " " + ToSExpr(s)
		}
		return result + ")"
	case *ReturnStmt:
		return "(return " + ToSExpr(n.Expr) + ")"
	case *IfStmt:
		return "(if " + ToSExpr(n.Cond) + " " + ToSExpr(n.Body) + ")"
	case *AssignStmt:
		return "(assign " + quote(n.Identifier()) + " " + ToSExpr(n.Expr) + ")"
	case *PrintStmt:
		return "(print" + joinExprs(n.Args) + ")"
	case *DeclStmt:
		return "(var " + quote(n.Param.Name) + " " + ToSExpr(n.Param.Type) + " " + ToSExpr(n.Expr) + ")"
	case *InvocationStmt:
		return ToSExpr(n.Call)
	case *LogicalExpr:
		return binary(n.Op.String(), n.Left, n.Right)
	case *RelationalExpr:
		return binary(n.Op.String(), n.Left, n.Right)
	case *TermExpr:
		return binary(n.Op.String(), n.Left, n.Right)
	case *ProductExpr:
		return binary(n.Op.String(), n.Left, n.Right)
	case *Invocation:
		return "(call " + quote(n.Name) + joinExprs(n.Args) + ")"
	case *IntegerLiteral:
		return "(integer " + strconv.Itoa(int(n.Value)) + ")"
	case *BoolLiteral:
		return "(boolean " + strconv.FormatBool(n.Value) + ")"
	case *StringLiteral:
		return "(string " + quote(n.Value) + ")"
	case *Identifier:
		return "(ident " + quote(n.Name) + ")"
	default:
		return ""
	}
}

func binary(op string, left, right Expr) string {
	return "(binary " + quote(op) + " " + ToSExpr(left) + " " + ToSExpr(right) + ")"
}

func joinExprs(exprs []Expr) string {
	var result string
	for _, e := range exprs {
		result += " " + ToSExpr(e)
	}
	return result
}

func quote(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return "\"" + s + "\""
}
