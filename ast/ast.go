// Package ast declares the syntax tree of Waddle programs.
//
// Every node records the token that began its span. Nodes hold no parent
// pointers; ancestor queries are answered by the Context passed to a
// Listener during Walk.
package ast

import (
	"github.com/waddlelang/waddle/diagnostics"
	"github.com/waddlelang/waddle/token"
)

// Node is implemented by every syntax tree node.
type Node interface {
	Start() token.Token
	Pos() diagnostics.Position
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Syntax is embedded in every node and carries its start token.
type Syntax struct {
	StartToken token.Token
}

func (s Syntax) Start() token.Token { return s.StartToken }

func (s Syntax) Pos() diagnostics.Position {
	return diagnostics.Position{Line: s.StartToken.Line, Column: s.StartToken.Column}
}

// Program is the root of the tree.
type Program struct {
	Syntax
	Functions []*FunctionDecl
}

// FunctionDecl is `function name(params) [-> type] { ... }`.
type FunctionDecl struct {
	Syntax
	Name       string
	Parameters []*ParameterDecl
	ReturnType *Type // nil when the function returns nothing
	Body       *Block
}

// Type is a type name in a declaration.
type Type struct {
	Syntax
}

// Name returns the spelling of the type, e.g. "int".
func (t *Type) Name() string { return t.StartToken.Lexeme }

// ParameterDecl is `name: type`, used for parameters and `var` declarations.
type ParameterDecl struct {
	Syntax
	Name string
	Type *Type
}

type Block struct {
	Syntax
	Statements []Stmt
}

type ReturnStmt struct {
	Syntax
	Expr Expr
}

// IfStmt has no else branch.
type IfStmt struct {
	Syntax
	Cond Expr
	Body *Block
}

// AssignStmt is `ident = expr;`. The target is the statement's start token.
type AssignStmt struct {
	Syntax
	Expr Expr
}

// Identifier returns the assigned variable's name.
func (s *AssignStmt) Identifier() string { return s.StartToken.Lexeme }

type PrintStmt struct {
	Syntax
	Args []Expr
}

// DeclStmt is `var name: type = expr;`.
type DeclStmt struct {
	Syntax
	Param *ParameterDecl
	Expr  Expr
}

// InvocationStmt is a call evaluated for its side effects.
type InvocationStmt struct {
	Syntax
	Call *Invocation
}

func (*ReturnStmt) stmtNode()     {}
func (*IfStmt) stmtNode()         {}
func (*AssignStmt) stmtNode()     {}
func (*PrintStmt) stmtNode()      {}
func (*DeclStmt) stmtNode()       {}
func (*InvocationStmt) stmtNode() {}

type LogicalOp int

const (
	And LogicalOp = iota
	Or
)

func (op LogicalOp) String() string {
	if op == And {
		return "&&"
	}
	return "||"
}

type RelationalOp int

const (
	Eq RelationalOp = iota
	Ne
	Gt
	Ge
	Lt
	Le
)

func (op RelationalOp) String() string {
	return [...]string{"==", "!=", ">", ">=", "<", "<="}[op]
}

type TermOp int

const (
	Plus TermOp = iota
	Minus
)

func (op TermOp) String() string {
	if op == Plus {
		return "+"
	}
	return "-"
}

type ProductOp int

const (
	Times ProductOp = iota
	Divide
)

func (op ProductOp) String() string {
	if op == Times {
		return "*"
	}
	return "/"
}

// LogicalExpr is `left && right` or `left || right`.
type LogicalExpr struct {
	Syntax
	Left, Right Expr
	Op          LogicalOp
}

// RelationalExpr is a single comparison; comparisons do not chain.
type RelationalExpr struct {
	Syntax
	Left, Right Expr
	Op          RelationalOp
}

type TermExpr struct {
	Syntax
	Left, Right Expr
	Op          TermOp
}

type ProductExpr struct {
	Syntax
	Left, Right Expr
	Op          ProductOp
}

// Invocation is `->name(args)`.
type Invocation struct {
	Syntax
	Name string
	Args []Expr
}

type IntegerLiteral struct {
	Syntax
	Value int32
}

type BoolLiteral struct {
	Syntax
	Value bool
}

type StringLiteral struct {
	Syntax
	Value string
}

type Identifier struct {
	Syntax
	Name string
}

func (*LogicalExpr) exprNode()    {}
func (*RelationalExpr) exprNode() {}
func (*TermExpr) exprNode()       {}
func (*ProductExpr) exprNode()    {}
func (*Invocation) exprNode()     {}
func (*IntegerLiteral) exprNode() {}
func (*BoolLiteral) exprNode()    {}
func (*StringLiteral) exprNode()  {}
func (*Identifier) exprNode()     {}

// Children returns the direct children of n in source order.
func Children(n Node) []Node {
	var children []Node
	switch n := n.(type) {
	case *Program:
		for _, f := range n.Functions {
			children = append(children, f)
		}
	case *FunctionDecl:
		for _, p := range n.Parameters {
			children = append(children, p)
		}
		if n.ReturnType != nil {
			children = append(children, n.ReturnType)
		}
		children = append(children, n.Body)
	case *ParameterDecl:
		children = append(children, n.Type)
	case *Block:
		for _, s := range n.Statements {
			children = append(children, s)
		}
	case *ReturnStmt:
		children = append(children, n.Expr)
	case *IfStmt:
		children = append(children, n.Cond, n.Body)
	case *AssignStmt:
		children = append(children, n.Expr)
	case *PrintStmt:
		for _, a := range n.Args {
			children = append(children, a)
		}
	case *DeclStmt:
		children = append(children, n.Param, n.Expr)
	case *InvocationStmt:
		children = append(children, n.Call)
	case *LogicalExpr:
		children = append(children, n.Left, n.Right)
	case *RelationalExpr:
		children = append(children, n.Left, n.Right)
	case *TermExpr:
		children = append(children, n.Left, n.Right)
	case *ProductExpr:
		children = append(children, n.Left, n.Right)
	case *Invocation:
		for _, a := range n.Args {
			children = append(children, a)
		}
	}
	return children
}

// FindFunction returns the function called name, or nil.
func (p *Program) FindFunction(name string) *FunctionDecl {
	for _, f := range p.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}
