// Package symbols builds the per-program symbol table: function
// signatures and the typed variables of every function.
package symbols

import (
	"fmt"
	"sort"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/waddlelang/waddle/ast"
	"github.com/waddlelang/waddle/diagnostics"
	"github.com/waddlelang/waddle/token"
)

func tracer() tracing.Trace {
	return gtrace.SyntaxTracer
}

// EntryPointName is the default name of the function a program starts in.
const EntryPointName = "main"

// TypeSymbol is one of a closed set of types. Values are compared with ==.
type TypeSymbol int

const (
	Void TypeSymbol = iota
	Integer
	String
	Bool
)

func (t TypeSymbol) String() string {
	switch t {
	case Integer:
		return "int"
	case String:
		return "string"
	case Bool:
		return "bool"
	default:
		return "void"
	}
}

// IsAssignableFrom reports whether a value of type other may be stored in
// a location of type t. Only identical types are assignable.
func (t TypeSymbol) IsAssignableFrom(other TypeSymbol) bool {
	return t == other
}

// TypeOf resolves a type name from a declaration.
func TypeOf(typ *ast.Type) (TypeSymbol, error) {
	switch typ.StartToken.Kind {
	case token.Int:
		return Integer, nil
	case token.String:
		return String, nil
	case token.Bool:
		return Bool, nil
	}
	return Void, diagnostics.Semanticf(typ.Pos(), "unsupported type %s", typ.Name())
}

// Symbol is a named, typed entity.
type Symbol struct {
	Name string
	Type TypeSymbol
}

// VariableDecl is a parameter or a local variable. Slot is its index in
// the function's flat local storage: parameters first, then locals in
// declaration order.
type VariableDecl struct {
	Symbol
	Slot      int
	Parameter bool
}

// FunctionDecl is a function signature plus its variables. Symbol.Type is
// the return type, Void when the function declares none.
type FunctionDecl struct {
	Symbol
	Parameters []*VariableDecl
	Variables  map[string]*VariableDecl
	Node       *ast.FunctionDecl
}

// ReturnType returns the declared return type, or Void.
func (f *FunctionDecl) ReturnType() TypeSymbol {
	return f.Type
}

// Lookup returns the variable called name.
func (f *FunctionDecl) Lookup(name string) (*VariableDecl, bool) {
	v, ok := f.Variables[name]
	return v, ok
}

// SlotCount returns the number of local storage slots the function needs.
func (f *FunctionDecl) SlotCount() int {
	return len(f.Variables)
}

// LocalCount returns the number of slots that are not parameters.
func (f *FunctionDecl) LocalCount() int {
	return len(f.Variables) - len(f.Parameters)
}

// Table maps function names to their declarations. It is built once by
// Collect and must not be modified afterwards.
type Table map[string]*FunctionDecl

// Names returns the function names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Collect builds the symbol table of program. Each function's variables
// are its parameters and the `var` declarations directly in its body;
// declarations in nested blocks are not collected.
func Collect(program *ast.Program) (Table, error) {
	c := &collector{table: Table{}}
	if err := ast.Walk(c, program); err != nil {
		return nil, err
	}
	tracer().Debugf("collected %d functions", len(c.table))
	return c.table, nil
}

type collector struct {
	ast.BaseListener
	table   Table
	current *FunctionDecl
}

func (c *collector) Enter(n ast.Node, ctx *ast.Context) bool {
	switch n := n.(type) {
	case *ast.Program:
		return true

	case *ast.FunctionDecl:
		if _, exists := c.table[n.Name]; exists {
			ctx.Abort(diagnostics.Semanticf(n.Pos(), "function '%s' already declared", n.Name))
			return false
		}
		fn := &FunctionDecl{
			Symbol:    Symbol{Name: n.Name, Type: Void},
			Variables: map[string]*VariableDecl{},
			Node:      n,
		}
		if n.ReturnType != nil {
			t, err := TypeOf(n.ReturnType)
			if err != nil {
				ctx.Abort(err)
				return false
			}
			fn.Type = t
		}
		c.table[n.Name] = fn
		c.current = fn
		return true

	case *ast.ParameterDecl:
		if _, ok := ctx.Parent().(*ast.FunctionDecl); ok {
			if v := c.declare(n, ctx); v != nil {
				v.Parameter = true
				c.current.Parameters = append(c.current.Parameters, v)
			}
		}
		return false

	case *ast.Block:
		// Only the function body; nested blocks are left to the checker.
		_, ok := ctx.Parent().(*ast.FunctionDecl)
		return ok

	case *ast.DeclStmt:
		c.declare(n.Param, ctx)
		return false
	}
	return false
}

func (c *collector) declare(param *ast.ParameterDecl, ctx *ast.Context) *VariableDecl {
	if _, exists := c.current.Variables[param.Name]; exists {
		ctx.Abort(diagnostics.Semanticf(param.Pos(), "variable '%s' already declared in function %s", param.Name, c.current.Name))
		return nil
	}
	t, err := TypeOf(param.Type)
	if err != nil {
		ctx.Abort(err)
		return nil
	}
	v := &VariableDecl{
		Symbol: Symbol{Name: param.Name, Type: t},
		Slot:   len(c.current.Variables),
	}
	c.current.Variables[param.Name] = v
	return v
}

func (f *FunctionDecl) String() string {
	return fmt.Sprintf("%s(%d params) -> %s", f.Name, len(f.Parameters), f.Type)
}
