// Package emitter translates checked syntax trees into bytecode.
//
// The entry function is emitted first, so execution starts at
// instruction 0, followed by every function reachable from it through
// calls. Local slots are reserved by pushing zeros on function entry.
package emitter

import (
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/waddlelang/waddle/ast"
	"github.com/waddlelang/waddle/bytecode"
	"github.com/waddlelang/waddle/diagnostics"
	"github.com/waddlelang/waddle/symbols"
)

func tracer() tracing.Trace {
	return gtrace.CoreTracer
}

// Emit compiles program starting from the default entry point.
func Emit(program *ast.Program, table symbols.Table) (*bytecode.Program, error) {
	return EmitEntry(program, table, symbols.EntryPointName)
}

// EmitEntry compiles program starting from the function named entry.
func EmitEntry(program *ast.Program, table symbols.Table, entry string) (*bytecode.Program, error) {
	main, ok := table[entry]
	if !ok {
		return nil, diagnostics.Semanticf(program.Pos(), "Program has no entry Point.")
	}

	e := &emitter{
		table:       table,
		out:         &bytecode.Program{},
		stringIndex: map[string]int32{},
		funcIndex:   map[string]int32{},
	}
	if err := e.collectReachable(main); err != nil {
		return nil, err
	}
	for i, fn := range e.order {
		if err := e.emitFunction(fn, i == 0); err != nil {
			return nil, err
		}
	}
	tracer().Debugf("emitted %d instructions for %d functions", len(e.out.Code), len(e.order))
	return e.out, nil
}

type emitter struct {
	table       symbols.Table
	out         *bytecode.Program
	stringIndex map[string]int32
	funcIndex   map[string]int32
	order       []*symbols.FunctionDecl

	fn      *symbols.FunctionDecl
	types   typeExtractor
	isEntry bool
}

// collectReachable orders main and the functions it calls, directly or
// indirectly, by first discovery.
func (e *emitter) collectReachable(main *symbols.FunctionDecl) error {
	var err error
	e.addFunction(main)
	for i := 0; i < len(e.order) && err == nil; i++ {
		ast.Inspect(e.order[i].Node.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.Invocation)
			if !ok || err != nil {
				return err == nil
			}
			callee, found := e.table[call.Name]
			if !found {
				err = diagnostics.Semanticf(call.Pos(), "function %s is not defined", call.Name)
				return false
			}
			if _, seen := e.funcIndex[callee.Name]; !seen {
				e.addFunction(callee)
			}
			return true
		})
	}
	return err
}

func (e *emitter) addFunction(fn *symbols.FunctionDecl) {
	e.funcIndex[fn.Name] = int32(len(e.order))
	e.order = append(e.order, fn)
	e.out.Functions = append(e.out.Functions, bytecode.Function{
		Name:    fn.Name,
		Params:  len(fn.Parameters),
		Locals:  fn.LocalCount(),
		Returns: fn.ReturnType() != symbols.Void,
	})
}

func (e *emitter) emit(ins bytecode.Instruction) int {
	e.out.Code = append(e.out.Code, ins)
	return len(e.out.Code) - 1
}

// patch points the jump at index at to the next instruction to be emitted.
func (e *emitter) patch(at int) {
	e.out.Code[at].Arg = int32(len(e.out.Code))
}

func (e *emitter) emitFunction(fn *symbols.FunctionDecl, isEntry bool) error {
	e.fn = fn
	e.isEntry = isEntry
	e.types = typeExtractor{table: e.table, fn: fn}
	e.out.Functions[e.funcIndex[fn.Name]].Entry = len(e.out.Code)

	for i := 0; i < fn.LocalCount(); i++ {
		e.emit(bytecode.OpArg(bytecode.PushI32, 0))
	}

	stmts := fn.Node.Body.Statements
	for i, stmt := range stmts {
		last := i == len(stmts)-1
		if err := e.emitStatement(stmt, last); err != nil {
			return err
		}
	}

	endsInReturn := false
	if len(stmts) > 0 {
		_, endsInReturn = stmts[len(stmts)-1].(*ast.ReturnStmt)
	}
	if !endsInReturn && (!isEntry || len(e.order) > 1) {
		e.emit(bytecode.OpArg(bytecode.Ret, 0))
	}
	return nil
}

// emitStatement emits stmt. topLevelLast is set for the final statement
// of a function body.
func (e *emitter) emitStatement(stmt ast.Stmt, topLevelLast bool) error {
	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		if err := e.emitExpression(s.Expr); err != nil {
			return err
		}
		// Execution falls off the end of a lone entry function.
		if e.isEntry && topLevelLast && len(e.order) == 1 {
			return nil
		}
		var arg int32
		if e.fn.ReturnType() != symbols.Void {
			arg = 1
		}
		e.emit(bytecode.OpArg(bytecode.Ret, arg))

	case *ast.IfStmt:
		if err := e.emitExpression(s.Cond); err != nil {
			return err
		}
		jump := e.emit(bytecode.OpArg(bytecode.BranchZero, 0))
		for _, inner := range s.Body.Statements {
			if err := e.emitStatement(inner, false); err != nil {
				return err
			}
		}
		e.patch(jump)

	case *ast.AssignStmt:
		return e.emitStore(s.Identifier(), s.Expr, s)

	case *ast.DeclStmt:
		return e.emitStore(s.Param.Name, s.Expr, s)

	case *ast.PrintStmt:
		for _, arg := range s.Args {
			if err := e.emitExpression(arg); err != nil {
				return err
			}
		}
		e.emit(bytecode.OpArg(bytecode.Print, int32(len(s.Args))))

	case *ast.InvocationStmt:
		if err := e.emitExpression(s.Call); err != nil {
			return err
		}
		if e.table[s.Call.Name].ReturnType() != symbols.Void {
			e.emit(bytecode.Op(bytecode.Pop))
		}

	default:
		return diagnostics.Semanticf(stmt.Pos(), "unsupported statement")
	}
	return nil
}

func (e *emitter) emitStore(name string, value ast.Expr, at ast.Node) error {
	v, ok := e.fn.Lookup(name)
	if !ok {
		return diagnostics.Semanticf(at.Pos(), "unknown identifier %s", name)
	}
	if err := e.emitExpression(value); err != nil {
		return err
	}
	e.emit(bytecode.OpArg(bytecode.StoreLocalI32, int32(v.Slot)))
	return nil
}

func (e *emitter) emitExpression(expr ast.Expr) error {
	switch x := expr.(type) {
	case *ast.IntegerLiteral:
		e.emit(bytecode.OpArg(bytecode.PushI32, x.Value))

	case *ast.BoolLiteral:
		var v int32
		if x.Value {
			v = 1
		}
		e.emit(bytecode.OpArg(bytecode.PushI32, v))

	case *ast.StringLiteral:
		e.emit(bytecode.OpArg(bytecode.PushStr, e.intern(x.Value)))

	case *ast.Identifier:
		v, ok := e.fn.Lookup(x.Name)
		if !ok {
			return diagnostics.Semanticf(x.Pos(), "unknown identifier %s", x.Name)
		}
		e.emit(bytecode.OpArg(bytecode.LoadLocalI32, int32(v.Slot)))

	case *ast.TermExpr:
		op := bytecode.AddI32
		if x.Op == ast.Minus {
			op = bytecode.SubI32
		}
		return e.emitBinary(x, x.Left, x.Right, op)

	case *ast.ProductExpr:
		op := bytecode.MulI32
		if x.Op == ast.Divide {
			op = bytecode.DivI32
		}
		return e.emitBinary(x, x.Left, x.Right, op)

	case *ast.RelationalExpr:
		return e.emitBinary(x, x.Left, x.Right, relationalOps[x.Op])

	case *ast.LogicalExpr:
		return e.emitLogical(x)

	case *ast.Invocation:
		for _, arg := range x.Args {
			if err := e.emitExpression(arg); err != nil {
				return err
			}
		}
		index, ok := e.funcIndex[x.Name]
		if !ok {
			return diagnostics.Semanticf(x.Pos(), "function %s is not defined", x.Name)
		}
		e.emit(bytecode.OpArg(bytecode.Call, index))

	default:
		return diagnostics.Semanticf(expr.Pos(), "unsupported expression")
	}
	return nil
}

var relationalOps = map[ast.RelationalOp]bytecode.OpCode{
	ast.Eq: bytecode.EqI32,
	ast.Ne: bytecode.NeI32,
	ast.Gt: bytecode.GtI32,
	ast.Ge: bytecode.GeI32,
	ast.Lt: bytecode.LtI32,
	ast.Le: bytecode.LeI32,
}

// emitBinary emits an integer operation after verifying its operand types.
func (e *emitter) emitBinary(expr, left, right ast.Expr, op bytecode.OpCode) error {
	if _, err := e.types.typeOf(expr); err != nil {
		return err
	}
	if err := e.emitExpression(left); err != nil {
		return err
	}
	if err := e.emitExpression(right); err != nil {
		return err
	}
	e.emit(bytecode.Op(op))
	return nil
}

// emitLogical emits && and || with short-circuit evaluation:
//
//	a && b:  a; BranchZero F; b; Branch E; F: PushI32 0; E:
//	a || b:  a; BranchZero R; PushI32 1; Branch E; R: b; E:
func (e *emitter) emitLogical(x *ast.LogicalExpr) error {
	if _, err := e.types.typeOf(x); err != nil {
		return err
	}
	if err := e.emitExpression(x.Left); err != nil {
		return err
	}
	toSecond := e.emit(bytecode.OpArg(bytecode.BranchZero, 0))

	if x.Op == ast.And {
		if err := e.emitExpression(x.Right); err != nil {
			return err
		}
		toEnd := e.emit(bytecode.OpArg(bytecode.Branch, 0))
		e.patch(toSecond)
		e.emit(bytecode.OpArg(bytecode.PushI32, 0))
		e.patch(toEnd)
		return nil
	}

	e.emit(bytecode.OpArg(bytecode.PushI32, 1))
	toEnd := e.emit(bytecode.OpArg(bytecode.Branch, 0))
	e.patch(toSecond)
	if err := e.emitExpression(x.Right); err != nil {
		return err
	}
	e.patch(toEnd)
	return nil
}

func (e *emitter) intern(s string) int32 {
	if i, ok := e.stringIndex[s]; ok {
		return i
	}
	i := int32(len(e.out.Strings))
	e.out.Strings = append(e.out.Strings, s)
	e.stringIndex[s] = i
	return i
}
