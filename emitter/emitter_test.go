package emitter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"github.com/waddlelang/waddle/ast"
	"github.com/waddlelang/waddle/bytecode"
	"github.com/waddlelang/waddle/checker"
	"github.com/waddlelang/waddle/diagnostics"
	"github.com/waddlelang/waddle/lexer"
	"github.com/waddlelang/waddle/parser"
	"github.com/waddlelang/waddle/symbols"
	"github.com/waddlelang/waddle/vm"
)

func prepare(t *testing.T, input string) (*ast.Program, symbols.Table) {
	t.Helper()
	tokens, err := lexer.Lex(input)
	be.Err(t, err, nil)
	program, err := parser.Parse(tokens)
	be.Err(t, err, nil)
	table, err := symbols.Collect(program)
	be.Err(t, err, nil)
	return program, table
}

func compile(t *testing.T, input string) *bytecode.Program {
	t.Helper()
	program, table := prepare(t, input)
	be.Err(t, checker.Check(program, table), nil)
	p, err := Emit(program, table)
	be.Err(t, err, nil)
	return p
}

func execute(t *testing.T, p *bytecode.Program) (*vm.Stack, string) {
	t.Helper()
	var out bytes.Buffer
	in := &vm.Interpreter{Out: &out, MaxSteps: 10000}
	stack := vm.NewStack(0)
	be.Err(t, in.Execute(p, stack), nil)
	return stack, out.String()
}

func push(v int32) bytecode.Instruction {
	return bytecode.OpArg(bytecode.PushI32, v)
}

func TestMinimalReturn(t *testing.T) {
	p := compile(t, "function main() -> int { return 1 + 2; }")
	be.Equal(t, p.Code, []bytecode.Instruction{
		push(1),
		push(2),
		bytecode.Op(bytecode.AddI32),
	})

	stack, _ := execute(t, p)
	top, err := stack.Peek()
	be.Err(t, err, nil)
	be.Equal(t, top, vm.Integer(3))
}

func TestEmptyMain(t *testing.T) {
	p := compile(t, "function main() { }")
	be.Equal(t, len(p.Code), 0)
	be.Equal(t, p.Functions, []bytecode.Function{{Name: "main"}})
}

func TestLocals(t *testing.T) {
	p := compile(t, `
function main() -> int {
	var a: int = 5;
	a = a - 2;
	return a;
}`)
	be.Equal(t, p.Code, []bytecode.Instruction{
		push(0),
		push(5),
		bytecode.OpArg(bytecode.StoreLocalI32, 0),
		bytecode.OpArg(bytecode.LoadLocalI32, 0),
		push(2),
		bytecode.Op(bytecode.SubI32),
		bytecode.OpArg(bytecode.StoreLocalI32, 0),
		bytecode.OpArg(bytecode.LoadLocalI32, 0),
	})
	be.Equal(t, p.Functions[0].Locals, 1)
}

func TestIfBranchIsPatched(t *testing.T) {
	p := compile(t, `
function main() -> int {
	var x: int = 0;
	if 1 < 2 {
		x = 7;
	}
	return x;
}`)
	be.Equal(t, p.Code, []bytecode.Instruction{
		push(0),
		push(0),
		bytecode.OpArg(bytecode.StoreLocalI32, 0),
		push(1),
		push(2),
		bytecode.Op(bytecode.LtI32),
		bytecode.OpArg(bytecode.BranchZero, 9),
		push(7),
		bytecode.OpArg(bytecode.StoreLocalI32, 0),
		bytecode.OpArg(bytecode.LoadLocalI32, 0),
	})
}

func TestCallsAreEmitted(t *testing.T) {
	p := compile(t, `
function unused() { }
function twice(n: int) -> int { return n + n; }
function main() -> int { return ->twice(21); }`)

	be.Equal(t, p.Code, []bytecode.Instruction{
		push(21),
		bytecode.OpArg(bytecode.Call, 1),
		bytecode.OpArg(bytecode.Ret, 1),
		bytecode.OpArg(bytecode.LoadLocalI32, 0),
		bytecode.OpArg(bytecode.LoadLocalI32, 0),
		bytecode.Op(bytecode.AddI32),
		bytecode.OpArg(bytecode.Ret, 1),
	})
	be.Equal(t, p.Functions, []bytecode.Function{
		{Name: "main", Entry: 0, Returns: true},
		{Name: "twice", Entry: 3, Params: 1, Returns: true},
	})

	stack, _ := execute(t, p)
	be.Equal(t, stack.Values(), []vm.RuntimeValue{vm.Integer(42)})
}

func TestCallStatementDiscardsResult(t *testing.T) {
	p := compile(t, `
function one() -> int { return 1; }
function main() { ->one(); }`)
	be.Equal(t, p.Code, []bytecode.Instruction{
		bytecode.OpArg(bytecode.Call, 1),
		bytecode.Op(bytecode.Pop),
		bytecode.OpArg(bytecode.Ret, 0),
		push(1),
		bytecode.OpArg(bytecode.Ret, 1),
	})

	stack, _ := execute(t, p)
	be.Equal(t, stack.Count(), 0)
}

func TestPrintInternsStrings(t *testing.T) {
	p := compile(t, `function main() { print("a", 1, "a"); }`)
	be.Equal(t, p.Strings, []string{"a"})
	be.Equal(t, p.Code, []bytecode.Instruction{
		bytecode.OpArg(bytecode.PushStr, 0),
		push(1),
		bytecode.OpArg(bytecode.PushStr, 0),
		bytecode.OpArg(bytecode.Print, 3),
	})

	_, out := execute(t, p)
	be.Equal(t, out, "a 1 a\n")
}

func TestExecution(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"logical operators",
			`function main() { print(true && false, true || false, false || false, true && true); }`,
			"0 1 0 1\n",
		},
		{
			"short circuit",
			`
function side() -> bool {
	print("side");
	return true;
}
function main() {
	if false && ->side() {
		print("no");
	}
	if true || ->side() {
		print("yes");
	}
	if true && ->side() {
		print("both");
	}
}`,
			"yes\nside\nboth\n",
		},
		{
			"early return from main",
			`
function main() {
	if 1 == 1 {
		print("early");
		return 0;
	}
	print("late");
}`,
			"early\n",
		},
		{
			"recursion",
			`
function fact(n: int) -> int {
	if n <= 1 {
		return 1;
	}
	return n * ->fact(n - 1);
}
function main() {
	print(->fact(5));
}`,
			"120\n",
		},
		{
			"parameters and locals",
			`
function mix(a: int, b: int) -> int {
	var c: int = a * 10;
	var d: int = c + b;
	return d / 2;
}
function main() {
	var r: int = ->mix(4, 6);
	print(r, r != 23, r >= 23, r > 23);
}`,
			"23 0 1 0\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out := execute(t, compile(t, tt.input))
			be.Equal(t, out, tt.want)
		})
	}
}

func TestNonIntegerTermIsRejected(t *testing.T) {
	// The checker is skipped on purpose.
	program, table := prepare(t, "function main() -> int { return 1 + true; }")
	_, err := Emit(program, table)

	var semantic *diagnostics.SemanticError
	be.True(t, errors.As(err, &semantic))
	be.Equal(t, semantic.Msg, "only int supported, found bool")
	be.Equal(t, semantic.Position, diagnostics.Position{Line: 1, Column: 37})
}

func TestMissingEntryPoint(t *testing.T) {
	program, table := prepare(t, "function main() { }")
	_, err := EmitEntry(program, table, "start")

	var semantic *diagnostics.SemanticError
	be.True(t, errors.As(err, &semantic))
	be.Equal(t, semantic.Msg, "Program has no entry Point.")
}
