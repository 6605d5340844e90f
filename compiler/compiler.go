// Package compiler drives the Waddle pipeline: lexing, parsing, symbol
// collection, checking, emission and execution.
package compiler

import (
	"io"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/pkg/errors"

	"github.com/waddlelang/waddle/ast"
	"github.com/waddlelang/waddle/bytecode"
	"github.com/waddlelang/waddle/checker"
	"github.com/waddlelang/waddle/emitter"
	"github.com/waddlelang/waddle/lexer"
	"github.com/waddlelang/waddle/parser"
	"github.com/waddlelang/waddle/symbols"
	"github.com/waddlelang/waddle/token"
	"github.com/waddlelang/waddle/vm"
)

func tracer() tracing.Trace {
	return gtrace.CoreTracer
}

// Options configures compilation and execution.
type Options struct {
	// EntryPoint names the function execution starts in. Defaults to "main".
	EntryPoint string
	// StackSize is the runtime stack capacity. Defaults to vm.DefaultStackSize.
	StackSize int
	// MaxSteps bounds execution; 0 means unlimited.
	MaxSteps int
	// Out receives output of print statements. Defaults to os.Stdout.
	Out io.Writer
}

func (o Options) entry() string {
	if o.EntryPoint == "" {
		return symbols.EntryPointName
	}
	return o.EntryPoint
}

// Unit holds every artifact produced while compiling one source text.
type Unit struct {
	Name     string
	Source   string
	Tokens   []token.Token
	AST      *ast.Program
	Symbols  symbols.Table
	Bytecode *bytecode.Program
}

// Compile runs source through every compile-time phase. The returned
// error wraps the phase's diagnostics error; use errors.Cause to get it.
func Compile(source string, opts Options) (*Unit, error) {
	unit := &Unit{Source: source}
	var err error

	if unit.Tokens, err = lexer.Lex(source); err != nil {
		return nil, errors.Wrap(err, "lexing")
	}
	tracer().Debugf("lexed %d tokens", len(unit.Tokens))

	if unit.AST, err = parser.Parse(unit.Tokens); err != nil {
		return nil, errors.Wrap(err, "parsing")
	}
	if unit.Symbols, err = symbols.Collect(unit.AST); err != nil {
		return nil, errors.Wrap(err, "collecting symbols")
	}
	if err = checker.CheckEntry(unit.AST, unit.Symbols, opts.entry()); err != nil {
		return nil, errors.Wrap(err, "checking")
	}
	if unit.Bytecode, err = emitter.EmitEntry(unit.AST, unit.Symbols, opts.entry()); err != nil {
		return nil, errors.Wrap(err, "emitting")
	}
	tracer().Infof("compiled %d functions into %d instructions",
		len(unit.Bytecode.Functions), len(unit.Bytecode.Code))
	return unit, nil
}

// Result is the outcome of running a program.
type Result struct {
	// Value is the top of the stack after execution. It is only
	// meaningful when HasValue is set.
	Value    vm.RuntimeValue
	HasValue bool
	Steps    int
}

// Run executes p.
func Run(p *bytecode.Program, opts Options) (Result, error) {
	in := &vm.Interpreter{MaxSteps: opts.MaxSteps, Out: opts.Out}
	stack := vm.NewStack(opts.StackSize)
	err := in.Execute(p, stack)
	result := Result{Steps: in.Steps()}
	if err != nil {
		return result, errors.Wrap(err, "executing")
	}
	if top, err := stack.Peek(); err == nil {
		result.Value = top
		result.HasValue = true
	}
	tracer().Debugf("executed %d steps, stack depth %d", result.Steps, stack.Count())
	return result, nil
}

// CompileAndRun compiles source and executes the result.
func CompileAndRun(source string, opts Options) (Result, error) {
	unit, err := Compile(source, opts)
	if err != nil {
		return Result{}, err
	}
	return Run(unit.Bytecode, opts)
}

// Eval evaluates a single integer expression.
func Eval(expr string, opts Options) (Result, error) {
	opts.EntryPoint = symbols.EntryPointName
	return CompileAndRun(EvalSource(expr), opts)
}

// EvalSource wraps expr in an entry point function returning it.
func EvalSource(expr string) string {
	return "function main() -> int { return " + expr + "; }"
}
