// Package vm executes Waddle bytecode on a stack machine.
package vm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/waddlelang/waddle/bytecode"
	"github.com/waddlelang/waddle/diagnostics"
)

func tracer() tracing.Trace {
	return gtrace.InterpreterTracer
}

// Interpreter runs instruction arrays. The zero value runs code that
// needs neither a function table nor a string pool.
type Interpreter struct {
	// Program supplies the function table for Call and the string pool
	// for PushStr.
	Program *bytecode.Program
	// MaxSteps bounds the number of executed instructions; 0 means no limit.
	MaxSteps int
	// Out receives Print output. Defaults to os.Stdout.
	Out io.Writer

	steps int
}

type frame struct {
	returnPC int
	base     int
}

// Run executes code on stack with a zero Interpreter.
func Run(code []bytecode.Instruction, stack *Stack) error {
	var in Interpreter
	return in.Run(code, stack)
}

// Steps returns the number of instructions executed by the last run.
func (in *Interpreter) Steps() int { return in.steps }

// Execute runs p from its first instruction.
func (in *Interpreter) Execute(p *bytecode.Program, stack *Stack) error {
	in.Program = p
	return in.Run(p.Code, stack)
}

// Run executes code from index 0 until execution passes the end of code
// or the outermost frame returns. The jump target of Branch and
// BranchZero is the index of the next instruction executed.
func (in *Interpreter) Run(code []bytecode.Instruction, stack *Stack) error {
	out := in.Out
	if out == nil {
		out = os.Stdout
	}
	debug := tracer().GetTraceLevel() >= tracing.LevelDebug

	frames := []frame{{returnPC: -1, base: 0}}
	in.steps = 0
	pc := 0
	for pc < len(code) {
		ins := code[pc]
		in.steps++
		if in.MaxSteps > 0 && in.steps > in.MaxSteps {
			return faultf(pc, ins, "step limit %d exceeded", in.MaxSteps)
		}
		if debug {
			tracer().Debugf("%04d %-16s depth=%d frames=%d", pc, ins, stack.Count(), len(frames))
		}

		base := frames[len(frames)-1].base
		next := pc + 1

		switch ins.Op {
		case bytecode.PushI32:
			if err := stack.Push(Integer(ins.Arg)); err != nil {
				return fault(pc, ins, err)
			}

		case bytecode.PushStr:
			if in.Program == nil || ins.Arg < 0 || int(ins.Arg) >= len(in.Program.Strings) {
				return faultf(pc, ins, "string %d not in pool", ins.Arg)
			}
			if err := stack.Push(String(in.Program.Strings[ins.Arg])); err != nil {
				return fault(pc, ins, err)
			}

		case bytecode.LoadLocalI32:
			v, err := stack.Get(base + int(ins.Arg))
			if err != nil {
				return fault(pc, ins, err)
			}
			if err := stack.Push(v); err != nil {
				return fault(pc, ins, err)
			}

		case bytecode.StoreLocalI32:
			v, err := stack.Pop()
			if err != nil {
				return fault(pc, ins, err)
			}
			if err := stack.Set(base+int(ins.Arg), v); err != nil {
				return fault(pc, ins, err)
			}

		case bytecode.Pop:
			if _, err := stack.Pop(); err != nil {
				return fault(pc, ins, err)
			}

		case bytecode.AddI32, bytecode.SubI32, bytecode.MulI32, bytecode.DivI32,
			bytecode.EqI32, bytecode.NeI32, bytecode.GtI32, bytecode.GeI32, bytecode.LtI32, bytecode.LeI32:
			right, err := popInteger(stack)
			if err != nil {
				return fault(pc, ins, err)
			}
			left, err := popInteger(stack)
			if err != nil {
				return fault(pc, ins, err)
			}
			if ins.Op == bytecode.DivI32 && right == 0 {
				return faultf(pc, ins, "division by zero")
			}
			if err := stack.Push(Integer(arithmetic(ins.Op, left, right))); err != nil {
				return fault(pc, ins, err)
			}

		case bytecode.Branch:
			if ins.Arg < 0 || int(ins.Arg) > len(code) {
				return faultf(pc, ins, "branch target %d out of range", ins.Arg)
			}
			next = int(ins.Arg)

		case bytecode.BranchZero:
			if ins.Arg < 0 || int(ins.Arg) > len(code) {
				return faultf(pc, ins, "branch target %d out of range", ins.Arg)
			}
			cond, err := popInteger(stack)
			if err != nil {
				return fault(pc, ins, err)
			}
			if cond == 0 {
				next = int(ins.Arg)
			}

		case bytecode.Call:
			if in.Program == nil || ins.Arg < 0 || int(ins.Arg) >= len(in.Program.Functions) {
				return faultf(pc, ins, "function %d not defined", ins.Arg)
			}
			callee := in.Program.Functions[ins.Arg]
			if callee.Entry < 0 || callee.Entry >= len(code) {
				return faultf(pc, ins, "entry %d of function %s out of range", callee.Entry, callee.Name)
			}
			calleeBase := stack.Count() - callee.Params
			if calleeBase < base {
				return fault(pc, ins, ErrStackUnderflow)
			}
			frames = append(frames, frame{returnPC: pc + 1, base: calleeBase})
			next = callee.Entry

		case bytecode.Ret:
			if len(frames) == 1 {
				// Returning from the outermost frame halts with the result on top.
				return nil
			}
			var result RuntimeValue
			if ins.Arg != 0 {
				v, err := stack.Pop()
				if err != nil {
					return fault(pc, ins, err)
				}
				result = v
			}
			if err := stack.Truncate(base); err != nil {
				return fault(pc, ins, err)
			}
			if ins.Arg != 0 {
				if err := stack.Push(result); err != nil {
					return fault(pc, ins, err)
				}
			}
			next = frames[len(frames)-1].returnPC
			frames = frames[:len(frames)-1]

		case bytecode.Print:
			n := int(ins.Arg)
			if n < 0 || n > stack.Count()-base {
				return fault(pc, ins, ErrStackUnderflow)
			}
			parts := make([]string, n)
			for i := n - 1; i >= 0; i-- {
				v, err := stack.Pop()
				if err != nil {
					return fault(pc, ins, err)
				}
				parts[i] = v.String()
			}
			fmt.Fprintln(out, strings.Join(parts, " "))

		default:
			return faultf(pc, ins, "unknown opcode %d", byte(ins.Op))
		}

		pc = next
	}
	return nil
}

func fault(pc int, ins bytecode.Instruction, err error) error {
	return &diagnostics.RuntimeError{PC: pc, Op: ins.Op.String(), Msg: err.Error(), Cause: err}
}

func faultf(pc int, ins bytecode.Instruction, format string, args ...any) error {
	return &diagnostics.RuntimeError{PC: pc, Op: ins.Op.String(), Msg: fmt.Sprintf(format, args...)}
}

func popInteger(stack *Stack) (int32, error) {
	v, err := stack.Pop()
	if err != nil {
		return 0, err
	}
	if !v.IsInteger() {
		return 0, fmt.Errorf("expected integer operand, found string %q", v.Str())
	}
	return v.Int(), nil
}

func arithmetic(op bytecode.OpCode, left, right int32) int32 {
	switch op {
	case bytecode.AddI32:
		return left + right
	case bytecode.SubI32:
		return left - right
	case bytecode.MulI32:
		return left * right
	case bytecode.DivI32:
		return left / right
	case bytecode.EqI32:
		return boolToInt(left == right)
	case bytecode.NeI32:
		return boolToInt(left != right)
	case bytecode.GtI32:
		return boolToInt(left > right)
	case bytecode.GeI32:
		return boolToInt(left >= right)
	case bytecode.LtI32:
		return boolToInt(left < right)
	default:
		return boolToInt(left <= right)
	}
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
