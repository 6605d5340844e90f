// Package bytecode defines the instruction set of the Waddle virtual
// machine and the layout of compiled programs.
package bytecode

import (
	"fmt"
	"io"
)

// OpCode is a closed set of operations.
type OpCode byte

const (
	PushI32       OpCode = iota // push Integer(arg)
	LoadLocalI32                // push a copy of frame slot arg
	StoreLocalI32               // pop into frame slot arg
	Pop                         // discard the top value
	AddI32
	SubI32
	MulI32
	DivI32
	Ret        // return from a call; arg is 1 if a result is returned, else 0
	Call       // call function table entry arg
	Branch     // continue at instruction arg
	BranchZero // pop; continue at instruction arg if the value is Integer(0)
	EqI32
	NeI32
	GtI32
	GeI32
	LtI32
	LeI32
	PushStr // push String(strings[arg])
	Print   // pop arg values and print them in push order

	opCodeCount
)

var opNames = [...]string{
	PushI32:       "PushI32",
	LoadLocalI32:  "LoadLocalI32",
	StoreLocalI32: "StoreLocalI32",
	Pop:           "Pop",
	AddI32:        "AddI32",
	SubI32:        "SubI32",
	MulI32:        "MulI32",
	DivI32:        "DivI32",
	Ret:           "Ret",
	Call:          "Call",
	Branch:        "Branch",
	BranchZero:    "BranchZero",
	EqI32:         "EqI32",
	NeI32:         "NeI32",
	GtI32:         "GtI32",
	GeI32:         "GeI32",
	LtI32:         "LtI32",
	LeI32:         "LeI32",
	PushStr:       "PushStr",
	Print:         "Print",
}

func (op OpCode) String() string {
	if op.Valid() {
		return opNames[op]
	}
	return fmt.Sprintf("OpCode(%d)", byte(op))
}

// Valid reports whether op belongs to the instruction set.
func (op OpCode) Valid() bool {
	return op < opCodeCount
}

// HasArg reports whether the instruction's argument is meaningful.
func (op OpCode) HasArg() bool {
	switch op {
	case PushI32, LoadLocalI32, StoreLocalI32, Ret, Call, Branch, BranchZero, PushStr, Print:
		return true
	}
	return false
}

// IsJump reports whether the argument is an absolute instruction index.
func (op OpCode) IsJump() bool {
	return op == Branch || op == BranchZero
}

// Instruction is an opcode with its integer argument.
type Instruction struct {
	Op  OpCode
	Arg int32
}

// Op returns an instruction without argument.
func Op(op OpCode) Instruction {
	return Instruction{Op: op}
}

// OpArg returns an instruction with argument arg.
func OpArg(op OpCode, arg int32) Instruction {
	return Instruction{Op: op, Arg: arg}
}

func (i Instruction) String() string {
	if i.Op.HasArg() {
		return fmt.Sprintf("%s %d", i.Op, i.Arg)
	}
	return i.Op.String()
}

// Function describes a callable unit of code. Entry is the index of its
// first instruction; Locals counts the slots beyond the parameters that
// the function reserves on entry.
type Function struct {
	Name    string
	Entry   int
	Params  int
	Locals  int
	Returns bool
}

// Program is a compiled Waddle program. Execution starts at Code[0],
// which is the entry point function.
type Program struct {
	Code      []Instruction
	Functions []Function
	Strings   []string
}

// FunctionAt returns the function whose code contains pc.
func (p *Program) FunctionAt(pc int) (Function, bool) {
	var found Function
	ok := false
	for _, f := range p.Functions {
		if f.Entry <= pc && (!ok || f.Entry >= found.Entry) {
			found, ok = f, true
		}
	}
	return found, ok
}

// Disassemble writes a human-readable listing of p to w.
func Disassemble(w io.Writer, p *Program) error {
	labels := map[int]string{}
	for _, f := range p.Functions {
		labels[f.Entry] = f.Name
	}
	for i, s := range p.Strings {
		if _, err := fmt.Fprintf(w, "string %d %q\n", i, s); err != nil {
			return err
		}
	}
	for pc, ins := range p.Code {
		if name, ok := labels[pc]; ok {
			if _, err := fmt.Fprintf(w, "%s:\n", name); err != nil {
				return err
			}
		}
		line := fmt.Sprintf("  %04d  %s", pc, ins)
		switch {
		case ins.Op == Call && int(ins.Arg) < len(p.Functions) && ins.Arg >= 0:
			line += "  ; " + p.Functions[ins.Arg].Name
		case ins.Op == PushStr && int(ins.Arg) < len(p.Strings) && ins.Arg >= 0:
			line += fmt.Sprintf("  ; %q", p.Strings[ins.Arg])
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
