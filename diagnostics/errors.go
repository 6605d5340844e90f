// Package diagnostics defines the error taxonomy shared by every compiler
// phase and the virtual machine, and renders errors against their source.
package diagnostics

import "fmt"

// Position is a 1-based line/column location in source text.
// The zero Position means "no location".
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether p points into source text.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Kind names the phase that produced an error.
type Kind string

const (
	KindLex      Kind = "Lex"
	KindSyntax   Kind = "Syntax"
	KindSemantic Kind = "Semantic"
	KindRuntime  Kind = "Runtime"
)

// Error is implemented by all errors raised by the pipeline.
type Error interface {
	error
	Pos() Position
	Kind() Kind
	// Message returns the message without position info.
	Message() string
}

// LexError is an unrecognized character or malformed literal.
type LexError struct {
	Position
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("Lex Error at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *LexError) Pos() Position   { return e.Position }
func (e *LexError) Kind() Kind      { return KindLex }
func (e *LexError) Message() string { return e.Msg }

// SyntaxError is an unexpected token during parsing.
type SyntaxError struct {
	Position
	Expected string
	Found    string
	Msg      string // overrides the expected/found message when set
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Syntax Error at %d:%d: %s", e.Line, e.Column, e.Message())
}
func (e *SyntaxError) Pos() Position { return e.Position }
func (e *SyntaxError) Kind() Kind    { return KindSyntax }
func (e *SyntaxError) Message() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("expected %s, found %s", e.Expected, e.Found)
}

// SemanticError is a type or declaration error found by the symbol
// collector, the checker or the emitter.
type SemanticError struct {
	Position
	Msg string
}

func (e *SemanticError) Error() string {
	if !e.IsValid() {
		return "Semantic Error: " + e.Msg
	}
	return fmt.Sprintf("Semantic Error at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *SemanticError) Pos() Position   { return e.Position }
func (e *SemanticError) Kind() Kind      { return KindSemantic }
func (e *SemanticError) Message() string { return e.Msg }

// RuntimeError is a fault raised while executing bytecode.
type RuntimeError struct {
	PC    int    // index of the faulting instruction
	Op    string // its opcode
	Msg   string
	Cause error
}

func (e *RuntimeError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("Runtime Error at pc %d: %s", e.PC, e.Msg)
	}
	return fmt.Sprintf("Runtime Error at pc %d (%s): %s", e.PC, e.Op, e.Msg)
}
func (e *RuntimeError) Pos() Position   { return Position{} }
func (e *RuntimeError) Kind() Kind      { return KindRuntime }
func (e *RuntimeError) Message() string { return e.Msg }
func (e *RuntimeError) Unwrap() error   { return e.Cause }

// Semanticf builds a SemanticError at pos.
func Semanticf(pos Position, format string, args ...any) *SemanticError {
	return &SemanticError{Position: pos, Msg: fmt.Sprintf(format, args...)}
}
