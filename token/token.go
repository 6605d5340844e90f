// Package token defines the lexical tokens of the Waddle language.
package token

import "fmt"

// Kind is the type of token (identifier, operator, literal, etc.).
type Kind string

// Definition of token kinds
const (
	// Special tokens
	Eof     Kind = "EOF"
	Unknown Kind = "UNKNOWN"
	Comment Kind = "COMMENT" // never emitted by the lexer

	// Identifiers + literals
	Identifier    Kind = "IDENT"  // main, foo, _bar, $x
	Number        Kind = "NUMBER" // 12345
	StringLiteral Kind = "STRING" // "hello"

	// Keywords
	Function Kind = "FUNCTION"
	If       Kind = "IF"
	Var      Kind = "VAR"
	Print    Kind = "PRINT"
	Return   Kind = "RETURN"
	For      Kind = "FOR"
	Int      Kind = "INT"
	Float    Kind = "FLOAT"
	String   Kind = "STRING_TYPE"
	Bool     Kind = "BOOL"
	Char     Kind = "CHAR"
	Buffer   Kind = "BUFFER"
	Regex    Kind = "REGEX"

	// Operators
	Plus          Kind = "+"
	Minus         Kind = "-"
	Multiply      Kind = "*"
	Divide        Kind = "/"
	Equal         Kind = "="
	Equals        Kind = "=="
	NotEquals     Kind = "!="
	LessThan      Kind = "<"
	GreaterThan   Kind = ">"
	LessEquals    Kind = "<="
	GreaterEquals Kind = ">="
	Arrow         Kind = "->"
	And           Kind = "&&"
	Or            Kind = "||"

	// Delimiters
	LParen    Kind = "("
	RParen    Kind = ")"
	LBrace    Kind = "{"
	RBrace    Kind = "}"
	Colon     Kind = ":"
	Semicolon Kind = ";"
	Comma     Kind = ","
	Dot       Kind = "."
)

var keywords = map[string]Kind{
	"function": Function,
	"if":       If,
	"var":      Var,
	"print":    Print,
	"return":   Return,
	"for":      For,
	"int":      Int,
	"float":    Float,
	"string":   String,
	"bool":     Bool,
	"char":     Char,
	"buffer":   Buffer,
	"regex":    Regex,
}

// LookupIdent returns the keyword kind for word, or Identifier.
// Keywords are case-sensitive.
func LookupIdent(word string) Kind {
	if kind, ok := keywords[word]; ok {
		return kind
	}
	return Identifier
}

// operators is the maximal-munch table for runs of operator characters.
var operators = map[string]Kind{
	"+":  Plus,
	"-":  Minus,
	"*":  Multiply,
	"/":  Divide,
	"=":  Equal,
	"==": Equals,
	"!=": NotEquals,
	"<":  LessThan,
	">":  GreaterThan,
	"<=": LessEquals,
	">=": GreaterEquals,
	"->": Arrow,
	"&&": And,
	"||": Or,
}

// LookupOperator returns the operator kind spelled by op.
func LookupOperator(op string) (Kind, bool) {
	kind, ok := operators[op]
	return kind, ok
}

// IsTypeName reports whether k names a type in declarations.
func (k Kind) IsTypeName() bool {
	switch k {
	case Int, Float, String, Bool, Char, Buffer, Regex:
		return true
	}
	return false
}

// Token is a single lexical unit. Line and Column are 1-based.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Column int
}

func (t Token) String() string {
	if t.Kind == Eof {
		return "end of input"
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Lexeme)
}
