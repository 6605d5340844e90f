// Package lexer turns Waddle source text into tokens.
package lexer

import (
	"fmt"
	"iter"
	"strings"
	"unicode"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/waddlelang/waddle/diagnostics"
	"github.com/waddlelang/waddle/token"
)

func tracer() tracing.Trace {
	return gtrace.SyntaxTracer
}

const eof = rune(-1)

// Lexer produces tokens from source text on demand. A Lexer is not
// restartable; create a new one to lex the same text again.
type Lexer struct {
	src []rune
	pos int

	// position of the next rune to be read
	line   int
	column int

	// position before the last read, restored by unread
	prevLine   int
	prevColumn int

	done bool
}

// New creates a Lexer reading from source.
func New(source string) *Lexer {
	return &Lexer{src: []rune(source), line: 1, column: 1}
}

// Lex tokenizes all of source. The trailing Eof token is not included,
// so lexing "" or pure whitespace yields an empty slice.
func Lex(source string) ([]token.Token, error) {
	var tokens []token.Token
	for tok, err := range Tokens(source) {
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	tracer().Debugf("lexed %d tokens", len(tokens))
	return tokens, nil
}

// Tokens returns the token sequence of source, stopping before Eof or
// after the first error.
func Tokens(source string) iter.Seq2[token.Token, error] {
	return func(yield func(token.Token, error) bool) {
		l := New(source)
		for {
			tok, err := l.Next()
			if err != nil {
				yield(tok, err)
				return
			}
			if tok.Kind == token.Eof {
				return
			}
			if !yield(tok, nil) {
				return
			}
		}
	}
}

// read consumes one rune, returning eof at the end of input.
func (l *Lexer) read() rune {
	l.prevLine, l.prevColumn = l.line, l.column
	if l.pos >= len(l.src) {
		// Reading past the end still advances so that unread is symmetric.
		l.pos++
		return eof
	}
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

// unread pushes back the rune returned by the last read. Only one rune of
// pushback is supported.
func (l *Lexer) unread() {
	l.pos--
	l.line, l.column = l.prevLine, l.prevColumn
}

func (l *Lexer) peek() rune {
	c := l.read()
	l.unread()
	return c
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_' || c == '$'
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || isDigit(c)
}

func isOperatorChar(c rune) bool {
	return strings.ContainsRune("+-*/|<>=&!", c)
}

func singleCharKind(c rune) (token.Kind, bool) {
	switch c {
	case '(':
		return token.LParen, true
	case ')':
		return token.RParen, true
	case '{':
		return token.LBrace, true
	case '}':
		return token.RBrace, true
	case '.':
		return token.Dot, true
	case ',':
		return token.Comma, true
	case ';':
		return token.Semicolon, true
	case ':':
		return token.Colon, true
	}
	return "", false
}

// Next returns the next token. At the end of input it returns an Eof token,
// repeatedly. After an error the Lexer must not be used again.
func (l *Lexer) Next() (token.Token, error) {
	for {
		line, column := l.line, l.column
		c := l.read()

		switch {
		case c == eof:
			l.unread()
			return token.Token{Kind: token.Eof, Line: line, Column: column}, nil

		case unicode.IsSpace(c):
			continue

		case isDigit(c):
			return l.scanRun(c, isDigit, token.Number, line, column), nil

		case isIdentStart(c):
			tok := l.scanRun(c, isIdentPart, token.Identifier, line, column)
			tok.Kind = token.LookupIdent(tok.Lexeme)
			return tok, nil

		case c == '"':
			return l.scanString(line, column)

		case isOperatorChar(c):
			tok, isComment, err := l.scanOperator(c, line, column)
			if err != nil {
				return tok, err
			}
			if isComment {
				continue
			}
			return tok, nil
		}

		if kind, ok := singleCharKind(c); ok {
			return token.Token{Kind: kind, Lexeme: string(c), Line: line, Column: column}, nil
		}
		return token.Token{Kind: token.Unknown, Lexeme: string(c), Line: line, Column: column},
			&diagnostics.LexError{
				Position: diagnostics.Position{Line: line, Column: column},
				Msg:      fmt.Sprintf("unexpected character %q", c),
			}
	}
}

func (l *Lexer) scanRun(first rune, accept func(rune) bool, kind token.Kind, line, column int) token.Token {
	var sb strings.Builder
	sb.WriteRune(first)
	for {
		c := l.read()
		if !accept(c) {
			l.unread()
			break
		}
		sb.WriteRune(c)
	}
	return token.Token{Kind: kind, Lexeme: sb.String(), Line: line, Column: column}
}

// scanOperator consumes the longest operator in the operator table starting
// at first. A "//" starts a comment running to the end of the line.
func (l *Lexer) scanOperator(first rune, line, column int) (token.Token, bool, error) {
	if first == '/' && l.peek() == '/' {
		for {
			c := l.read()
			if c == '\n' {
				break
			}
			if c == eof {
				l.unread()
				break
			}
		}
		return token.Token{}, true, nil
	}

	op := string(first)
	kind, ok := token.LookupOperator(op)
	for {
		c := l.read()
		if !isOperatorChar(c) {
			l.unread()
			break
		}
		longer, found := token.LookupOperator(op + string(c))
		if !found {
			l.unread()
			break
		}
		op, kind, ok = op+string(c), longer, true
	}
	if !ok {
		return token.Token{Kind: token.Unknown, Lexeme: op, Line: line, Column: column}, false,
			&diagnostics.LexError{
				Position: diagnostics.Position{Line: line, Column: column},
				Msg:      fmt.Sprintf("unknown operator %q", op),
			}
	}
	return token.Token{Kind: kind, Lexeme: op, Line: line, Column: column}, false, nil
}

func (l *Lexer) scanString(line, column int) (token.Token, error) {
	var sb strings.Builder
	for {
		c := l.read()
		switch c {
		case '"':
			return token.Token{Kind: token.StringLiteral, Lexeme: sb.String(), Line: line, Column: column}, nil
		case eof, '\n':
			return token.Token{Kind: token.Unknown, Line: line, Column: column},
				&diagnostics.LexError{
					Position: diagnostics.Position{Line: line, Column: column},
					Msg:      "unterminated string literal",
				}
		case '\\':
			escLine, escColumn := l.line, l.column
			switch e := l.read(); e {
			case '"', '\\':
				sb.WriteRune(e)
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				return token.Token{Kind: token.Unknown, Line: line, Column: column},
					&diagnostics.LexError{
						Position: diagnostics.Position{Line: escLine, Column: escColumn - 1},
						Msg:      fmt.Sprintf("invalid escape sequence \\%c", e),
					}
			}
		default:
			sb.WriteRune(c)
		}
	}
}
