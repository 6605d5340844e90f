package lexer

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"github.com/waddlelang/waddle/diagnostics"
	"github.com/waddlelang/waddle/token"
)

func kinds(tokens []token.Token) []token.Kind {
	var result []token.Kind
	for _, tok := range tokens {
		result = append(result, tok.Kind)
	}
	return result
}

func TestEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t \r\n"} {
		tokens, err := Lex(input)
		be.Err(t, err, nil)
		be.Equal(t, len(tokens), 0)
	}
}

func TestNumbers(t *testing.T) {
	tokens, err := Lex("123 456 789")
	be.Err(t, err, nil)
	be.Equal(t, len(tokens), 3)
	for i, lexeme := range []string{"123", "456", "789"} {
		be.Equal(t, tokens[i].Kind, token.Number)
		be.Equal(t, tokens[i].Lexeme, lexeme)
	}
}

func TestKeywordsAreCaseSensitive(t *testing.T) {
	tokens, err := Lex("Function function")
	be.Err(t, err, nil)
	be.Equal(t, kinds(tokens), []token.Kind{token.Identifier, token.Function})
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"function", token.Function},
		{"if", token.If},
		{"var", token.Var},
		{"print", token.Print},
		{"return", token.Return},
		{"for", token.For},
		{"int", token.Int},
		{"float", token.Float},
		{"string", token.String},
		{"bool", token.Bool},
		{"char", token.Char},
		{"buffer", token.Buffer},
		{"regex", token.Regex},
		{"true", token.Identifier},
		{"_x$1", token.Identifier},
		{"$", token.Identifier},
		{"größe", token.Identifier},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			tokens, err := Lex(test.input)
			be.Err(t, err, nil)
			be.Equal(t, len(tokens), 1)
			be.Equal(t, tokens[0].Kind, test.kind)
			be.Equal(t, tokens[0].Lexeme, test.input)
		})
	}
}

func TestOperators(t *testing.T) {
	tests := []struct {
		input string
		kinds []token.Kind
	}{
		{"+", []token.Kind{token.Plus}},
		{"==", []token.Kind{token.Equals}},
		{"!=", []token.Kind{token.NotEquals}},
		{"<=", []token.Kind{token.LessEquals}},
		{">=", []token.Kind{token.GreaterEquals}},
		{"->", []token.Kind{token.Arrow}},
		{"&&", []token.Kind{token.And}},
		{"||", []token.Kind{token.Or}},
		{"a<b", []token.Kind{token.Identifier, token.LessThan, token.Identifier}},
		{"=->", []token.Kind{token.Equal, token.Arrow}},
		{"===", []token.Kind{token.Equals, token.Equal}},
		{"1*2/3-4", []token.Kind{token.Number, token.Multiply, token.Number, token.Divide, token.Number, token.Minus, token.Number}},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			tokens, err := Lex(test.input)
			be.Err(t, err, nil)
			be.Equal(t, kinds(tokens), test.kinds)
		})
	}
}

func TestPunctuation(t *testing.T) {
	tokens, err := Lex("(){}.,;:")
	be.Err(t, err, nil)
	be.Equal(t, kinds(tokens), []token.Kind{
		token.LParen, token.RParen, token.LBrace, token.RBrace,
		token.Dot, token.Comma, token.Semicolon, token.Colon,
	})
}

func TestComments(t *testing.T) {
	tests := []string{
		"// hello",
		"// == -> && || + - * /",
		"//// x",
		"   // trailing\n",
	}

	for _, input := range tests {
		tokens, err := Lex(input)
		be.Err(t, err, nil)
		be.Equal(t, len(tokens), 0)
	}

	tokens, err := Lex("a // b\nc")
	be.Err(t, err, nil)
	be.Equal(t, len(tokens), 2)
	be.Equal(t, tokens[1].Lexeme, "c")
	be.Equal(t, tokens[1].Line, 2)
}

func TestStringLiterals(t *testing.T) {
	tokens, err := Lex(`"hi \"there\"\n"`)
	be.Err(t, err, nil)
	be.Equal(t, len(tokens), 1)
	be.Equal(t, tokens[0].Kind, token.StringLiteral)
	be.Equal(t, tokens[0].Lexeme, "hi \"there\"\n")

	_, err = Lex(`"open`)
	be.Err(t, err)
}

func TestPositions(t *testing.T) {
	tokens, err := Lex("function main() {\n  return 1;\n}")
	be.Err(t, err, nil)

	expected := []struct {
		lexeme string
		line   int
		column int
	}{
		{"function", 1, 1},
		{"main", 1, 10},
		{"(", 1, 14},
		{")", 1, 15},
		{"{", 1, 17},
		{"return", 2, 3},
		{"1", 2, 10},
		{";", 2, 11},
		{"}", 3, 1},
	}
	be.Equal(t, len(tokens), len(expected))
	for i, want := range expected {
		be.Equal(t, tokens[i].Lexeme, want.lexeme)
		be.Equal(t, tokens[i].Line, want.line)
		be.Equal(t, tokens[i].Column, want.column)
	}
}

func TestUnknownCharacter(t *testing.T) {
	tokens, err := Lex("var x # 1")
	be.Equal(t, len(tokens), 0)

	var lexErr *diagnostics.LexError
	be.True(t, errors.As(err, &lexErr))
	be.Equal(t, lexErr.Line, 1)
	be.Equal(t, lexErr.Column, 7)
	be.Equal(t, lexErr.Msg, "unexpected character '#'")
}

func TestUnknownOperator(t *testing.T) {
	tests := []struct {
		input  string
		column int
	}{
		{"a & b", 3},
		{"a &= b", 3},
		{"a =!b", 4},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			_, err := Lex(test.input)
			var lexErr *diagnostics.LexError
			be.True(t, errors.As(err, &lexErr))
			be.Equal(t, lexErr.Column, test.column)
		})
	}
}

func TestNextIsLazy(t *testing.T) {
	l := New("a # b")
	tok, err := l.Next()
	be.Err(t, err, nil)
	be.Equal(t, tok.Lexeme, "a")

	_, err = l.Next()
	be.Err(t, err)
}

func TestEofRepeats(t *testing.T) {
	l := New("x")
	_, _ = l.Next()
	for i := 0; i < 3; i++ {
		tok, err := l.Next()
		be.Err(t, err, nil)
		be.Equal(t, tok.Kind, token.Eof)
		be.Equal(t, tok.Column, 2)
	}
}
