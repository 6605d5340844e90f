package parser

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"github.com/waddlelang/waddle/ast"
	"github.com/waddlelang/waddle/diagnostics"
	"github.com/waddlelang/waddle/lexer"
)

func parseExpr(t *testing.T, input string) (ast.Expr, error) {
	t.Helper()
	tokens, err := lexer.Lex(input)
	be.Err(t, err, nil)
	return ParseExpression(tokens)
}

func parseProgram(t *testing.T, input string) (*ast.Program, error) {
	t.Helper()
	tokens, err := lexer.Lex(input)
	be.Err(t, err, nil)
	return Parse(tokens)
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"42", "(integer 42)"},
		{`"hello"`, `(string "hello")`},
		{"myVar", `(ident "myVar")`},
		{"true", "(boolean true)"},
		{"false", "(boolean false)"},
		{"2147483647", "(integer 2147483647)"},
	}

	for _, test := range tests {
		expr, err := parseExpr(t, test.input)
		be.Err(t, err, nil)
		be.Equal(t, ast.ToSExpr(expr), test.expected)
	}
}

func TestParseOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", `(binary "+" (integer 1) (binary "*" (integer 2) (integer 3)))`},
		{"1 * 2 + 3", `(binary "+" (binary "*" (integer 1) (integer 2)) (integer 3))`},
		{"1 - 2 - 3", `(binary "-" (binary "-" (integer 1) (integer 2)) (integer 3))`},
		{"8 / 4 / 2", `(binary "/" (binary "/" (integer 8) (integer 4)) (integer 2))`},
		{"(1 + 2) * 3", `(binary "*" (binary "+" (integer 1) (integer 2)) (integer 3))`},
		{"a + 1 == b", `(binary "==" (binary "+" (ident "a") (integer 1)) (ident "b"))`},
		{"a < b && c >= d", `(binary "&&" (binary "<" (ident "a") (ident "b")) (binary ">=" (ident "c") (ident "d")))`},
		{"a || b && c", `(binary "&&" (binary "||" (ident "a") (ident "b")) (ident "c"))`},
		{"x != 1 || y <= 2", `(binary "||" (binary "!=" (ident "x") (integer 1)) (binary "<=" (ident "y") (integer 2)))`},
		{"->f(1, a + 2) * 2", `(binary "*" (call "f" (integer 1) (binary "+" (ident "a") (integer 2))) (integer 2))`},
		{"->g()", `(call "g")`},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			expr, err := parseExpr(t, test.input)
			be.Err(t, err, nil)
			be.Equal(t, ast.ToSExpr(expr), test.expected)
		})
	}
}

func TestComparisonsDoNotChain(t *testing.T) {
	tests := []struct {
		input  string
		column int
	}{
		{"1 < 2 < 3", 7},
		{"a && b < c < d", 12},
		{"a || b != c < d", 13},
		{"1 + (2 < 3) < 4 < 5", 17},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			_, err := parseExpr(t, test.input)
			var syntaxErr *diagnostics.SyntaxError
			be.True(t, errors.As(err, &syntaxErr))
			be.Equal(t, syntaxErr.Expected, "end of input")
			be.Equal(t, syntaxErr.Found, "'<'")
			be.Equal(t, syntaxErr.Column, test.column)
		})
	}
}

func TestComparisonBindsTighterThanLogical(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a && b < c", `(binary "&&" (ident "a") (binary "<" (ident "b") (ident "c")))`},
		{"a < b || c", `(binary "||" (binary "<" (ident "a") (ident "b")) (ident "c"))`},
		{"1 + (2 < 3) < 4", `(binary "<" (binary "+" (integer 1) (binary "<" (integer 2) (integer 3))) (integer 4))`},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			expr, err := parseExpr(t, test.input)
			be.Err(t, err, nil)
			be.Equal(t, ast.ToSExpr(expr), test.expected)
		})
	}
}

func TestBinaryStartToken(t *testing.T) {
	expr, err := parseExpr(t, "abc + 1")
	be.Err(t, err, nil)
	be.Equal(t, expr.Start().Lexeme, "abc")
	be.Equal(t, expr.Pos(), diagnostics.Position{Line: 1, Column: 1})
}

func TestParseProgram(t *testing.T) {
	input := `
function add(a: int, b: int) -> int {
	return a + b;
}

// entry point
function main() {
	var total: int = ->add(1, 2);
	if total > 2 {
		print(total, "big");
	}
	total = 0;
	->add(total, 1);
}
`
	program, err := parseProgram(t, input)
	be.Err(t, err, nil)
	be.Equal(t, len(program.Functions), 2)

	expected := `(program ` +
		`(func "add" [(param "a" int) (param "b" int)] int (block (return (binary "+" (ident "a") (ident "b"))))) ` +
		`(func "main" [] void (block ` +
		`(var "total" int (call "add" (integer 1) (integer 2))) ` +
		`(if (binary ">" (ident "total") (integer 2)) (block (print (ident "total") (string "big")))) ` +
		`(assign "total" (integer 0)) ` +
		`(call "add" (ident "total") (integer 1)))))`
	be.Equal(t, ast.ToSExpr(program), expected)

	assign := program.Functions[1].Body.Statements[2].(*ast.AssignStmt)
	be.Equal(t, assign.Identifier(), "total")
	be.Equal(t, assign.Pos(), diagnostics.Position{Line: 12, Column: 2})
}

func TestParseEmptyProgram(t *testing.T) {
	program, err := parseProgram(t, "")
	be.Err(t, err, nil)
	be.Equal(t, len(program.Functions), 0)
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"missing semicolon", "function main() { return 1 }", "Syntax Error at 1:28: expected ';', found '}'"},
		{"missing brace", "function main() { return 1;", "Syntax Error at 1:28: expected '}', found end of input"},
		{"bad statement", "function main() { 1; }", "Syntax Error at 1:19: expected statement, found '1'"},
		{"bad type", "function main(a: foo) { }", "Syntax Error at 1:18: expected type, found 'foo'"},
		{"top level", "return 1;", "Syntax Error at 1:1: expected 'function', found 'return'"},
		{"missing expression", "function main() { return ; }", "Syntax Error at 1:26: expected expression, found ';'"},
		{"missing param comma", "function f(a: int b: int) { }", "Syntax Error at 1:19: expected ',', found 'b'"},
		{"integer overflow", "function main() { return 2147483648; }", "Syntax Error at 1:26: integer literal 2147483648 out of range"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := parseProgram(t, test.input)
			be.Err(t, err)
			be.Equal(t, err.Error(), test.expected)
		})
	}
}
