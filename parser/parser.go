// Package parser builds a syntax tree from tokens by recursive descent,
// using precedence climbing for binary operators.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"

	"github.com/waddlelang/waddle/ast"
	"github.com/waddlelang/waddle/diagnostics"
	"github.com/waddlelang/waddle/token"
)

func tracer() tracing.Trace {
	return gtrace.SyntaxTracer
}

// Parser holds the token stream and the current lookahead token.
type Parser struct {
	tokens  []token.Token
	pos     int
	current token.Token
}

// New creates a Parser over tokens. A trailing Eof token is added when
// tokens does not end with one.
func New(tokens []token.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.Eof {
		eof := token.Token{Kind: token.Eof, Line: 1, Column: 1}
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			eof.Line, eof.Column = last.Line, last.Column+len([]rune(last.Lexeme))
		}
		tokens = append(tokens[:len(tokens):len(tokens)], eof)
	}
	p := &Parser{tokens: tokens}
	p.current = tokens[0]
	return p
}

// Parse parses a whole program.
func Parse(tokens []token.Token) (*ast.Program, error) {
	return New(tokens).ParseProgram()
}

// ParseExpression parses tokens as a single expression.
func ParseExpression(tokens []token.Token) (ast.Expr, error) {
	p := New(tokens)
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) next() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.current = p.tokens[p.pos]
}

func (p *Parser) errorf(expected string) error {
	return &diagnostics.SyntaxError{
		Position: diagnostics.Position{Line: p.current.Line, Column: p.current.Column},
		Expected: expected,
		Found:    describeToken(p.current),
	}
}

// expect consumes the current token, which must be of kind.
func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	tok := p.current
	if tok.Kind != kind {
		return tok, p.errorf(describeKind(kind))
	}
	p.next()
	return tok, nil
}

func (p *Parser) expectEnd() error {
	if p.current.Kind != token.Eof {
		return p.errorf("end of input")
	}
	return nil
}

func describeKind(kind token.Kind) string {
	switch kind {
	case token.Identifier:
		return "identifier"
	case token.Number:
		return "number"
	case token.StringLiteral:
		return "string literal"
	case token.Eof:
		return "end of input"
	case token.String:
		return "'string'"
	}
	return "'" + strings.ToLower(string(kind)) + "'"
}

func describeToken(tok token.Token) string {
	switch tok.Kind {
	case token.Eof:
		return "end of input"
	case token.StringLiteral:
		return strconv.Quote(tok.Lexeme)
	}
	return "'" + tok.Lexeme + "'"
}

// ParseProgram parses function declarations up to the end of input.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{Syntax: ast.Syntax{StartToken: p.current}}
	for p.current.Kind != token.Eof {
		if p.current.Kind != token.Function {
			return nil, p.errorf("'function'")
		}
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		program.Functions = append(program.Functions, fn)
	}
	tracer().Debugf("parsed %d functions", len(program.Functions))
	return program, nil
}

func (p *Parser) parseFunction() (*ast.FunctionDecl, error) {
	start, err := p.expect(token.Function)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	fn := &ast.FunctionDecl{Syntax: ast.Syntax{StartToken: start}, Name: name.Lexeme}

	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	for p.current.Kind != token.RParen {
		if len(fn.Parameters) > 0 {
			if _, err := p.expect(token.Comma); err != nil {
				return nil, err
			}
		}
		param, err := p.parseParameter()
		if err != nil {
			return nil, err
		}
		fn.Parameters = append(fn.Parameters, param)
	}
	p.next() // consume ')'

	if p.current.Kind == token.Arrow {
		p.next()
		fn.ReturnType, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	fn.Body, err = p.parseBlock()
	if err != nil {
		return nil, err
	}
	return fn, nil
}

// parseParameter parses `name: type`.
func (p *Parser) parseParameter() (*ast.ParameterDecl, error) {
	name, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return &ast.ParameterDecl{Syntax: ast.Syntax{StartToken: name}, Name: name.Lexeme, Type: typ}, nil
}

func (p *Parser) parseType() (*ast.Type, error) {
	if !p.current.Kind.IsTypeName() {
		return nil, p.errorf("type")
	}
	typ := &ast.Type{Syntax: ast.Syntax{StartToken: p.current}}
	p.next()
	return typ, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	start, err := p.expect(token.LBrace)
	if err != nil {
		return nil, err
	}
	block := &ast.Block{Syntax: ast.Syntax{StartToken: start}}
	for p.current.Kind != token.RBrace {
		if p.current.Kind == token.Eof {
			return nil, p.errorf("'}'")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.next() // consume '}'
	return block, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	start := p.current
	syntax := ast.Syntax{StartToken: start}

	switch start.Kind {
	case token.Return:
		p.next()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Syntax: syntax, Expr: expr}, nil

	case token.If:
		p.next()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.IfStmt{Syntax: syntax, Cond: cond, Body: body}, nil

	case token.Identifier:
		p.next()
		if _, err := p.expect(token.Equal); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Syntax: syntax, Expr: expr}, nil

	case token.Print:
		p.next()
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.PrintStmt{Syntax: syntax, Args: args}, nil

	case token.Var:
		p.next()
		param, err := p.parseParameter()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Equal); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.DeclStmt{Syntax: syntax, Param: param, Expr: expr}, nil

	case token.Arrow:
		call, err := p.parseInvocation()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.InvocationStmt{Syntax: syntax, Call: call}, nil
	}

	return nil, p.errorf("statement")
}

// parseArguments parses a comma separated expression list after '(' and
// consumes the closing ')'.
func (p *Parser) parseArguments() ([]ast.Expr, error) {
	var args []ast.Expr
	for p.current.Kind != token.RParen {
		if len(args) > 0 {
			if _, err := p.expect(token.Comma); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	p.next() // consume ')'
	return args, nil
}

// parseInvocation parses `-> name ( args )`.
func (p *Parser) parseInvocation() (*ast.Invocation, error) {
	start, err := p.expect(token.Arrow)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	return &ast.Invocation{Syntax: ast.Syntax{StartToken: start}, Name: name.Lexeme, Args: args}, nil
}

// precedence returns the binding power of a binary operator token, or 0.
func precedence(kind token.Kind) int {
	switch kind {
	case token.And, token.Or:
		return 1
	case token.Equals, token.NotEquals, token.LessThan, token.GreaterThan, token.LessEquals, token.GreaterEquals:
		return 2
	case token.Plus, token.Minus:
		return 3
	case token.Multiply, token.Divide:
		return 4
	default:
		return 0
	}
}

func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseLogical()
}

// parseLogical parses `relational ( (&&|||) relational )*`.
func (p *Parser) parseLogical() (ast.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.current.Kind == token.And || p.current.Kind == token.Or {
		op := p.current
		p.next()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = makeBinary(op, left, right)
	}
	return left, nil
}

// parseRelational parses `term ( relOp term )?`. Comparisons do not chain.
func (p *Parser) parseRelational() (ast.Expr, error) {
	left, err := p.parseExpressionWithPrecedence(3)
	if err != nil {
		return nil, err
	}
	op := p.current
	if precedence(op.Kind) != 2 {
		return left, nil
	}
	p.next()
	right, err := p.parseExpressionWithPrecedence(3)
	if err != nil {
		return nil, err
	}
	return makeBinary(op, left, right), nil
}

// parseExpressionWithPrecedence implements precedence climbing for the
// arithmetic operators, all of which are left-associative.
func (p *Parser) parseExpressionWithPrecedence(minPrec int) (ast.Expr, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	for {
		op := p.current
		prec := precedence(op.Kind)
		if prec < 3 || prec < minPrec {
			break
		}
		p.next()

		right, err := p.parseExpressionWithPrecedence(prec + 1)
		if err != nil {
			return nil, err
		}
		left = makeBinary(op, left, right)
	}
	return left, nil
}

func makeBinary(op token.Token, left, right ast.Expr) ast.Expr {
	syntax := ast.Syntax{StartToken: left.Start()}
	switch op.Kind {
	case token.And:
		return &ast.LogicalExpr{Syntax: syntax, Left: left, Right: right, Op: ast.And}
	case token.Or:
		return &ast.LogicalExpr{Syntax: syntax, Left: left, Right: right, Op: ast.Or}
	case token.Equals:
		return &ast.RelationalExpr{Syntax: syntax, Left: left, Right: right, Op: ast.Eq}
	case token.NotEquals:
		return &ast.RelationalExpr{Syntax: syntax, Left: left, Right: right, Op: ast.Ne}
	case token.GreaterThan:
		return &ast.RelationalExpr{Syntax: syntax, Left: left, Right: right, Op: ast.Gt}
	case token.GreaterEquals:
		return &ast.RelationalExpr{Syntax: syntax, Left: left, Right: right, Op: ast.Ge}
	case token.LessThan:
		return &ast.RelationalExpr{Syntax: syntax, Left: left, Right: right, Op: ast.Lt}
	case token.LessEquals:
		return &ast.RelationalExpr{Syntax: syntax, Left: left, Right: right, Op: ast.Le}
	case token.Plus:
		return &ast.TermExpr{Syntax: syntax, Left: left, Right: right, Op: ast.Plus}
	case token.Minus:
		return &ast.TermExpr{Syntax: syntax, Left: left, Right: right, Op: ast.Minus}
	case token.Multiply:
		return &ast.ProductExpr{Syntax: syntax, Left: left, Right: right, Op: ast.Times}
	default:
		return &ast.ProductExpr{Syntax: syntax, Left: left, Right: right, Op: ast.Divide}
	}
}

func (p *Parser) parseAtom() (ast.Expr, error) {
	tok := p.current
	syntax := ast.Syntax{StartToken: tok}

	switch tok.Kind {
	case token.Arrow:
		return p.parseInvocation()

	case token.Number:
		value, err := strconv.ParseInt(tok.Lexeme, 10, 32)
		if err != nil {
			return nil, &diagnostics.SyntaxError{
				Position: diagnostics.Position{Line: tok.Line, Column: tok.Column},
				Msg:      fmt.Sprintf("integer literal %s out of range", tok.Lexeme),
			}
		}
		p.next()
		return &ast.IntegerLiteral{Syntax: syntax, Value: int32(value)}, nil

	case token.StringLiteral:
		p.next()
		return &ast.StringLiteral{Syntax: syntax, Value: tok.Lexeme}, nil

	case token.Identifier:
		p.next()
		switch tok.Lexeme {
		case "true":
			return &ast.BoolLiteral{Syntax: syntax, Value: true}, nil
		case "false":
			return &ast.BoolLiteral{Syntax: syntax, Value: false}, nil
		}
		return &ast.Identifier{Syntax: syntax, Name: tok.Lexeme}, nil

	case token.LParen:
		p.next()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return expr, nil
	}

	return nil, p.errorf("expression")
}
