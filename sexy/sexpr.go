package sexy

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeEllipsis
	NodeList
	NodeArray
)

func (t NodeType) String() string {
	switch t {
	case NodeSymbol:
		return "symbol"
	case NodeString:
		return "string"
	case NodeInteger:
		return "integer"
	case NodeEllipsis:
		return "ellipsis"
	case NodeList:
		return "list"
	case NodeArray:
		return "array"
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// Node is a parsed s-expression datum.
type Node struct {
	Type  NodeType
	Text  string  // NodeSymbol, NodeString, NodeInteger
	Items []*Node // NodeList, NodeArray
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger:
		return n.Text
	case NodeString:
		escaped := strings.ReplaceAll(n.Text, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		return "\"" + escaped + "\""
	case NodeEllipsis:
		return "..."
	case NodeList:
		return "(" + joinNodes(n.Items) + ")"
	case NodeArray:
		return "[" + joinNodes(n.Items) + "]"
	}
	return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
}

func joinNodes(items []*Node) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return strings.Join(parts, " ")
}

// Helper constructors for common node types
func NewSymbol(name string) *Node   { return &Node{Type: NodeSymbol, Text: name} }
func NewString(value string) *Node  { return &Node{Type: NodeString, Text: value} }
func NewInteger(text string) *Node  { return &Node{Type: NodeInteger, Text: text} }
func NewEllipsis() *Node            { return &Node{Type: NodeEllipsis} }
func NewList(items ...*Node) *Node  { return &Node{Type: NodeList, Items: items} }
func NewArray(items ...*Node) *Node { return &Node{Type: NodeArray, Items: items} }

// IsAtom checks if the node is an atomic value
func (n *Node) IsAtom() bool {
	return n.Type != NodeList && n.Type != NodeArray
}

// Head returns the symbol starting a list, or "" if there is none.
func (n *Node) Head() string {
	if n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

// Parse parses input, which must hold exactly one datum.
func Parse(input string) (*Node, error) {
	p := &parser{scan: &scanner{input: []rune(input), line: 1}}
	p.next()

	node, err := p.datum()
	if err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.tok.kind != tokenEOF {
		return nil, p.errorf("expected end of input, found %s", p.tok.kind)
	}
	return node, nil
}

type parser struct {
	scan *scanner
	tok  token
	err  error
}

func (p *parser) next() {
	if p.err == nil {
		p.tok, p.err = p.scan.next()
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", p.tok.line, fmt.Sprintf(format, args...))
}

func (p *parser) datum() (*Node, error) {
	if p.err != nil {
		return nil, p.err
	}
	tok := p.tok
	switch tok.kind {
	case tokenSymbol:
		p.next()
		return NewSymbol(tok.text), nil
	case tokenString:
		p.next()
		return NewString(tok.text), nil
	case tokenInteger:
		p.next()
		return NewInteger(tok.text), nil
	case tokenEllipsis:
		p.next()
		return NewEllipsis(), nil
	case tokenLParen:
		items, err := p.sequence(tokenRParen)
		return &Node{Type: NodeList, Items: items}, err
	case tokenLBracket:
		items, err := p.sequence(tokenRBracket)
		return &Node{Type: NodeArray, Items: items}, err
	}
	return nil, p.errorf("unexpected %s", tok.kind)
}

// sequence parses items up to and including the closing token.
func (p *parser) sequence(closing tokenKind) ([]*Node, error) {
	p.next() // opening bracket
	var items []*Node
	for p.err == nil && p.tok.kind != closing {
		if p.tok.kind == tokenEOF {
			return nil, p.errorf("expected %s, found end of input", closing)
		}
		item, err := p.datum()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if p.err != nil {
		return nil, p.err
	}
	p.next()
	return items, nil
}

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenSymbol
	tokenString
	tokenInteger
	tokenEllipsis
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
)

var tokenNames = [...]string{
	tokenEOF:      "end of input",
	tokenSymbol:   "symbol",
	tokenString:   "string",
	tokenInteger:  "integer",
	tokenEllipsis: "'...'",
	tokenLParen:   "'('",
	tokenRParen:   "')'",
	tokenLBracket: "'['",
	tokenRBracket: "']'",
}

func (k tokenKind) String() string { return tokenNames[k] }

type token struct {
	kind tokenKind
	text string
	line int
}

type scanner struct {
	input []rune
	pos   int
	line  int
}

func (s *scanner) peek(offset int) rune {
	if s.pos+offset >= len(s.input) {
		return 0
	}
	return s.input[s.pos+offset]
}

func (s *scanner) next() (token, error) {
	// Whitespace and ; comments.
	for s.pos < len(s.input) {
		r := s.input[s.pos]
		if r == ';' {
			for s.pos < len(s.input) && s.input[s.pos] != '\n' {
				s.pos++
			}
			continue
		}
		if !unicode.IsSpace(r) {
			break
		}
		if r == '\n' {
			s.line++
		}
		s.pos++
	}

	tok := token{line: s.line}
	if s.pos >= len(s.input) {
		return tok, nil
	}

	r := s.input[s.pos]
	switch {
	case r == '(' || r == ')' || r == '[' || r == ']':
		s.pos++
		tok.kind = map[rune]tokenKind{'(': tokenLParen, ')': tokenRParen, '[': tokenLBracket, ']': tokenRBracket}[r]
	case r == '"':
		text, err := s.str()
		if err != nil {
			return tok, fmt.Errorf("line %d: %w", s.line, err)
		}
		tok.kind, tok.text = tokenString, text
	case r == '.':
		if s.peek(1) != '.' || s.peek(2) != '.' {
			return tok, fmt.Errorf("line %d: unexpected character '.'", s.line)
		}
		s.pos += 3
		tok.kind = tokenEllipsis
	case unicode.IsDigit(r) || (r == '-' || r == '+') && unicode.IsDigit(s.peek(1)):
		start := s.pos
		s.pos++
		for unicode.IsDigit(s.peek(0)) {
			s.pos++
		}
		tok.kind, tok.text = tokenInteger, string(s.input[start:s.pos])
	case isSymbolChar(r):
		start := s.pos
		for s.pos < len(s.input) && isSymbolChar(s.input[s.pos]) {
			s.pos++
		}
		tok.kind, tok.text = tokenSymbol, string(s.input[start:s.pos])
	default:
		return tok, fmt.Errorf("line %d: unexpected character %q", s.line, r)
	}
	return tok, nil
}

func (s *scanner) str() (string, error) {
	var b strings.Builder
	s.pos++ // opening quote
	for s.pos < len(s.input) {
		r := s.input[s.pos]
		s.pos++
		switch r {
		case '"':
			return b.String(), nil
		case '\\':
			switch esc := s.peek(0); esc {
			case '"', '\\':
				b.WriteRune(esc)
				s.pos++
			default:
				return "", fmt.Errorf("invalid escape sequence: \\%c", esc)
			}
		case '\n':
			s.line++
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return "", fmt.Errorf("unterminated string")
}

func isSymbolChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-_+*/<>=!&|?", r)
}
