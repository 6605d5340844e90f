package sexy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType is the language of a test's input fence.
type InputType string

const (
	InputTypeWaddleExpr    InputType = "waddle-expr"
	InputTypeWaddleProgram InputType = "waddle-program"
)

// AssertionType is the language of an assertion fence.
type AssertionType string

const (
	// AssertionTypeAST holds an s-expression pattern for the parsed input.
	AssertionTypeAST AssertionType = "ast"
	// AssertionTypeBytecode lists the emitted instructions, one per line.
	AssertionTypeBytecode AssertionType = "bytecode"
	// AssertionTypeExecute holds the expected output of running the input.
	AssertionTypeExecute AssertionType = "execute"
	// AssertionTypeCompileError holds the expected compile error message.
	AssertionTypeCompileError AssertionType = "compile-error"
)

// Assertion is a single assertion fence of a test case.
type Assertion struct {
	Type       AssertionType
	Content    string // fence body without the trailing newline
	ParsedSexy *Node  // parsed Content of ast assertions
}

// TestCase is a test extracted from a "Test: name" heading and the
// fences that follow it.
type TestCase struct {
	Name       string
	Input      string
	InputType  InputType
	Line       int // line of the input fence
	Assertions []Assertion
}

// ExtractTestCases parses a Markdown document and returns its test cases
// in document order. Fences without a language are ignored; any other
// fence outside a test, or with an unknown language, is an error.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	source := []byte(markdownContent)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []TestCase
	var current *TestCase
	finish := func() error {
		if current == nil {
			return nil
		}
		if err := validateTestCase(current); err != nil {
			return err
		}
		cases = append(cases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading := extractTextFromNode(n, source)
			if name, ok := strings.CutPrefix(heading, "Test: "); ok {
				if err := finish(); err != nil {
					return ast.WalkStop, err
				}
				current = &TestCase{Name: name, Assertions: []Assertion{}}
			}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			if language == "" {
				return ast.WalkContinue, nil
			}
			lineNum := getLineNumber(n, source)
			known := isInputFence(language) || isAssertionFence(language)
			switch {
			case current == nil && known:
				return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", lineNum, language)
			case current == nil:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' found outside of test case", lineNum, language)
			case !known:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", lineNum, language, current.Name)
			}

			content := strings.TrimRight(extractCodeBlockContent(n, source), "\n")
			if isInputFence(language) {
				if current.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences found in test '%s'", lineNum, current.Name)
				}
				current.Input = content
				current.InputType = InputType(language)
				current.Line = lineNum
				return ast.WalkContinue, nil
			}

			assertion := Assertion{Type: AssertionType(language), Content: content}
			if assertion.Type == AssertionTypeAST {
				parsed, err := Parse(content)
				if err != nil {
					return ast.WalkStop, fmt.Errorf("line %d: failed to parse Sexy assertion in test '%s': %w", lineNum, current.Name, err)
				}
				assertion.ParsedSexy = parsed
			}
			current.Assertions = append(current.Assertions, assertion)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return cases, nil
}

// extractTextFromNode extracts plain text content from a markdown node
func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer

	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if text, ok := n.(*ast.Text); ok {
				buf.Write(text.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})

	return buf.String()
}

// extractCodeBlockContent extracts the content from a fenced code block
func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer

	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}

	return buf.String()
}

// isInputFence checks if the language indicates an input fence
func isInputFence(language string) bool {
	return language == string(InputTypeWaddleExpr) || language == string(InputTypeWaddleProgram)
}

// isAssertionFence checks if the language indicates an assertion fence
func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertionTypeAST, AssertionTypeBytecode, AssertionTypeExecute, AssertionTypeCompileError:
		return true
	}
	return false
}

// validateTestCase ensures a test case has both input and at least one assertion
func validateTestCase(testCase *TestCase) error {
	if testCase.Input == "" {
		return fmt.Errorf("test '%s' has no input fence", testCase.Name)
	}
	if len(testCase.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", testCase.Name)
	}
	return nil
}

// getLineNumber calculates the line number of a given AST node
func getLineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	// Count newlines before the node's start position
	startPos := node.Lines().At(0).Start
	lineNum := 1
	for i := 0; i < startPos && i < len(source); i++ {
		if source[i] == '\n' {
			lineNum++
		}
	}
	return lineNum
}
