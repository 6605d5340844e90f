package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func fence(language, body string) string {
	return "```" + language + "\n" + body + "\n```\n"
}

func TestExtractTestCases_BasicTest(t *testing.T) {
	markdown := "# Binary expressions\n\n## Test: +\n" +
		fence("waddle-expr", "1 + 2") +
		fence("ast", `(binary "+" 1 2)`) +
		"\n## Test: -\n" +
		fence("waddle-expr", "1 - 2") +
		fence("ast", `(binary "-" 1 2)`)

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 2)

	tc1 := testCases[0]
	be.Equal(t, tc1.Name, "+")
	be.Equal(t, tc1.Input, "1 + 2")
	be.Equal(t, tc1.InputType, InputTypeWaddleExpr)
	be.Equal(t, len(tc1.Assertions), 1)
	be.Equal(t, tc1.Assertions[0].Type, AssertionTypeAST)
	be.Equal(t, tc1.Assertions[0].ParsedSexy.String(), `(binary "+" 1 2)`)

	tc2 := testCases[1]
	be.Equal(t, tc2.Name, "-")
	be.Equal(t, tc2.Assertions[0].Content, `(binary "-" 1 2)`)
}

func TestExtractTestCases_AssertionTypes(t *testing.T) {
	program := "function main() {\n\tprint(42);\n}"
	markdown := "## Test: everything\n" +
		fence("waddle-program", program) +
		fence("ast", "(program ...)") +
		fence("bytecode", "PushI32 42\nPrint 1") +
		fence("execute", "42") +
		fence("compile-error", "none")

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)

	tc := testCases[0]
	be.Equal(t, tc.Input, program)
	be.Equal(t, tc.InputType, InputTypeWaddleProgram)
	be.Equal(t, tc.Line, 3)

	var types []AssertionType
	for _, a := range tc.Assertions {
		types = append(types, a.Type)
	}
	be.Equal(t, types, []AssertionType{
		AssertionTypeAST, AssertionTypeBytecode, AssertionTypeExecute, AssertionTypeCompileError,
	})
	be.Equal(t, tc.Assertions[1].Content, "PushI32 42\nPrint 1")
	be.True(t, tc.Assertions[1].ParsedSexy == nil)
	be.True(t, tc.Assertions[0].ParsedSexy != nil)
}

func TestExtractTestCases_NoTestCases(t *testing.T) {
	testCases, err := ExtractTestCases("# Some document\n\n" + fence("", "plain code") + "\n## Regular heading\n")
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)

	testCases, err = ExtractTestCases("")
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

func TestExtractTestCases_AllowFencesWithoutLanguage(t *testing.T) {
	markdown := fence("", "outside") +
		"## Test: valid test\n" +
		fence("waddle-expr", "1 + 2") +
		fence("ast", `(binary "+" 1 2)`) +
		fence("", "inside")

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)
	be.Equal(t, len(testCases[0].Assertions), 1)
}

func TestExtractTestCases_Errors(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		message  string
	}{
		{
			"input fence outside test",
			"# Document\n\n" + fence("waddle-expr", "1 + 2"),
			"line 4: waddle-expr fence found outside of test case",
		},
		{
			"assertion fence outside test",
			"# Document\n\n" + fence("execute", "3"),
			"execute fence found outside of test case",
		},
		{
			"unknown fence outside test",
			fence("go", "func main() {}"),
			"unknown fence language 'go' found outside of test case",
		},
		{
			"unknown fence in test",
			"## Test: t\n" + fence("waddle-expr", "1") + fence("python", "print()"),
			"unknown fence language 'python' in test 't'",
		},
		{
			"missing input",
			"## Test: no input\n" + fence("ast", "(integer 1)"),
			"test 'no input' has no input fence",
		},
		{
			"missing assertion",
			"## Test: no assertions\n" + fence("waddle-expr", "1"),
			"test 'no assertions' has no assertion fences",
		},
		{
			"multiple inputs",
			"## Test: twice\n" + fence("waddle-expr", "1") + fence("waddle-expr", "2"),
			"multiple input fences found in test 'twice'",
		},
		{
			"invalid pattern",
			"## Test: bad\n" + fence("waddle-expr", "1") + fence("ast", "(unclosed list"),
			"failed to parse Sexy assertion in test 'bad'",
		},
		{
			"error in second test",
			"## Test: first\n" + fence("waddle-expr", "1") + fence("ast", "(integer 1)") +
				"## Test: second\n" + fence("ast", "(integer 2)"),
			"test 'second' has no input fence",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractTestCases(tt.markdown)
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), tt.message))
		})
	}
}
