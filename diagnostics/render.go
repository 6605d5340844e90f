package diagnostics

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	colorRed   = "\x1b[31m"
	colorBold  = "\x1b[1m"
	colorReset = "\x1b[0m"
)

// ColorEnabled reports whether output written to f should use ANSI colors.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render writes err to w. If err carries a source position, the offending
// line of source is printed with a caret under the column.
func Render(w io.Writer, source string, err error, color bool) {
	var derr Error
	if !errors.As(err, &derr) || !derr.Pos().IsValid() {
		fmt.Fprintf(w, "%s\n", paint(color, colorRed, err.Error()))
		return
	}

	pos := derr.Pos()
	fmt.Fprintf(w, "%s\n", paint(color, colorRed, err.Error()))

	lines := strings.Split(source, "\n")
	if pos.Line > len(lines) {
		return
	}
	line := strings.TrimRight(lines[pos.Line-1], "\r\n\t ")
	fmt.Fprintf(w, "  %s\n", line)

	// Keep tabs so the caret lines up with the source line.
	var pad strings.Builder
	for i, r := range []rune(line) {
		if i >= pos.Column-1 {
			break
		}
		if r == '\t' {
			pad.WriteRune('\t')
		} else {
			pad.WriteRune(' ')
		}
	}
	fmt.Fprintf(w, "  %s%s\n", pad.String(), paint(color, colorBold, "^"))
}

func paint(color bool, code, s string) string {
	if !color {
		return s
	}
	return code + s + colorReset
}
