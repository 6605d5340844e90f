package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/pkg/errors"

	"github.com/waddlelang/waddle/bccache"
	"github.com/waddlelang/waddle/bytecode"
	"github.com/waddlelang/waddle/compiler"
	"github.com/waddlelang/waddle/diagnostics"
	"github.com/waddlelang/waddle/symbols"
)

// BytecodeExt is the file extension of encoded programs.
const BytecodeExt = ".wbc"

// traceEnv names the environment variable holding the default trace level.
const traceEnv = "WADDLE_TRACE"

func defaultTraceLevel() string {
	if level := os.Getenv(traceEnv); level != "" {
		return level
	}
	return "Error"
}

// setupTracing routes the global tracers to stderr at the given level.
func setupTracing(level string) error {
	if err := gtrace.CreateTracers(gologadapter.GetAdapter()); err != nil {
		return err
	}
	l := tracing.TraceLevelFromString(level)
	for _, t := range []tracing.Trace{gtrace.SyntaxTracer, gtrace.CoreTracer, gtrace.InterpreterTracer} {
		t.SetTraceLevel(l)
	}
	return nil
}

// readSource reads a Waddle source file, honouring byte order marks.
func readSource(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return compiler.DecodeSource(data)
}

// loadOptions controls how loadProgram obtains bytecode.
type loadOptions struct {
	entry     string
	cachePath string
}

// loadProgram returns the bytecode for filename together with its source
// text, which is empty for .wbc files. Source files are compiled, going
// through the bytecode cache when one is configured.
func loadProgram(ctx context.Context, filename string, lo loadOptions) (*bytecode.Program, string, error) {
	if strings.EqualFold(filepath.Ext(filename), BytecodeExt) {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, "", err
		}
		p, err := bytecode.Decode(data)
		return p, "", err
	}

	source, err := readSource(filename)
	if err != nil {
		return nil, "", err
	}
	opts := compiler.Options{EntryPoint: lo.entry}
	compile := func() (*bytecode.Program, error) {
		unit, err := compiler.Compile(source, opts)
		if err != nil {
			return nil, err
		}
		return unit.Bytecode, nil
	}
	if lo.cachePath == "" {
		p, err := compile()
		return p, source, err
	}

	cache, err := bccache.Open(lo.cachePath)
	if err != nil {
		return nil, source, errors.Wrap(err, "opening cache")
	}
	defer cache.Close()
	entry := lo.entry
	if entry == "" {
		entry = symbols.EntryPointName
	}
	p, hit, err := cache.Load(ctx, source, entry, compile)
	if hit {
		gtrace.CoreTracer.Infof("using cached bytecode for %s", filename)
	}
	return p, source, err
}

// report prints err to stderr, pointing into source when the error
// carries a position.
func report(filename, source string, err error) {
	os.Stderr.WriteString(filename + ": ")
	diagnostics.Render(os.Stderr, source, errors.Cause(err), diagnostics.ColorEnabled(os.Stderr))
}
