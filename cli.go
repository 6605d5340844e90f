package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"

	"github.com/waddlelang/waddle/bytecode"
	"github.com/waddlelang/waddle/compiler"
	"github.com/waddlelang/waddle/vm"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `Waddle - A small language compiled to stack machine bytecode

Usage:
    waddle <command> [arguments]

Commands:
    run <file>      Compile and execute a .wad or .wbc file
    build <file>    Compile a .wad file to bytecode
    eval <expr>     Evaluate an integer expression
    check <files>   Parse and type-check .wad files
    disasm <file>   Print a bytecode listing
    help            Show this help message

Examples:
    waddle run examples/fact.wad
    waddle build -o program.wbc hello.wad
    waddle eval '6 * (3 + 4)'
    waddle check a.wad b.wad

Use "waddle <command> -h" for more information about a command.
The default trace level is read from $WADDLE_TRACE.
`)
}

// newFlagSet creates the flag set for a command, registering the -trace
// flag every command shares.
func newFlagSet(name, usage, summary string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	trace := fs.String("trace", defaultTraceLevel(), "Trace level (Error, Info or Debug)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: waddle %s %s\n", name, usage)
		fmt.Fprintf(os.Stderr, "%s\n\n", summary)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	return fs, trace
}

func parseFlags(fs *flag.FlagSet, trace *string, args []string) {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if err := setupTracing(*trace); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func expectOneFile(fs *flag.FlagSet) string {
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runCommand(args []string) {
	fs, trace := newFlagSet("run", "[flags] <file>", "Compile and execute a .wad or .wbc file")
	entry := fs.String("entry", "", "Name of the entry point function (default \"main\")")
	stackSize := fs.Int("stack", vm.DefaultStackSize, "Runtime stack capacity")
	maxSteps := fs.Int("max-steps", 0, "Abort after this many instructions (0 means no limit)")
	cachePath := fs.String("cache", "", "SQLite database caching compiled bytecode")
	verbose := fs.Bool("v", false, "Show verbose execution details")
	parseFlags(fs, trace, args)
	filename := expectOneFile(fs)

	if *verbose {
		fmt.Printf("Compiling %s...\n", filename)
	}
	p, source, err := loadProgram(context.Background(), filename, loadOptions{
		entry:     *entry,
		cachePath: *cachePath,
	})
	if err != nil {
		report(filename, source, err)
		os.Exit(1)
	}

	opts := compiler.Options{StackSize: *stackSize, MaxSteps: *maxSteps, Out: os.Stdout}
	result, err := compiler.Run(p, opts)
	if *verbose {
		fmt.Printf("Executed %s instructions\n", humanize.Comma(int64(result.Steps)))
	}
	if err != nil {
		report(filename, source, err)
		os.Exit(1)
	}
	if len(p.Functions) > 0 && p.Functions[0].Returns && result.HasValue {
		fmt.Println(result.Value)
	}
}

func buildCommand(args []string) {
	fs, trace := newFlagSet("build", "[-o output] <file>", "Compile a .wad file to bytecode")
	output := fs.String("o", "", "Output file (default: input name with .wbc extension)")
	entry := fs.String("entry", "", "Name of the entry point function (default \"main\")")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	parseFlags(fs, trace, args)
	filename := expectOneFile(fs)

	outputFile := *output
	if outputFile == "" {
		outputFile = strings.TrimSuffix(filename, filepath.Ext(filename)) + BytecodeExt
	}

	source, err := readSource(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}
	unit, err := compiler.Compile(source, compiler.Options{EntryPoint: *entry})
	if err != nil {
		report(filename, source, err)
		os.Exit(1)
	}

	data := bytecode.Encode(unit.Bytecode)
	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		fmt.Printf("Functions: %d, instructions: %d, strings: %d\n",
			len(unit.Bytecode.Functions), len(unit.Bytecode.Code), len(unit.Bytecode.Strings))
	}
	fmt.Printf("Built %s (%s)\n", outputFile, humanize.Bytes(uint64(len(data))))
}

func evalCommand(args []string) {
	fs, trace := newFlagSet("eval", "<expr>", "Evaluate an integer expression")
	stackSize := fs.Int("stack", vm.DefaultStackSize, "Runtime stack capacity")
	maxSteps := fs.Int("max-steps", 0, "Abort after this many instructions (0 means no limit)")
	parseFlags(fs, trace, args)

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected an expression argument\n")
		fs.Usage()
		os.Exit(1)
	}
	expr := strings.Join(fs.Args(), " ")

	result, err := compiler.Eval(expr, compiler.Options{
		StackSize: *stackSize,
		MaxSteps:  *maxSteps,
		Out:       os.Stdout,
	})
	if err != nil {
		report("<eval>", compiler.EvalSource(expr), err)
		os.Exit(1)
	}
	fmt.Println(result.Value)
}

func checkCommand(args []string) {
	fs, trace := newFlagSet("check", "[-v] <file>...", "Parse and type-check .wad files")
	entry := fs.String("entry", "", "Name of the entry point function (default \"main\")")
	verbose := fs.Bool("v", false, "Dump the symbol table of every file")
	parseFlags(fs, trace, args)

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	sources := make([]compiler.Source, 0, fs.NArg())
	for _, filename := range fs.Args() {
		text, err := readSource(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
			os.Exit(1)
		}
		sources = append(sources, compiler.Source{Name: filename, Text: text})
	}

	units, err := compiler.CompileAll(context.Background(), sources, compiler.Options{EntryPoint: *entry})
	if err != nil {
		// CompileAll prefixes the error with the name of the failing source.
		for _, src := range sources {
			if strings.HasPrefix(err.Error(), src.Name+": ") {
				report(src.Name, src.Text, err)
				os.Exit(1)
			}
		}
		fmt.Fprintf(os.Stderr, "Check failed: %v\n", err)
		os.Exit(1)
	}

	for _, unit := range units {
		fmt.Printf("%s: ok\n", unit.Name)
		if *verbose {
			for _, name := range unit.Symbols.Names() {
				pretty.Println(unit.Symbols[name])
			}
		}
	}
}

func disasmCommand(args []string) {
	fs, trace := newFlagSet("disasm", "<file>", "Print a bytecode listing of a .wbc or .wad file")
	entry := fs.String("entry", "", "Name of the entry point function (default \"main\")")
	parseFlags(fs, trace, args)
	filename := expectOneFile(fs)

	p, source, err := loadProgram(context.Background(), filename, loadOptions{entry: *entry})
	if err != nil {
		report(filename, source, err)
		os.Exit(1)
	}
	fmt.Printf("; %s: %d functions, %d instructions, %s encoded\n", filename,
		len(p.Functions), len(p.Code), humanize.Bytes(uint64(len(bytecode.Encode(p)))))
	if err := bytecode.Disassemble(os.Stdout, p); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run":
		runCommand(args)
	case "build":
		buildCommand(args)
	case "eval":
		evalCommand(args)
	case "check":
		checkCommand(args)
	case "disasm":
		disasmCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
