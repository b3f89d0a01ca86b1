package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/mgomes/tinyscript/tiny"
)

func main() {
	if err := runCLI(os.Args); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "run":
		return runCommand(args[2:])
	case "check":
		return checkCommand(args[2:])
	case "fmt":
		return fmtCommand(args[2:])
	case "analyze":
		return analyzeCommand(args[2:])
	case "repl":
		return runREPL()
	case "lsp":
		return runLSP()
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	format := fs.String("format", "text", "output format for the final bindings: text, json or yaml")
	verbose := fs.Bool("v", false, "log interpreter activity to stderr")
	steps := fs.Int("steps", 0, "maximum evaluation steps (0 = unlimited)")
	recursion := fs.Int("recursion", 0, "maximum call depth (default 1000)")
	isolated := fs.Bool("isolated", false, "start every call with an empty function table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	switch *format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("tiny run: unknown format %q", *format)
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("tiny run: script path required")
	}
	program, err := loadProgram(remaining[0])
	if err != nil {
		return err
	}

	logger := slog.New(slog.DiscardHandler)
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	engine := tiny.NewEngine(tiny.Config{
		StepQuota:      *steps,
		RecursionLimit: *recursion,
		IsolatedCalls:  *isolated,
		Logger:         logger,
	})
	logger.Debug("engine configured", "limits", engine.ConfigSummary())

	bindings, err := engine.Run(context.Background(), program)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	return writeBindings(os.Stdout, bindings, *format)
}

func checkCommand(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("tiny check: script path required")
	}
	_, err := loadProgram(remaining[0])
	return err
}

// loadProgram reads and parses a script file. One trailing newline is
// dropped because the grammar does not allow the program to end with one.
func loadProgram(path string) (*tiny.Program, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve script path: %w", err)
	}
	input, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	source := strings.TrimSuffix(string(input), "\n")
	program, err := tiny.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	return program, nil
}

func writeBindings(w io.Writer, bindings tiny.Bindings, format string) error {
	switch format {
	case "json":
		out := make(map[string]any, len(bindings))
		for name, val := range bindings {
			out[name] = jsonValue(val)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(bindings.Interface()); err != nil {
			return err
		}
		return enc.Close()
	default:
		for _, name := range bindings.Names() {
			if _, err := fmt.Fprintf(w, "%s = %s\n", name, bindings[name].Inspect()); err != nil {
				return err
			}
		}
		return nil
	}
}

// jsonValue is Value.Interface with non-finite numbers rendered as text,
// since JSON has no literal for them.
func jsonValue(val tiny.Value) any {
	switch val.Kind() {
	case tiny.KindArray:
		elems := val.Array()
		out := make([]any, len(elems))
		for i, elem := range elems {
			out[i] = jsonValue(elem)
		}
		return out
	case tiny.KindNumber:
		if n := val.Number(); math.IsNaN(n) || math.IsInf(n, 0) {
			return val.String()
		}
	}
	return val.Interface()
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags] <args>\n", prog)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  run [flags] <script>     execute a script and print its variables")
	fmt.Fprintln(os.Stderr, "  check <script>           parse a script without running it")
	fmt.Fprintln(os.Stderr, "  fmt [-w] [-check] <path> normalise .tiny source files")
	fmt.Fprintln(os.Stderr, "  analyze <script>         report likely mistakes")
	fmt.Fprintln(os.Stderr, "  repl                     start an interactive session")
	fmt.Fprintln(os.Stderr, "  lsp                      serve diagnostics over the language server protocol")
	fmt.Fprintln(os.Stderr, "Run flags:")
	fmt.Fprintln(os.Stderr, "  -format string")
	fmt.Fprintln(os.Stderr, "    text, json or yaml (default \"text\")")
	fmt.Fprintln(os.Stderr, "  -v")
	fmt.Fprintln(os.Stderr, "    log interpreter activity to stderr")
	fmt.Fprintln(os.Stderr, "  -steps int")
	fmt.Fprintln(os.Stderr, "    maximum evaluation steps (0 = unlimited)")
	fmt.Fprintln(os.Stderr, "  -recursion int")
	fmt.Fprintln(os.Stderr, "    maximum call depth (default 1000)")
	fmt.Fprintln(os.Stderr, "  -isolated")
	fmt.Fprintln(os.Stderr, "    start every call with an empty function table")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}
