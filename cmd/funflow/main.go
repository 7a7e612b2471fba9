package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/funflow/internal/cache"
	"github.com/funvibe/funflow/internal/config"
	"github.com/funvibe/funflow/internal/library"
	"github.com/funvibe/funflow/internal/pipeline"
	"github.com/funvibe/funflow/internal/prettyprinter"
)

const usage = `Usage: funflow <command> [arguments]

Commands:
  compile <graph.flow.yaml> [-config funflow.yaml] [-v]
        Lower every node of the graph and print the program.
  functions [-config funflow.yaml] [-v]
        List the functions the library provides.
  help
        Show this help.

Without -config, funflow.yaml is searched next to the graph (or the current
directory) and its parents. Set NO_COLOR to disable colored output.
`

// options holds the flags shared by the commands.
type options struct {
	configPath string
	verbose    bool
	args       []string
}

// parseOptions separates -config and -v from positional arguments.
func parseOptions(args []string) (options, error) {
	var opts options
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "-v", "--verbose":
			opts.verbose = true
		case "-config", "--config":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("%s requires a path", arg)
			}
			i++
			opts.configPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return opts, fmt.Errorf("unknown flag %s", arg)
			}
			opts.args = append(opts.args, arg)
		}
	}
	return opts, nil
}

// loadSettings reads the -config file, or the nearest funflow.yaml above
// dir, or falls back to defaults.
func loadSettings(opts options, dir string) (*config.Settings, error) {
	path := opts.configPath
	if path == "" {
		found, err := config.FindSettings(dir)
		if err != nil {
			return nil, err
		}
		if found == "" {
			return config.Default(), nil
		}
		path = found
	}
	return config.Load(path)
}

func newLogger(w io.Writer, s *config.Settings, verbose bool) *slog.Logger {
	level, _ := config.ParseLevel(s.Log.Level)
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// useColor reports whether output to f should be highlighted.
func useColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func handleHelp() bool {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		return true
	}
	if os.Args[1] != "-help" && os.Args[1] != "--help" && os.Args[1] != "help" && os.Args[1] != "-h" {
		return false
	}
	fmt.Print(usage)
	return true
}

func handleCompile() bool {
	if os.Args[1] != "compile" {
		return false
	}

	opts, err := parseOptions(os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if len(opts.args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s compile <graph%s> [-config %s] [-v]\n", os.Args[0], config.GraphFileExt, config.SettingsFileName)
		os.Exit(2)
	}
	graphPath := opts.args[0]

	source, err := os.ReadFile(graphPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading graph: %v\n", err)
		os.Exit(1)
	}

	settings, err := loadSettings(opts, filepath.Dir(graphPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(os.Stderr, settings, opts.verbose)

	ctx := context.Background()
	var store *cache.Store
	if settings.Cache.Path != "" {
		path := settings.Resolve(settings.Cache.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating cache directory: %v\n", err)
			os.Exit(1)
		}
		store, err = cache.Open(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	pc := pipeline.NewPipelineContext(graphPath, source, settings)
	pc.Logger = logger

	result := pipeline.New(
		pipeline.LibraryProcessor{},
		pipeline.LoadProcessor{},
		pipeline.SyncProcessor{},
		pipeline.CompileProcessor{},
		&pipeline.CacheProcessor{Store: store},
	).Run(ctx, pc)

	if result.Failed() {
		fmt.Fprintln(os.Stderr, "Compilation failed with errors:")
		for _, err := range result.Errors {
			fmt.Fprintf(os.Stderr, "- %s\n", err)
		}
		if store != nil {
			store.Close()
		}
		os.Exit(1)
	}

	printer := prettyprinter.NewCodePrinter()
	printer.SetColor(useColor(os.Stdout))
	printer.PrintStatements(result.Result.Statements())
	fmt.Print(printer.String())

	logger.Info("compiled graph",
		"file", graphPath,
		"nodes", len(result.Result.Nodes),
		"changed", len(result.Changed),
		"unresolved", len(result.Workspace.Unresolved()))
	return true
}

func handleFunctions() bool {
	if os.Args[1] != "functions" {
		return false
	}

	opts, err := parseOptions(os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	settings, err := loadSettings(opts, ".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	reg, err := library.Load(context.Background(), settings, newLogger(os.Stderr, settings, opts.verbose))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, fn := range reg.Functions() {
		outputs := fn.ReturnType
		if fn.IsMultiOutput() {
			outputs = "{" + strings.Join(fn.ReturnKeys, ", ") + "}"
		}
		fmt.Printf("  %-40s %-12s %s\n", fn.MangledName(), fn.Kind, outputs)
	}
	return true
}

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if handleHelp() {
		return
	}
	if handleCompile() {
		return
	}
	if handleFunctions() {
		return
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
	fmt.Fprint(os.Stderr, usage)
	os.Exit(2)
}
