package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/olehluchkiv/ifacegen/internal/diagram"
	"github.com/olehluchkiv/ifacegen/internal/logging"
	"github.com/olehluchkiv/ifacegen/internal/merge"
	"github.com/olehluchkiv/ifacegen/internal/pipeline"
	"github.com/olehluchkiv/ifacegen/internal/report"
)

// options collects everything the command line decides.
type options struct {
	input        pipeline.Input
	config       pipeline.Config
	output       string
	reportFormat string
	diagram      string
}

func main() {
	// An optional .env supplies IFACEGEN_* defaults; real env wins.
	_ = godotenv.Load()

	// Use a custom FlagSet so we can parse all args regardless of position.
	// Go's default flag.Parse stops at the first non-flag argument, which
	// breaks "ifacegen ./manifests -output report.yaml". We reorder args so
	// flags come first, then positional args.
	flags, positional := reorderArgs(os.Args[1:])

	fs := flag.NewFlagSet("ifacegen", flag.ExitOnError)
	pathFlag := fs.String("path", "", "file, directory, GitHub URL or - for stdin (alternative to positional argument)")
	format := fs.String("format", pipeline.FormatAuto, "input format: manifest or go (default: detect)")
	markerBase := fs.String("marker-base", envOr("IFACEGEN_MARKER_BASE", merge.DefaultMarkerBase), "base protocol propagated to descendants; empty disables")
	imports := fs.String("imports", "", "comma-separated imports added to every interface")
	exclude := fs.String("exclude", "", "comma-separated interface keys to omit from output")
	onlyPublic := fs.Bool("only-public", false, "emit only public interfaces")
	noInherit := fs.Bool("no-inherit", false, "do not merge inherited members")
	copyImports := fs.Bool("copy-imports", false, "keep the imports of the declaring sources")
	includeStdlib := fs.Bool("include-stdlib", false, "follow embedded standard library interfaces (go input)")
	output := fs.String("output", "", "write the report to file instead of stdout")
	reportFormat := fs.String("report-format", report.FormatYAML, "report format (yaml, json)")
	diagramFile := fs.String("diagram", "", "also write a Mermaid class diagram to file")
	logFile := fs.String("log-file", envOr("IFACEGEN_LOG_FILE", ""), "log file path")
	logLevel := fs.String("log-level", envOr("IFACEGEN_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	workers := fs.Int("workers", envInt("IFACEGEN_WORKERS", 0), "concurrent disambiguation workers (0 = GOMAXPROCS)")

	if err := fs.Parse(flags); err != nil {
		os.Exit(1)
	}
	// Collect any remaining args from flag parsing + our positional args
	positional = append(positional, fs.Args()...)

	// Determine input: positional argument takes precedence, then -path flag
	input := ""
	if len(positional) > 0 {
		input = positional[0]
	}
	if input == "" {
		input = *pathFlag
	}
	if input == "" {
		fmt.Fprintln(os.Stderr, "Usage: ifacegen [flags] <path-or-url>")
		fs.PrintDefaults()
		os.Exit(1)
	}

	// Parse log level
	level, err := parseLogLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", *logLevel, err)
		os.Exit(1)
	}

	// Setup logging
	logger, logCleanup, err := logging.Setup(*logFile, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logging: %v\n", err)
		os.Exit(1)
	}
	defer logCleanup()

	// Setup signal handling with context cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	opts := options{
		input: pipeline.Input{
			Path:          input,
			Format:        *format,
			IncludeStdlib: *includeStdlib,
		},
		config: pipeline.Config{
			MarkerBase:        *markerBase,
			Flat:              *noInherit,
			CopyImports:       *copyImports,
			AdditionalImports: splitList(*imports),
			Exclude:           splitList(*exclude),
			OnlyPublic:        *onlyPublic,
			Workers:           *workers,
		},
		output:       *output,
		reportFormat: *reportFormat,
		diagram:      *diagramFile,
	}

	if err := run(ctx, opts, os.Stdout, logger); err != nil {
		logger.Error("ifacegen failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		logCleanup()
		os.Exit(1)
	}
}

// run executes the pipeline and writes the report (to stdout unless an
// output file is set) and the optional diagram.
func run(ctx context.Context, opts options, stdout io.Writer, logger *slog.Logger) error {
	out, err := pipeline.RunAnalysis(ctx, opts.input, opts.config, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Resolved %d interfaces (%d empty sources, %d replaced)\n",
		len(out.Entries), len(out.EmptyOrigins), len(out.Replaced))

	w := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", opts.output, err)
		}
		defer f.Close()
		w = f
	}
	if err := report.Write(w, out, opts.reportFormat); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if opts.output != "" {
		fmt.Fprintf(os.Stderr, "Wrote report to %s\n", opts.output)
	}

	if opts.diagram != "" {
		diagramOpts := diagram.DefaultDiagramOptions()
		// File output: include %%{init:}%% for standalone .mmd rendering
		diagramOpts.IncludeInit = true
		content := diagram.GenerateMermaid(out, diagramOpts)
		if err := os.WriteFile(opts.diagram, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing diagram: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote diagram to %s\n", opts.diagram)
	}
	return nil
}

// reorderArgs separates flags and positional arguments so flags can appear
// in any position (before or after the positional path argument).
// Flags that take a value (e.g., -output file.yaml) consume the next arg.
func reorderArgs(args []string) (flags, positional []string) {
	// Set of flags that take a value argument
	valueFlagSet := map[string]bool{
		"-path": true, "-format": true, "-marker-base": true,
		"-imports": true, "-exclude": true, "-output": true,
		"-report-format": true, "-diagram": true, "-log-file": true,
		"-log-level": true, "-workers": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		// A lone "-" is the stdin input, not a flag.
		if strings.HasPrefix(arg, "-") && arg != "-" {
			flags = append(flags, arg)
			// Check if this flag takes a value (and it's not using = syntax)
			if !strings.Contains(arg, "=") && valueFlagSet[strings.Replace(arg, "--", "-", 1)] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return flags, positional
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s (valid: debug, info, warn, error)", s)
	}
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envOr returns the variable's value when it is set, even if empty.
func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return n
}
