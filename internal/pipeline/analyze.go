package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/olehluchkiv/ifacegen/internal/analyzer"
	"github.com/olehluchkiv/ifacegen/internal/decl"
	"github.com/olehluchkiv/ifacegen/internal/manifest"
	"github.com/olehluchkiv/ifacegen/internal/source"
)

// Input formats.
const (
	FormatAuto     = ""
	FormatManifest = "manifest"
	FormatGo       = "go"
)

var ErrUnknownFormat = errors.New("unknown input format")

// Input says where declarations come from and how to parse them.
type Input struct {
	Path          string    // file, directory, GitHub URL, or source.Stdin
	Format        string    // FormatAuto picks Go for directories holding go.mod
	Stdin         io.Reader // read when Path is source.Stdin; defaults to os.Stdin
	Patterns      []string  // Go package patterns
	IncludeStdlib bool      // follow embeds into standard library interfaces
}

// Load resolves the input and returns its sources together with a cleanup
// function that must be called once the sources have been consumed.
func Load(ctx context.Context, in Input, logger *slog.Logger) (iter.Seq2[decl.Source, error], func(), error) {
	logger = logger.With("component", "load")
	noop := func() {}

	if in.Path == source.Stdin {
		if in.Format == FormatGo {
			return nil, noop, fmt.Errorf("%w: go input cannot be read from stdin", ErrUnknownFormat)
		}
		r := in.Stdin
		if r == nil {
			r = os.Stdin
		}
		logger.Info("reading manifest from stdin")
		return func(yield func(decl.Source, error) bool) {
			yield(manifest.Parse("", r))
		}, noop, nil
	}

	logger.Info("resolving input", "input", in.Path)
	path, cleanup, err := source.Resolve(ctx, in.Path, logger)
	if err != nil {
		return nil, noop, fmt.Errorf("resolve: %w", err)
	}

	format, err := detectFormat(path, in.Format)
	if err != nil {
		cleanup()
		return nil, noop, err
	}

	switch format {
	case FormatManifest:
		logger.Info("loading manifests", "path", path)
		return manifest.Sources(source.Files(path, manifest.Extensions...)), cleanup, nil
	default:
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			path = filepath.Dir(path)
		}
		if source.IsRemote(in.Path) {
			root, err := source.ModuleRoot(path)
			if err != nil {
				cleanup()
				return nil, noop, fmt.Errorf("module root: %w", err)
			}
			source.PrepareModule(ctx, root, logger)
			path = root
		}
		logger.Info("analyzing packages", "dir", path)
		srcs, err := analyzer.Analyze(ctx, path, analyzer.Options{
			Patterns:      in.Patterns,
			IncludeStdlib: in.IncludeStdlib,
		}, logger)
		if err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("analyze: %w", err)
		}
		return func(yield func(decl.Source, error) bool) {
			for _, src := range srcs {
				if !yield(src, nil) {
					return
				}
			}
		}, cleanup, nil
	}
}

// RunAnalysis executes the full resolve → load → merge → disambiguate
// pipeline.
func RunAnalysis(ctx context.Context, in Input, cfg Config, logger *slog.Logger) (*Output, error) {
	sources, cleanup, err := Load(ctx, in, logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return Run(ctx, sources, cfg, logger)
}

func detectFormat(path, format string) (string, error) {
	switch format {
	case FormatManifest, FormatGo:
		return format, nil
	case FormatAuto:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		if slices.Contains(manifest.Extensions, filepath.Ext(path)) {
			return FormatManifest, nil
		}
		return FormatGo, nil
	}
	if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
		return FormatGo, nil
	}
	return FormatManifest, nil
}
