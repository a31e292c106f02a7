// Package pipeline drives a batch of declarations through merging,
// output filtering, and overload disambiguation.
package pipeline

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/olehluchkiv/ifacegen/internal/decl"
	"github.com/olehluchkiv/ifacegen/internal/dedupe"
	"github.com/olehluchkiv/ifacegen/internal/merge"
)

// Config holds the options that shape the merged output.
type Config struct {
	MarkerBase        string
	Flat              bool     // no inheritance merging
	CopyImports       bool     // keep the imports of the declaring sources
	AdditionalImports []string // added to every emitted interface
	Exclude           []string // keys omitted from the output; still usable as ancestors
	OnlyPublic        bool
	Workers           int // concurrent disambiguation limit; <= 0 means GOMAXPROCS
}

// Entry is one emitted interface and the identifiers of its members.
type Entry struct {
	Interface decl.Interface
	Names     *dedupe.NameMap
}

// Output is the result of a pipeline run.
type Output struct {
	Entries      []Entry
	EmptyOrigins []string
	Replaced     []merge.Replacement
}

// Run merges sources and disambiguates every emitted interface. Sources
// are pulled lazily; the first load error or a cancelled ctx stops the
// batch and no partial output is returned.
func Run(ctx context.Context, sources iter.Seq2[decl.Source, error], cfg Config, logger *slog.Logger) (*Output, error) {
	logger = logger.With("component", "pipeline")

	var loadErr error
	pulled := func(yield func(decl.Source) bool) {
		for src, err := range sources {
			if err != nil {
				loadErr = err
				return
			}
			if err := ctx.Err(); err != nil {
				loadErr = err
				return
			}
			if !yield(src) {
				return
			}
		}
	}

	res, err := merge.Resolve(pulled, merge.Options{
		MarkerBase: cfg.MarkerBase,
		Flat:       cfg.Flat,
		Logger:     logger,
	})
	if loadErr != nil {
		return nil, fmt.Errorf("load: %w", loadErr)
	}
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	out := &Output{
		EmptyOrigins: res.EmptyOrigins,
		Replaced:     res.Replaced,
	}
	for _, iface := range res.Interfaces {
		if !cfg.emits(iface) {
			logger.Debug("interface filtered from output", "key", iface.Key)
			continue
		}
		if !cfg.CopyImports {
			iface.Imports = nil
		}
		iface.Imports = decl.UnionImports(iface.Imports, cfg.AdditionalImports)
		out.Entries = append(out.Entries, Entry{Interface: iface})
	}

	if err := assignNames(ctx, out.Entries, cfg.Workers); err != nil {
		return nil, fmt.Errorf("disambiguate: %w", err)
	}

	logger.Info("pipeline complete",
		"interfaces", len(out.Entries),
		"filtered", len(res.Interfaces)-len(out.Entries),
		"empty_sources", len(out.EmptyOrigins),
		"replaced", len(out.Replaced))
	return out, nil
}

func (c Config) emits(iface decl.Interface) bool {
	if c.OnlyPublic && !iface.Public {
		return false
	}
	return !slices.Contains(c.Exclude, iface.Key)
}

// assignNames fills Names for every entry. Each goroutine writes only its
// own slot.
func assignNames(ctx context.Context, entries []Entry, workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries[i].Names = dedupe.Assign(entries[i].Interface.Members)
			return nil
		})
	}
	return g.Wait()
}
