package index

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"codechunk/internal/chunk"
	"codechunk/internal/crawler"
	"codechunk/internal/extractor"
	"codechunk/internal/graph"
	"codechunk/internal/resolver"
	"codechunk/internal/summary"
)

// Options configure one build.
type Options struct {
	// Root is the directory to scan.
	Root string
	// Ignore holds glob patterns for files and directories to skip.
	Ignore []string
	// Workers bounds concurrent file extraction. Zero means NumCPU.
	Workers int
	// Commit is optional provenance recorded in the snapshot.
	Commit string
}

// Build runs the full pipeline: scan, extract every file in parallel,
// then resolve cross-file references and summarize packages once all
// extraction has finished. Files with syntax errors are skipped and
// reported as diagnostics; I/O failures abort the build.
func Build(ctx context.Context, opts Options) (*Index, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	crawl, err := crawler.NewCrawler(opts.Ignore)
	if err != nil {
		return nil, err
	}
	files, err := crawl.ListSourceFiles(opts.Root)
	if err != nil {
		return nil, err
	}
	log.Info().Str("root", opts.Root).Int("files", len(files)).Msg("scan complete")

	modules := resolver.BuildModuleIndex(files)
	ext := extractor.New(resolver.NewClassifier(modules))

	// Phase one: every file is parsed independently. Results land in
	// per-file slots so the merge order below stays deterministic no
	// matter how the workers are scheduled.
	results := make([]*extractor.FileResult, len(files))
	failures := make([]*chunk.Diagnostic, len(files))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, workers)
	for i, rel := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()
			if err := gctx.Err(); err != nil {
				return err
			}

			src, err := crawl.Load(opts.Root, rel)
			if err != nil {
				return err
			}
			res, err := ext.ExtractFile(gctx, rel, src)
			if err != nil {
				var parseErr *chunk.ParseError
				if errors.As(err, &parseErr) {
					d := parseErr.Diagnostic()
					failures[i] = &d
					log.Warn().Str("file", rel).Int("line", parseErr.Line).Msg("skipping file with syntax errors")
					return nil
				}
				return err
			}
			results[i] = res
			log.Debug().Str("file", rel).Int("chunks", len(res.Chunks)).Msg("extracted file")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	// Phase two: merge in sorted file order, then resolve references
	// against the complete registry.
	registry := graph.NewRegistry()
	var rels []chunk.Relationship
	var facts []extractor.Fact
	var diagnostics []chunk.Diagnostic
	for i := range files {
		if failures[i] != nil {
			diagnostics = append(diagnostics, *failures[i])
			continue
		}
		res := results[i]
		for _, c := range res.Chunks {
			if err := registry.Add(c); err != nil {
				return nil, fmt.Errorf("register %s: %w", res.Path, err)
			}
		}
		rels = append(rels, res.Relationships...)
		facts = append(facts, res.Facts...)
	}

	resolved := graph.NewBuilder(registry, modules).Resolve(facts)
	rels = append(rels, resolved.Edges...)
	if len(resolved.Unresolved) > 0 {
		log.Debug().Interface("reasons", resolved.UnresolvedReasonCounts()).Msg("unresolved references")
	}

	pkgChunks, pkgRels := summary.New(rootName(opts.Root)).Summarize(registry)
	for _, c := range pkgChunks {
		if err := registry.Add(c); err != nil {
			return nil, fmt.Errorf("register package %s: %w", c.Name, err)
		}
	}
	rels = append(rels, pkgRels...)

	sort.Slice(rels, func(i, j int) bool { return rels[i].Key() < rels[j].Key() })

	idx, err := newIndex(opts.Root, opts.Commit, registry.All(), rels, diagnostics, resolved.Unresolved)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("chunks", registry.Len()).
		Int("relationships", len(rels)).
		Int("diagnostics", len(diagnostics)).
		Int("unresolved", len(resolved.Unresolved)).
		Msg("index built")
	return idx, nil
}

// rootName derives the root package name from the scan directory.
func rootName(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "root"
	}
	return filepath.Base(abs)
}
