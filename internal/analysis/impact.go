package analysis

import (
	"sort"

	"codechunk/internal/chunk"
	"codechunk/internal/git"
	"codechunk/internal/index"
)

// ImpactReport lists the chunks touched by a change set: first the chunks
// whose own lines changed, then every chunk that depends on those through
// imports, extends or references edges.
type ImpactReport struct {
	Direct   []chunk.Chunk
	Indirect []chunk.Chunk
}

// Analyzer answers impact questions against a sealed index.
type Analyzer struct {
	idx *index.Index
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(idx *index.Index) *Analyzer {
	return &Analyzer{idx: idx}
}

// AnalyzeImpact maps changed lines to their innermost owning chunks, then
// follows dependency edges backwards until the affected set stops
// growing. Lines outside every chunk (docstrings, main guards) affect
// nothing.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) *ImpactReport {
	direct := make(map[string]bool)
	for _, change := range changes {
		owners := LineOwners(a.idx, change.Path)
		for _, line := range change.ChangedLines {
			if id, ok := owners[line]; ok {
				direct[id] = true
			}
		}
	}

	report := &ImpactReport{}
	frontier := sortedKeys(direct)
	for _, id := range frontier {
		if c, ok := a.idx.Chunk(id); ok {
			report.Direct = append(report.Direct, c)
		}
	}

	seen := make(map[string]bool, len(direct))
	for id := range direct {
		seen[id] = true
	}
	for len(frontier) > 0 {
		var next []string
		for _, id := range frontier {
			for _, rel := range a.idx.RelationshipsTo(id) {
				if rel.Kind == chunk.RelationContains || seen[rel.Source] {
					continue
				}
				seen[rel.Source] = true
				next = append(next, rel.Source)
			}
		}
		sort.Strings(next)
		for _, id := range next {
			if c, ok := a.idx.Chunk(id); ok {
				report.Indirect = append(report.Indirect, c)
			}
		}
		frontier = next
	}

	return report
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
