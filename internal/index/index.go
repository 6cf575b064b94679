package index

import (
	"fmt"

	"codechunk/internal/chunk"
	"codechunk/internal/graph"
)

// Index is the sealed result of one chunking run: every chunk, every
// resolved relationship and the run's diagnostics, with lookup tables
// built once. All methods are read-only and safe for concurrent use.
type Index struct {
	root   string
	commit string

	chunks    []chunk.Chunk
	byID      map[string]int
	byType    map[chunk.Type][]int
	byFile    map[string][]int
	byName    map[string][]int
	byPackage map[string][]int

	rels     []chunk.Relationship
	bySource map[string][]int
	byTarget map[string][]int

	diagnostics []chunk.Diagnostic
	unresolved  []graph.Unresolved
}

// Stats summarizes one index for status output.
type Stats struct {
	Files         int                `json:"files"`
	Chunks        int                `json:"chunks"`
	ChunksByType  map[chunk.Type]int `json:"chunks_by_type"`
	Relationships int                `json:"relationships"`
	Diagnostics   int                `json:"diagnostics"`
	Unresolved    int                `json:"unresolved"`
}

func newIndex(root, commit string, chunks []chunk.Chunk, rels []chunk.Relationship, diags []chunk.Diagnostic, unresolved []graph.Unresolved) (*Index, error) {
	idx := &Index{
		root:        root,
		commit:      commit,
		chunks:      chunks,
		byID:        make(map[string]int, len(chunks)),
		byType:      make(map[chunk.Type][]int),
		byFile:      make(map[string][]int),
		byName:      make(map[string][]int),
		byPackage:   make(map[string][]int),
		rels:        rels,
		bySource:    make(map[string][]int),
		byTarget:    make(map[string][]int),
		diagnostics: diags,
		unresolved:  unresolved,
	}

	for i, c := range chunks {
		if _, dup := idx.byID[c.ID]; dup {
			return nil, fmt.Errorf("chunk id collision: %s", c.ID)
		}
		idx.byID[c.ID] = i
		idx.byType[c.Type] = append(idx.byType[c.Type], i)
		idx.byName[c.Name] = append(idx.byName[c.Name], i)
		if qualified := c.Qualified(); qualified != c.Name {
			idx.byName[qualified] = append(idx.byName[qualified], i)
		}
		if c.Location != nil {
			idx.byFile[c.Location.Path] = append(idx.byFile[c.Location.Path], i)
		}
	}

	for i, rel := range rels {
		idx.bySource[rel.Source] = append(idx.bySource[rel.Source], i)
		idx.byTarget[rel.Target] = append(idx.byTarget[rel.Target], i)
		if rel.Kind != chunk.RelationContains {
			continue
		}
		si, ok := idx.byID[rel.Source]
		if !ok || chunks[si].Type != chunk.TypePackage {
			continue
		}
		if ti, ok := idx.byID[rel.Target]; ok {
			name := chunks[si].Name
			idx.byPackage[name] = append(idx.byPackage[name], ti)
		}
	}

	return idx, nil
}

// Root returns the scan root the index was built from.
func (idx *Index) Root() string { return idx.root }

// Commit returns the VCS commit recorded at build time, if any.
func (idx *Index) Commit() string { return idx.commit }

// Chunk looks up one chunk by its id.
func (idx *Index) Chunk(id string) (chunk.Chunk, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return chunk.Chunk{}, false
	}
	return idx.chunks[i], true
}

// Chunks returns every chunk in canonical order: file chunks in sorted
// file order, then package chunks in sorted directory order.
func (idx *Index) Chunks() []chunk.Chunk {
	out := make([]chunk.Chunk, len(idx.chunks))
	copy(out, idx.chunks)
	return out
}

// ChunksByType returns every chunk of one kind, in canonical order.
func (idx *Index) ChunksByType(t chunk.Type) []chunk.Chunk {
	return idx.collect(idx.byType[t])
}

// ChunksByFile returns every chunk extracted from one file. Package
// chunks carry no location and never appear here.
func (idx *Index) ChunksByFile(rel string) []chunk.Chunk {
	return idx.collect(idx.byFile[rel])
}

// ChunksByName returns every chunk whose plain or qualified name matches.
// Methods answer to both "save" and "Product.save".
func (idx *Index) ChunksByName(name string) []chunk.Chunk {
	return idx.collect(idx.byName[name])
}

// ChunksByPackage returns the chunks directly contained by the named
// package: its file-level chunks and its immediate subpackages.
func (idx *Index) ChunksByPackage(name string) []chunk.Chunk {
	return idx.collect(idx.byPackage[name])
}

// Relationships returns every edge, sorted by source, target and kind.
func (idx *Index) Relationships() []chunk.Relationship {
	out := make([]chunk.Relationship, len(idx.rels))
	copy(out, idx.rels)
	return out
}

// RelationshipsFrom returns the edges leaving one chunk.
func (idx *Index) RelationshipsFrom(id string) []chunk.Relationship {
	return idx.collectRels(idx.bySource[id])
}

// RelationshipsTo returns the edges arriving at one chunk.
func (idx *Index) RelationshipsTo(id string) []chunk.Relationship {
	return idx.collectRels(idx.byTarget[id])
}

// Diagnostics returns the per-file parse failures recorded during the
// build. Files listed here contributed no chunks.
func (idx *Index) Diagnostics() []chunk.Diagnostic {
	out := make([]chunk.Diagnostic, len(idx.diagnostics))
	copy(out, idx.diagnostics)
	return out
}

// Unresolved returns the references that could not be bound to a chunk,
// with the reason each was left out.
func (idx *Index) Unresolved() []graph.Unresolved {
	out := make([]graph.Unresolved, len(idx.unresolved))
	copy(out, idx.unresolved)
	return out
}

// Files returns the indexed files in sorted order.
func (idx *Index) Files() []string {
	seen := make(map[string]bool, len(idx.byFile))
	var out []string
	for _, c := range idx.chunks {
		if c.Location != nil && !seen[c.Location.Path] {
			seen[c.Location.Path] = true
			out = append(out, c.Location.Path)
		}
	}
	return out
}

// Stats tallies the index contents.
func (idx *Index) Stats() Stats {
	byType := make(map[chunk.Type]int, len(idx.byType))
	for t, ids := range idx.byType {
		byType[t] = len(ids)
	}
	return Stats{
		Files:         len(idx.byFile),
		Chunks:        len(idx.chunks),
		ChunksByType:  byType,
		Relationships: len(idx.rels),
		Diagnostics:   len(idx.diagnostics),
		Unresolved:    len(idx.unresolved),
	}
}

func (idx *Index) collect(ids []int) []chunk.Chunk {
	if len(ids) == 0 {
		return nil
	}
	out := make([]chunk.Chunk, 0, len(ids))
	for _, i := range ids {
		out = append(out, idx.chunks[i])
	}
	return out
}

func (idx *Index) collectRels(ids []int) []chunk.Relationship {
	if len(ids) == 0 {
		return nil
	}
	out := make([]chunk.Relationship, 0, len(ids))
	for _, i := range ids {
		out = append(out, idx.rels[i])
	}
	return out
}
