package graph

import (
	"fmt"
	"sort"
	"strings"

	"codechunk/internal/chunk"
)

// Registry is the write-once chunk store the resolution pass runs against.
// Every id maps to exactly one chunk; a second Add with the same id is a
// collision and gets rejected rather than silently overwritten.
type Registry struct {
	byID  map[string]chunk.Chunk
	order []string

	// Indexes for resolution: Name -> ids, file path -> ids, type -> ids.
	byName map[string][]string
	byFile map[string][]string
	byType map[chunk.Type][]string
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]chunk.Chunk),
		byName: make(map[string][]string),
		byFile: make(map[string][]string),
		byType: make(map[chunk.Type][]string),
	}
}

// Add registers one chunk and indexes it.
func (r *Registry) Add(c chunk.Chunk) error {
	if c.ID == "" {
		return fmt.Errorf("chunk %q has no id", c.Name)
	}
	if _, exists := r.byID[c.ID]; exists {
		return fmt.Errorf("chunk id collision: %s", c.ID)
	}

	r.byID[c.ID] = c
	r.order = append(r.order, c.ID)
	r.byName[c.Name] = append(r.byName[c.Name], c.ID)
	r.byType[c.Type] = append(r.byType[c.Type], c.ID)
	if c.Location != nil {
		r.byFile[c.Location.Path] = append(r.byFile[c.Location.Path], c.ID)
	}
	return nil
}

func (r *Registry) Get(id string) (chunk.Chunk, bool) {
	c, ok := r.byID[id]
	return c, ok
}

func (r *Registry) Len() int { return len(r.byID) }

// All returns every chunk in insertion order.
func (r *Registry) All() []chunk.Chunk {
	out := make([]chunk.Chunk, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *Registry) ByType(t chunk.Type) []chunk.Chunk {
	return r.collect(r.byType[t])
}

func (r *Registry) ByFile(rel string) []chunk.Chunk {
	return r.collect(r.byFile[rel])
}

// IDsByName returns the ids declared under a name, in insertion order.
func (r *Registry) IDsByName(name string) []string {
	return r.byName[name]
}

// Files lists every file that contributed chunks, sorted.
func (r *Registry) Files() []string {
	files := make([]string, 0, len(r.byFile))
	for f := range r.byFile {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Exposed returns the chunks a module offers to importers: its top-level
// Class and Function chunks. Inner classes carry dotted names and stay
// internal to their file.
func (r *Registry) Exposed(rel string) []chunk.Chunk {
	var out []chunk.Chunk
	for _, c := range r.collect(r.byFile[rel]) {
		if c.Type != chunk.TypeClass && c.Type != chunk.TypeFunction {
			continue
		}
		if strings.Contains(c.Name, ".") {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (r *Registry) collect(ids []string) []chunk.Chunk {
	out := make([]chunk.Chunk, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	return out
}
