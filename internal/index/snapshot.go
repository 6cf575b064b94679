package index

import (
	"encoding/json"
	"fmt"
	"os"

	"codechunk/internal/chunk"
	"codechunk/internal/graph"
)

// SnapshotVersion tags the serialized schema so loaders can reject
// incompatible documents.
const SnapshotVersion = "1"

// Snapshot is the persisted form of one chunking run: every chunk, every
// relationship, every diagnostic and every unresolved reference, with
// totals matching the slices. Loading a snapshot reproduces the index
// exactly.
type Snapshot struct {
	Version            string               `json:"version"`
	Root               string               `json:"root,omitempty"`
	Commit             string               `json:"commit,omitempty"`
	Chunks             []chunk.Chunk        `json:"chunks"`
	Relationships      []chunk.Relationship `json:"relationships"`
	Diagnostics        []chunk.Diagnostic   `json:"diagnostics,omitempty"`
	Unresolved         []graph.Unresolved   `json:"unresolved,omitempty"`
	TotalChunks        int                  `json:"total_chunks"`
	TotalRelationships int                  `json:"total_relationships"`
}

// Snapshot renders the index as its persisted document.
func (idx *Index) Snapshot() Snapshot {
	return Snapshot{
		Version:            SnapshotVersion,
		Root:               idx.root,
		Commit:             idx.commit,
		Chunks:             idx.Chunks(),
		Relationships:      idx.Relationships(),
		Diagnostics:        idx.Diagnostics(),
		Unresolved:         idx.Unresolved(),
		TotalChunks:        len(idx.chunks),
		TotalRelationships: len(idx.rels),
	}
}

// FromSnapshot rebuilds the in-memory index, including the lookup tables
// that are not serialized.
func FromSnapshot(snap Snapshot) (*Index, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %q, want %q", snap.Version, SnapshotVersion)
	}
	return newIndex(snap.Root, snap.Commit, snap.Chunks, snap.Relationships, snap.Diagnostics, snap.Unresolved)
}

// Save persists the index to a JSON file.
func (idx *Index) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(idx.Snapshot()); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot file written by Save.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return FromSnapshot(snap)
}
