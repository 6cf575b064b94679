package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codechunk/internal/chunk"
	"codechunk/internal/index"
)

// fixtureIndex wires a small chain: i1 imports f1, f1 calls f2, f2 calls
// f3, f3 calls f4. f5 sits apart.
func fixtureIndex(t *testing.T) *index.Index {
	t.Helper()

	fn := func(id, name, file string) chunk.Chunk {
		return chunk.Chunk{
			ID:       id,
			Type:     chunk.TypeFunction,
			Name:     name,
			Content:  "def " + name + "():\n    pass",
			Location: &chunk.Location{Path: file, StartLine: 1, EndLine: 2},
			Metadata: chunk.FunctionMeta{},
		}
	}
	ref := func(from, to string, confidence float64) chunk.Relationship {
		return chunk.Relationship{Source: from, Target: to, Kind: chunk.RelationReferences, Confidence: confidence}
	}

	idx, err := index.FromSnapshot(index.Snapshot{
		Version: index.SnapshotVersion,
		Chunks: []chunk.Chunk{
			fn("f1", "a", "x.py"),
			fn("f2", "b", "x.py"),
			fn("f3", "c", "y.py"),
			fn("f4", "d", "y.py"),
			fn("f5", "e", "z.py"),
			{ID: "i1", Type: chunk.TypeImports, Name: "module_imports", Location: &chunk.Location{Path: "w.py", StartLine: 1, EndLine: 1}, Metadata: chunk.ImportsMeta{}},
		},
		Relationships: []chunk.Relationship{
			ref("f1", "f2", 0.8),
			ref("f2", "f3", 0.5),
			ref("f3", "f4", 0.9),
			{Source: "i1", Target: "f1", Kind: chunk.RelationImports, Confidence: 0.9},
		},
	})
	require.NoError(t, err)
	return idx
}

func TestNeighborhood(t *testing.T) {
	idx := fixtureIndex(t)

	t.Run("Hop Limit", func(t *testing.T) {
		sub := Neighborhood(idx, []string{"f1"}, DefaultConfig())

		assert.Equal(t, []string{"f1"}, sub.SeedIDs)
		assert.Equal(t, []string{"f1", "f2", "f3", "i1"}, sub.NodeIDs, "f4 is three hops out, f5 unreachable")
		assert.Len(t, sub.Edges, 3)

		assert.Equal(t, 1.0, sub.NodeScores["f1"])
		assert.InDelta(t, 0.8, sub.NodeScores["f2"], 0.001)
		assert.InDelta(t, 0.4, sub.NodeScores["f3"], 0.001, "scores decay along the path")
		assert.InDelta(t, 0.9, sub.NodeScores["i1"], 0.001)
	})

	t.Run("Confidence Floor", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MinConfidence = 0.6

		sub := Neighborhood(idx, []string{"f1"}, cfg)
		assert.Equal(t, []string{"f1", "f2", "i1"}, sub.NodeIDs, "the 0.5 edge is cut")
	})

	t.Run("Kind Filter", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AllowedKinds = map[chunk.RelationKind]bool{chunk.RelationReferences: true}

		sub := Neighborhood(idx, []string{"f1"}, cfg)
		assert.Equal(t, []string{"f1", "f2", "f3"}, sub.NodeIDs, "imports edges are off")
	})

	t.Run("Edges Walk Both Ways", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxHops = 1

		sub := Neighborhood(idx, []string{"f3"}, cfg)
		assert.Equal(t, []string{"f2", "f3", "f4"}, sub.NodeIDs)
	})

	t.Run("Unknown Seeds Dropped", func(t *testing.T) {
		sub := Neighborhood(idx, []string{"ghost"}, DefaultConfig())
		assert.Empty(t, sub.SeedIDs)
		assert.Empty(t, sub.NodeIDs)
	})
}

func TestSubgraph_RankedChunks(t *testing.T) {
	idx := fixtureIndex(t)
	cfg := DefaultConfig()
	cfg.MaxHops = 1

	sub := Neighborhood(idx, []string{"f2"}, cfg)
	ranked := sub.RankedChunks(idx)

	require.Len(t, ranked, 3)
	assert.Equal(t, "f2", ranked[0].ID, "seed first")
	assert.Equal(t, "f1", ranked[1].ID, "then strongest neighbor")
	assert.Equal(t, "f3", ranked[2].ID)
}

func TestSubgraph_ContextText(t *testing.T) {
	idx := fixtureIndex(t)

	sub := Neighborhood(idx, []string{"f1"}, DefaultConfig())
	text := sub.ContextText(idx)

	assert.Contains(t, text, "Symbol: a (function) in x.py")
	assert.Contains(t, text, "def a():")
	assert.Contains(t, text, "---\n", "blocks are separated")
}
