package retrieval

import (
	"sort"
	"strings"

	"codechunk/internal/chunk"
	"codechunk/internal/index"
)

// Config controls how neighborhoods are extracted.
type Config struct {
	MaxHops       int
	MinConfidence float64
	AllowedKinds  map[chunk.RelationKind]bool
}

func DefaultConfig() Config {
	return Config{
		MaxHops:       2,
		MinConfidence: 0.0,
		AllowedKinds:  nil,
	}
}

// Subgraph is the neighborhood around one or more seed chunks: every
// chunk within MaxHops over the allowed edges, scored by the confidence
// of the strongest path back to a seed.
type Subgraph struct {
	MaxHops    int
	SeedIDs    []string
	NodeIDs    []string
	NodeScores map[string]float64
	Edges      []chunk.Relationship
}

type queueItem struct {
	id    string
	depth int
}

type edgeHop struct {
	to   string
	edge chunk.Relationship
}

// Neighborhood walks the relationship graph outward from the seeds,
// following edges in both directions. Seeds unknown to the index are
// dropped.
func Neighborhood(idx *index.Index, seeds []string, cfg Config) *Subgraph {
	if cfg.MaxHops < 0 {
		cfg.MaxHops = 0
	}

	seedSet := make(map[string]bool, len(seeds))
	for _, id := range seeds {
		if _, ok := idx.Chunk(id); ok {
			seedSet[id] = true
		}
	}
	seedIDs := sortedKeys(seedSet)
	if len(seedIDs) == 0 {
		return &Subgraph{MaxHops: cfg.MaxHops, NodeScores: map[string]float64{}}
	}

	adj := make(map[string][]edgeHop)
	for _, e := range idx.Relationships() {
		if !edgeAllowed(e, cfg) {
			continue
		}
		adj[e.Source] = append(adj[e.Source], edgeHop{to: e.Target, edge: e})
		adj[e.Target] = append(adj[e.Target], edgeHop{to: e.Source, edge: e})
	}

	visitedDepth := make(map[string]int, len(seedIDs))
	nodeScores := make(map[string]float64, len(seedIDs))
	queue := make([]queueItem, 0, len(seedIDs))
	for _, id := range seedIDs {
		visitedDepth[id] = 0
		nodeScores[id] = 1.0
		queue = append(queue, queueItem{id: id})
	}

	edgeSeen := make(map[string]bool)
	var edges []chunk.Relationship

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= cfg.MaxHops {
			continue
		}

		for _, next := range adj[cur.id] {
			if key := next.edge.Key(); !edgeSeen[key] {
				edgeSeen[key] = true
				edges = append(edges, next.edge)
			}

			score := nodeScores[cur.id] * normalizedConfidence(next.edge.Confidence)
			if score > nodeScores[next.to] {
				nodeScores[next.to] = score
			}
			prevDepth, seen := visitedDepth[next.to]
			nextDepth := cur.depth + 1
			if !seen || nextDepth < prevDepth {
				visitedDepth[next.to] = nextDepth
				queue = append(queue, queueItem{id: next.to, depth: nextDepth})
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool { return edges[i].Key() < edges[j].Key() })

	return &Subgraph{
		MaxHops:    cfg.MaxHops,
		SeedIDs:    seedIDs,
		NodeIDs:    sortedKeys(visitedDepth),
		NodeScores: nodeScores,
		Edges:      edges,
	}
}

// RankedChunks resolves the subgraph's nodes: seeds first, then by
// descending score, ties broken by id.
func (s *Subgraph) RankedChunks(idx *index.Index) []chunk.Chunk {
	isSeed := make(map[string]bool, len(s.SeedIDs))
	for _, id := range s.SeedIDs {
		isSeed[id] = true
	}

	ids := make([]string, len(s.NodeIDs))
	copy(ids, s.NodeIDs)
	sort.SliceStable(ids, func(i, j int) bool {
		if isSeed[ids[i]] != isSeed[ids[j]] {
			return isSeed[ids[i]]
		}
		if s.NodeScores[ids[i]] != s.NodeScores[ids[j]] {
			return s.NodeScores[ids[i]] > s.NodeScores[ids[j]]
		}
		return ids[i] < ids[j]
	})

	out := make([]chunk.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := idx.Chunk(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// ContextText renders the neighborhood as retrieval-ready text, one
// embedding block per chunk in ranked order.
func (s *Subgraph) ContextText(idx *index.Index) string {
	chunks := s.RankedChunks(idx)
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.EmbeddingText())
	}
	return strings.Join(parts, "---\n")
}

func edgeAllowed(e chunk.Relationship, cfg Config) bool {
	if cfg.MinConfidence > 0 && e.Confidence < cfg.MinConfidence {
		return false
	}
	if len(cfg.AllowedKinds) == 0 {
		return true
	}
	return cfg.AllowedKinds[e.Kind]
}

func normalizedConfidence(c float64) float64 {
	if c <= 0 {
		return 0.5
	}
	if c > 1 {
		return 1
	}
	return c
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
