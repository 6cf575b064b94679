package analysis

import (
	"codechunk/internal/chunk"
	"codechunk/internal/index"
)

// ContainmentIssue flags a chunk whose containment breaks the forest
// shape.
type ContainmentIssue struct {
	ChunkID string `json:"chunk_id"`
	Problem string `json:"problem"`
}

// VerifyContainment checks that contains edges form a forest: every chunk
// has at most one parent, only packages and classes contain others, every
// method hangs off a class, and walking parents always terminates.
func VerifyContainment(idx *index.Index) []ContainmentIssue {
	parent := make(map[string]string)
	var issues []ContainmentIssue

	for _, rel := range idx.Relationships() {
		if rel.Kind != chunk.RelationContains {
			continue
		}
		src, ok := idx.Chunk(rel.Source)
		if !ok {
			issues = append(issues, ContainmentIssue{ChunkID: rel.Source, Problem: "contains edge from unknown chunk"})
			continue
		}
		if src.Type != chunk.TypePackage && src.Type != chunk.TypeClass {
			issues = append(issues, ContainmentIssue{ChunkID: rel.Source, Problem: "only packages and classes may contain chunks"})
		}
		if _, dup := parent[rel.Target]; dup {
			issues = append(issues, ContainmentIssue{ChunkID: rel.Target, Problem: "more than one containing parent"})
			continue
		}
		parent[rel.Target] = rel.Source
	}

	for _, c := range idx.Chunks() {
		seen := map[string]bool{c.ID: true}
		for cur := parent[c.ID]; cur != ""; cur = parent[cur] {
			if seen[cur] {
				issues = append(issues, ContainmentIssue{ChunkID: c.ID, Problem: "containment cycle"})
				break
			}
			seen[cur] = true
		}
	}

	for _, c := range idx.ChunksByType(chunk.TypeMethod) {
		if parent[c.ID] == "" {
			issues = append(issues, ContainmentIssue{ChunkID: c.ID, Problem: "method without containing class"})
		}
	}

	return issues
}
