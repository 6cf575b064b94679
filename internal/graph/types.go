package graph

import "codechunk/internal/chunk"

// UnresolvedReason explains why a fact produced no edge. Unresolved facts
// are warnings, never errors: the graph stays usable as a partial view.
type UnresolvedReason string

const (
	ReasonNoCandidate   UnresolvedReason = "no_candidate"
	ReasonAmbiguous     UnresolvedReason = "ambiguous"
	ReasonExternal      UnresolvedReason = "external"
	ReasonSourceMissing UnresolvedReason = "source_missing"
)

// Unresolved is one fact that could not be matched to a chunk.
type Unresolved struct {
	Source string             `json:"source"`
	Target string             `json:"target"`
	Kind   chunk.RelationKind `json:"kind"`
	Reason UnresolvedReason   `json:"reason"`
}

// BuildResult is the outcome of one resolution pass: the resolved edges
// plus everything left unmatched, with reasons.
type BuildResult struct {
	Edges      []chunk.Relationship
	Unresolved []Unresolved
}
