package chunk

type RelationKind string

const (
	RelationContains   RelationKind = "contains"
	RelationImports    RelationKind = "imports"
	RelationExtends    RelationKind = "extends"
	RelationReferences RelationKind = "references"
)

// Relationship is a directed, typed edge between two chunk IDs. Edges are
// value records; cycles in the dependency kinds are representable because
// chunks never hold live references to one another.
type Relationship struct {
	Source     string       `json:"source"`
	Target     string       `json:"target"`
	Kind       RelationKind `json:"kind"`
	Confidence float64      `json:"confidence,omitempty"`
}

// Key identifies an edge for set semantics: the same (source, target,
// kind) triple is stored once.
func (r Relationship) Key() string {
	return r.Source + "->" + r.Target + ":" + string(r.Kind)
}
