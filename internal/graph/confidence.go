package graph

import "codechunk/internal/chunk"

// resolveScope grades how locally a fact was matched. Tighter scopes give
// more trustworthy edges; a module-wide import fan-out is the weakest.
type resolveScope int

const (
	scopeExact resolveScope = iota
	scopePackage
	scopeGlobal
	scopeModule
)

func calibrateConfidence(kind chunk.RelationKind, scope resolveScope) float64 {
	base := baseConfidence(kind)

	switch scope {
	case scopeExact:
		base += 0.15
	case scopePackage:
		base += 0.08
	case scopeModule:
		base -= 0.05
	}

	return clamp(base, 0.1, 0.99)
}

func baseConfidence(kind chunk.RelationKind) float64 {
	switch kind {
	case chunk.RelationExtends:
		return 0.8
	case chunk.RelationImports:
		return 0.75
	case chunk.RelationReferences:
		return 0.65
	default:
		return 0.55
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
