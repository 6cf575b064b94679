package graph

import (
	"path"
	"sort"
	"strings"

	"codechunk/internal/chunk"
	"codechunk/internal/extractor"
	"codechunk/internal/resolver"
)

// Builder resolves extraction facts against the completed registry. It
// runs strictly after the per-file barrier, so every candidate chunk is
// already registered and resolution is independent of file order.
type Builder struct {
	registry *Registry
	modules  *resolver.ModuleIndex
}

func NewBuilder(registry *Registry, modules *resolver.ModuleIndex) *Builder {
	return &Builder{registry: registry, modules: modules}
}

type edgeSink func(source, target string, kind chunk.RelationKind, scope resolveScope)

// Resolve matches every fact to chunk ids. Edges and leftovers come back
// sorted, so two runs over the same facts produce identical output.
func (b *Builder) Resolve(facts []extractor.Fact) BuildResult {
	var result BuildResult
	seen := make(map[string]bool)

	emit := func(source, target string, kind chunk.RelationKind, scope resolveScope) {
		if source == target {
			return
		}
		edge := chunk.Relationship{
			Source:     source,
			Target:     target,
			Kind:       kind,
			Confidence: calibrateConfidence(kind, scope),
		}
		if seen[edge.Key()] {
			return
		}
		seen[edge.Key()] = true
		result.Edges = append(result.Edges, edge)
	}

	for _, fact := range facts {
		var reason UnresolvedReason
		switch fact.Kind {
		case chunk.RelationImports:
			reason = b.resolveImport(fact, emit)
		case chunk.RelationExtends:
			reason = b.resolveExtends(fact, emit)
		case chunk.RelationReferences:
			reason = b.resolveReference(fact, emit)
		default:
			reason = ReasonNoCandidate
		}
		if reason != "" {
			target := fact.Target
			if fact.Item != "" {
				target = fact.Target + "." + fact.Item
			}
			result.Unresolved = append(result.Unresolved, Unresolved{
				Source: fact.Source,
				Target: target,
				Kind:   fact.Kind,
				Reason: reason,
			})
		}
	}

	sort.Slice(result.Edges, func(i, j int) bool {
		return result.Edges[i].Key() < result.Edges[j].Key()
	})
	sort.Slice(result.Unresolved, func(i, j int) bool {
		ui, uj := result.Unresolved[i], result.Unresolved[j]
		if ui.Source != uj.Source {
			return ui.Source < uj.Source
		}
		if ui.Target != uj.Target {
			return ui.Target < uj.Target
		}
		return ui.Kind < uj.Kind
	})
	return result
}

// resolveImport maps one import fact to the chunks the target module
// exposes. Standard and third-party imports stay unresolved as external
// rather than guessed at.
func (b *Builder) resolveImport(fact extractor.Fact, emit edgeSink) UnresolvedReason {
	file, reason := b.moduleFile(fact)
	if reason != "" {
		return reason
	}

	exposed := b.registry.Exposed(file)
	if len(exposed) == 0 {
		return ReasonNoCandidate
	}

	if fact.Item != "" {
		matched := false
		for _, c := range exposed {
			if c.Name == fact.Item {
				emit(fact.Source, c.ID, chunk.RelationImports, scopeExact)
				matched = true
			}
		}
		if !matched {
			// The named item is a constant or variable, not a chunk.
			return ReasonNoCandidate
		}
		return ""
	}

	for _, c := range exposed {
		emit(fact.Source, c.ID, chunk.RelationImports, scopeModule)
	}
	return ""
}

// moduleFile resolves a fact's module path to a scanned file.
func (b *Builder) moduleFile(fact extractor.Fact) (string, UnresolvedReason) {
	target := fact.Target
	if strings.HasPrefix(target, ".") {
		dots := 0
		for dots < len(target) && target[dots] == '.' {
			dots++
		}
		file, ok := b.modules.ResolveRelative(fact.File, dots, target[dots:])
		if !ok {
			return "", ReasonNoCandidate
		}
		return file, ""
	}

	if resolver.IsStandard(target) {
		return "", ReasonExternal
	}
	if file, ok := b.modules.Resolve(target); ok {
		return file, ""
	}
	if b.modules.Contains(target) {
		// Namespace package: the module exists but maps to no file.
		return "", ReasonSourceMissing
	}
	return "", ReasonExternal
}

// resolveExtends retries base-class names now that the full registry
// exists: same file first, then same package, then a unique global match.
func (b *Builder) resolveExtends(fact extractor.Fact, emit edgeSink) UnresolvedReason {
	candidates := b.classCandidates(fact.Target)
	id, scope, reason := pickByLocality(candidates, fact.File)
	if reason != "" {
		return reason
	}
	emit(fact.Source, id, chunk.RelationExtends, scope)
	return ""
}

// classCandidates matches a base-class expression against Class chunks,
// falling back to the tail segment for dotted names like models.Base.
func (b *Builder) classCandidates(target string) []chunk.Chunk {
	names := []string{target}
	if i := strings.LastIndexByte(target, '.'); i >= 0 {
		names = append(names, target[i+1:])
	}

	var out []chunk.Chunk
	for _, name := range names {
		for _, id := range b.registry.IDsByName(name) {
			if c, ok := b.registry.Get(id); ok && c.Type == chunk.TypeClass {
				out = append(out, c)
			}
		}
		if len(out) > 0 {
			break
		}
	}
	return out
}

// resolveReference links call targets: self-qualified calls resolve among
// the owning class's methods, bare names among functions and classes.
func (b *Builder) resolveReference(fact extractor.Fact, emit edgeSink) UnresolvedReason {
	if name, ok := strings.CutPrefix(fact.Target, "self."); ok {
		return b.resolveSelfCall(fact, name, emit)
	}

	var candidates []chunk.Chunk
	for _, id := range b.registry.IDsByName(fact.Target) {
		c, ok := b.registry.Get(id)
		if !ok {
			continue
		}
		if c.Type == chunk.TypeFunction || c.Type == chunk.TypeClass {
			candidates = append(candidates, c)
		}
	}
	id, scope, reason := pickByLocality(candidates, fact.File)
	if reason != "" {
		return reason
	}
	emit(fact.Source, id, chunk.RelationReferences, scope)
	return ""
}

func (b *Builder) resolveSelfCall(fact extractor.Fact, name string, emit edgeSink) UnresolvedReason {
	source, ok := b.registry.Get(fact.Source)
	if !ok {
		return ReasonSourceMissing
	}
	meta, ok := source.Metadata.(chunk.MethodMeta)
	if !ok {
		return ReasonNoCandidate
	}

	for _, id := range b.registry.IDsByName(name) {
		c, ok := b.registry.Get(id)
		if !ok || c.Type != chunk.TypeMethod {
			continue
		}
		if c.Location == nil || c.Location.Path != fact.File {
			continue
		}
		if m, ok := c.Metadata.(chunk.MethodMeta); ok && m.Class == meta.Class {
			emit(fact.Source, c.ID, chunk.RelationReferences, scopeExact)
			return ""
		}
	}
	return ReasonNoCandidate
}

// pickByLocality narrows candidates by scope. More than one candidate at
// the tightest non-empty scope is ambiguous, not guessed at.
func pickByLocality(candidates []chunk.Chunk, fromFile string) (string, resolveScope, UnresolvedReason) {
	if len(candidates) == 0 {
		return "", 0, ReasonNoCandidate
	}

	var sameFile, samePkg []chunk.Chunk
	fromDir := path.Dir(fromFile)
	for _, c := range candidates {
		if c.Location == nil {
			continue
		}
		if c.Location.Path == fromFile {
			sameFile = append(sameFile, c)
		} else if path.Dir(c.Location.Path) == fromDir {
			samePkg = append(samePkg, c)
		}
	}

	switch {
	case len(sameFile) == 1:
		return sameFile[0].ID, scopeExact, ""
	case len(sameFile) > 1:
		return "", 0, ReasonAmbiguous
	case len(samePkg) == 1:
		return samePkg[0].ID, scopePackage, ""
	case len(samePkg) > 1:
		return "", 0, ReasonAmbiguous
	case len(candidates) == 1:
		return candidates[0].ID, scopeGlobal, ""
	default:
		return "", 0, ReasonAmbiguous
	}
}
