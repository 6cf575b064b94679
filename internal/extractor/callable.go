package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"codechunk/internal/chunk"
)

// defSignature is the header text of a definition: everything from the
// (possibly async) def or class keyword up to the colon before the body.
func defSignature(def *sitter.Node, src []byte) string {
	body := def.ChildByFieldName("body")
	if body == nil {
		return strings.TrimSpace(nodeText(def, src))
	}
	header := strings.TrimSpace(string(src[def.StartByte():body.StartByte()]))
	return strings.TrimSpace(strings.TrimSuffix(header, ":"))
}

func isAsyncDef(def *sitter.Node) bool {
	first := def.Child(0)
	return first != nil && first.Type() == "async"
}

// accessOf derives visibility from the naming convention. Dunder names
// like __init__ are interface, not name-mangled privates, so they stay
// public.
func accessOf(name string) chunk.Access {
	switch {
	case strings.HasPrefix(name, "__") && !strings.HasSuffix(name, "__"):
		return chunk.AccessPrivate
	case strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "__"):
		return chunk.AccessProtected
	default:
		return chunk.AccessPublic
	}
}

func methodKind(decorators []string) chunk.MethodKind {
	for _, d := range decorators {
		switch decoratorName(d) {
		case "staticmethod":
			return chunk.MethodStatic
		case "classmethod":
			return chunk.MethodClassmethod
		}
	}
	return chunk.MethodInstance
}

// extractFunction chunks a module-level def. The span node covers the
// decorators when the def was decorated, so the chunk owns those lines.
// Nested defs stay inside this chunk's content; only independently
// callable units are split out.
func (fx *fileExtraction) extractFunction(span, def *sitter.Node, decorators []string) {
	name := nodeText(def.ChildByFieldName("name"), fx.src)
	if name == "" {
		return
	}
	body := def.ChildByFieldName("body")
	id := chunk.BuildID(fx.rel, chunk.TypeFunction, name, defSignature(def, fx.src))

	purpose := docstringOf(body, fx.src)
	if purpose == "" {
		purpose = "Function " + name
	}

	fx.addChunk(chunk.Chunk{
		ID:       id,
		Type:     chunk.TypeFunction,
		Name:     name,
		Content:  nodeText(span, fx.src),
		Location: locationOf(fx.rel, span),
		Metadata: chunk.FunctionMeta{
			Purpose:        purpose,
			Parameters:     paramsOf(def.ChildByFieldName("parameters"), fx.src),
			ReturnType:     nodeText(def.ChildByFieldName("return_type"), fx.src),
			Decorators:     decorators,
			IsAsync:        isAsyncDef(def),
			StatementCount: statementCount(body),
		},
	})

	for _, target := range callTargets(body, fx.src) {
		fx.addFact(id, chunk.RelationReferences, target)
	}
}

// extractMethod chunks a def nested directly in a class body and returns
// the chunk id so the caller can wire the contains edge.
func (fx *fileExtraction) extractMethod(span, def *sitter.Node, decorators []string, className string) string {
	name := nodeText(def.ChildByFieldName("name"), fx.src)
	if name == "" {
		return ""
	}
	body := def.ChildByFieldName("body")
	qualified := className + "." + name
	id := chunk.BuildID(fx.rel, chunk.TypeMethod, qualified, defSignature(def, fx.src))

	purpose := docstringOf(body, fx.src)
	if purpose == "" {
		purpose = "Method " + name
	}

	fx.addChunk(chunk.Chunk{
		ID:       id,
		Type:     chunk.TypeMethod,
		Name:     name,
		Content:  nodeText(span, fx.src),
		Location: locationOf(fx.rel, span),
		Metadata: chunk.MethodMeta{
			Purpose:        purpose,
			Class:          className,
			Parameters:     paramsOf(def.ChildByFieldName("parameters"), fx.src),
			ReturnType:     nodeText(def.ChildByFieldName("return_type"), fx.src),
			Access:         accessOf(name),
			Kind:           methodKind(decorators),
			Decorators:     decorators,
			IsAsync:        isAsyncDef(def),
			StatementCount: statementCount(body),
		},
	})

	for _, target := range callTargets(body, fx.src) {
		fx.addFact(id, chunk.RelationReferences, target)
	}
	return id
}
