package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"codechunk/internal/chunk"
)

// extractClass chunks a class definition and returns the chunk id. Method
// bodies become Method chunks of their own; the class chunk content keeps
// the signature, docstring and method signatures only, so each source
// line stays owned by exactly one chunk. Inner classes recurse with a
// dotted name.
func (fx *fileExtraction) extractClass(span, def *sitter.Node, decorators []string, prefix string) string {
	name := nodeText(def.ChildByFieldName("name"), fx.src)
	if name == "" {
		return ""
	}
	qualified := name
	if prefix != "" {
		qualified = prefix + "." + name
	}

	body := def.ChildByFieldName("body")
	id := chunk.BuildID(fx.rel, chunk.TypeClass, qualified, defSignature(def, fx.src))

	docstring := docstringOf(body, fx.src)
	purpose := docstring
	if purpose == "" {
		purpose = "Class " + name
	}

	var (
		methodNames []string
		sigLines    []string
		attrs       []string
		attrSeen    = make(map[string]bool)
		initBody    *sitter.Node
	)
	addAttr := func(attr string) {
		if attr != "" && !attrSeen[attr] {
			attrSeen[attr] = true
			attrs = append(attrs, attr)
		}
	}

	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			child := body.NamedChild(i)

			if child.Type() == "expression_statement" {
				assign := child.NamedChild(0)
				if assign != nil && assign.Type() == "assignment" {
					if left := assign.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
						addAttr(nodeText(left, fx.src))
					}
				}
				continue
			}

			spanNode, defNode := child, child
			var childDecorators []string
			if child.Type() == "decorated_definition" {
				defNode = child.ChildByFieldName("definition")
				if defNode == nil {
					continue
				}
				childDecorators = decoratorsOf(child, fx.src)
			}

			switch defNode.Type() {
			case "function_definition":
				methodName := nodeText(defNode.ChildByFieldName("name"), fx.src)
				methodID := fx.extractMethod(spanNode, defNode, childDecorators, qualified)
				if methodID == "" {
					continue
				}
				fx.addContains(id, methodID)
				methodNames = append(methodNames, methodName)
				sigLines = append(sigLines, "    "+defSignature(defNode, fx.src)+": ...")
				if methodName == "__init__" {
					initBody = defNode.ChildByFieldName("body")
				}
			case "class_definition":
				if innerID := fx.extractClass(spanNode, defNode, childDecorators, qualified); innerID != "" {
					fx.addContains(id, innerID)
				}
			}
		}
	}

	for _, attr := range fx.selfAttributes(initBody) {
		addAttr(attr)
	}

	lines := []string{defSignature(def, fx.src) + ":"}
	if docstring != "" {
		lines = append(lines, `    """`+firstLineOf(docstring)+`"""`)
	}
	lines = append(lines, sigLines...)

	bases := fx.baseClasses(def)
	fx.addChunk(chunk.Chunk{
		ID:       id,
		Type:     chunk.TypeClass,
		Name:     qualified,
		Content:  strings.Join(lines, "\n"),
		Location: locationOf(fx.rel, span),
		Metadata: chunk.ClassMeta{
			Purpose:     purpose,
			Methods:     methodNames,
			Attributes:  attrs,
			BaseClasses: bases,
			Decorators:  decorators,
		},
	})

	for _, base := range bases {
		if target := baseFactTarget(base); target != "" {
			fx.addFact(id, chunk.RelationExtends, target)
		}
	}
	return id
}

// baseClasses lists the superclass expressions as written, unresolved.
// Keyword arguments like metaclass= are configuration, not bases.
func (fx *fileExtraction) baseClasses(def *sitter.Node) []string {
	supers := def.ChildByFieldName("superclasses")
	if supers == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(supers.NamedChildCount()); i++ {
		arg := supers.NamedChild(i)
		switch arg.Type() {
		case "keyword_argument", "list_splat", "dictionary_splat":
			continue
		}
		out = append(out, nodeText(arg, fx.src))
	}
	return out
}

// baseFactTarget reduces a base-class expression to a resolvable name:
// `Generic[T]` -> "Generic", `models.Base` stays dotted.
func baseFactTarget(base string) string {
	if i := strings.IndexAny(base, "[("); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSpace(base)
}

// selfAttributes collects the names assigned to self inside __init__, in
// assignment order.
func (fx *fileExtraction) selfAttributes(initBody *sitter.Node) []string {
	if initBody == nil {
		return nil
	}

	var out []string
	addTarget := func(target *sitter.Node) {
		if target == nil || target.Type() != "attribute" {
			return
		}
		obj := target.ChildByFieldName("object")
		attr := target.ChildByFieldName("attribute")
		if obj != nil && attr != nil && nodeText(obj, fx.src) == "self" {
			out = append(out, nodeText(attr, fx.src))
		}
	}

	cursor := sitter.NewTreeCursor(initBody)
	defer cursor.Close()

	var visit func()
	visit = func() {
		n := cursor.CurrentNode()
		if n.Type() == "assignment" {
			left := n.ChildByFieldName("left")
			switch {
			case left == nil:
			case left.Type() == "pattern_list":
				for i := 0; i < int(left.NamedChildCount()); i++ {
					addTarget(left.NamedChild(i))
				}
			default:
				addTarget(left)
			}
		}
		if cursor.GoToFirstChild() {
			visit()
			for cursor.GoToNextSibling() {
				visit()
			}
			cursor.GoToParent()
		}
	}
	visit()
	return out
}
