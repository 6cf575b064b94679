package extractor

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"codechunk/internal/chunk"
)

// parseModule runs the tree-sitter Python grammar over one file. A fresh
// parser per call keeps concurrent extraction safe.
func parseModule(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return parser.ParseCtx(ctx, nil, src)
}

// firstSyntaxError returns the first ERROR or MISSING node in the tree,
// nil when the parse is clean.
func firstSyntaxError(root *sitter.Node) *sitter.Node {
	if root == nil || !root.HasError() {
		return nil
	}

	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	var found *sitter.Node
	var visit func()
	visit = func() {
		if found != nil {
			return
		}
		n := cursor.CurrentNode()
		if n.IsError() || n.IsMissing() {
			found = n
			return
		}
		if !n.HasError() {
			return
		}
		if cursor.GoToFirstChild() {
			visit()
			for found == nil && cursor.GoToNextSibling() {
				visit()
			}
			cursor.GoToParent()
		}
	}
	visit()
	return found
}

func nodeText(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

func startLine(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }
func endLine(n *sitter.Node) int   { return int(n.EndPoint().Row) + 1 }

func locationOf(rel string, n *sitter.Node) *chunk.Location {
	return &chunk.Location{Path: rel, StartLine: startLine(n), EndLine: endLine(n)}
}

// docstringOf returns the docstring of a def/class body: the leading
// expression statement holding a bare string literal.
func docstringOf(body *sitter.Node, src []byte) string {
	if body == nil {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Type() != "expression_statement" {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Type() != "string" {
		return ""
	}
	return unquoteString(nodeText(str, src))
}

// unquoteString strips Python string prefixes and the surrounding single,
// double or triple quotes from a literal's source text.
func unquoteString(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "rRbBuUfF")

	for _, q := range []string{`"""`, "'''", `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return strings.TrimSpace(s)
}

func firstLineOf(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// decoratorsOf collects the decorator expressions of a decorated_definition
// in source order, without the leading "@".
func decoratorsOf(decorated *sitter.Node, src []byte) []string {
	if decorated == nil || decorated.Type() != "decorated_definition" {
		return nil
	}
	var out []string
	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		child := decorated.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		text := strings.TrimSpace(nodeText(child, src))
		out = append(out, strings.TrimPrefix(text, "@"))
	}
	return out
}

// decoratorName reduces a decorator expression to its callable name:
// `app.get("/items")` -> "app.get", `staticmethod` -> "staticmethod".
func decoratorName(dec string) string {
	if i := strings.IndexByte(dec, '('); i >= 0 {
		dec = dec[:i]
	}
	return strings.TrimSpace(dec)
}

// paramsOf converts a parameters node into the metadata form, covering
// plain, typed, defaulted and splat parameters.
func paramsOf(params *sitter.Node, src []byte) []chunk.Param {
	if params == nil {
		return nil
	}

	var out []chunk.Param
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			out = append(out, chunk.Param{Name: nodeText(p, src)})
		case "typed_parameter":
			param := chunk.Param{Annotation: nodeText(p.ChildByFieldName("type"), src)}
			if inner := p.NamedChild(0); inner != nil {
				param.Name = nodeText(inner, src)
			}
			out = append(out, param)
		case "default_parameter":
			out = append(out, chunk.Param{
				Name:    nodeText(p.ChildByFieldName("name"), src),
				Default: nodeText(p.ChildByFieldName("value"), src),
			})
		case "typed_default_parameter":
			out = append(out, chunk.Param{
				Name:       nodeText(p.ChildByFieldName("name"), src),
				Annotation: nodeText(p.ChildByFieldName("type"), src),
				Default:    nodeText(p.ChildByFieldName("value"), src),
			})
		case "list_splat_pattern", "dictionary_splat_pattern":
			out = append(out, chunk.Param{Name: nodeText(p, src)})
		}
	}
	return out
}

var statementKinds = map[string]bool{
	"expression_statement":  true,
	"return_statement":      true,
	"pass_statement":        true,
	"raise_statement":       true,
	"assert_statement":      true,
	"delete_statement":      true,
	"global_statement":      true,
	"nonlocal_statement":    true,
	"import_statement":      true,
	"import_from_statement": true,
	"break_statement":       true,
	"continue_statement":    true,
	"if_statement":          true,
	"for_statement":         true,
	"while_statement":       true,
	"try_statement":         true,
	"with_statement":        true,
	"match_statement":       true,
}

// statementCount is the retrieval-ranking size hint: the number of
// statement nodes in a body, nested ones included. Bare string
// expressions are documentation, not logic, and stay uncounted.
func statementCount(body *sitter.Node) int {
	if body == nil {
		return 0
	}

	count := 0
	cursor := sitter.NewTreeCursor(body)
	defer cursor.Close()

	var visit func()
	visit = func() {
		n := cursor.CurrentNode()
		if statementKinds[n.Type()] && !isBareString(n) {
			count++
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
	return count
}

func isBareString(n *sitter.Node) bool {
	return n.Type() == "expression_statement" &&
		n.NamedChildCount() == 1 &&
		n.NamedChild(0).Type() == "string"
}

// callTargets collects the names a body calls: bare identifiers and
// self-qualified attributes. Other attribute calls are skipped to keep
// reference edges conservative.
func callTargets(body *sitter.Node, src []byte) []string {
	if body == nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []string

	cursor := sitter.NewTreeCursor(body)
	defer cursor.Close()

	var visit func()
	visit = func() {
		n := cursor.CurrentNode()
		if n.Type() == "call" {
			if fn := n.ChildByFieldName("function"); fn != nil {
				target := ""
				switch fn.Type() {
				case "identifier":
					target = nodeText(fn, src)
				case "attribute":
					text := nodeText(fn, src)
					if strings.HasPrefix(text, "self.") {
						target = text
					}
				}
				if target != "" && !seen[target] {
					seen[target] = true
					out = append(out, target)
				}
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

// isConstantName reports the UPPERCASE naming convention: at least one
// uppercase letter and no lowercase ones.
func isConstantName(name string) bool {
	hasUpper := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		}
	}
	return hasUpper
}
