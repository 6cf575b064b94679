package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"codechunk/internal/chunk"
)

// valuePreviewLimit caps constant value previews so a giant inline
// lookup table cannot dominate the chunk payload.
const valuePreviewLimit = 120

// constantAssignment returns the assignment node when the statement
// declares a module-level UPPERCASE constant, nil for anything else.
// Only bare-identifier targets count; tuple unpacking and attribute
// targets are not constant declarations.
func constantAssignment(stmt *sitter.Node, src []byte) *sitter.Node {
	if stmt.Type() != "expression_statement" {
		return nil
	}
	assign := stmt.NamedChild(0)
	if assign == nil || assign.Type() != "assignment" {
		return nil
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return nil
	}
	if !isConstantName(nodeText(left, src)) {
		return nil
	}
	return assign
}

// collectConstants folds the module's constant assignments into a single
// Constants chunk with per-statement records and line spans.
func (fx *fileExtraction) collectConstants(stmts []*sitter.Node) {
	if len(stmts) == 0 {
		return
	}

	var (
		records []chunk.ConstantRecord
		spans   []chunk.LineRange
		lines   []string
	)
	for _, stmt := range stmts {
		assign := constantAssignment(stmt, fx.src)
		if assign == nil {
			continue
		}
		records = append(records, fx.constantRecord(assign))
		spans = append(spans, chunk.LineRange{Start: startLine(stmt), End: endLine(stmt)})
		lines = append(lines, nodeText(stmt, fx.src))
	}
	if len(records) == 0 {
		return
	}

	fx.addChunk(chunk.Chunk{
		ID:      chunk.BuildID(fx.rel, chunk.TypeConstants, "module_constants", ""),
		Type:    chunk.TypeConstants,
		Name:    "module_constants",
		Content: strings.Join(lines, "\n"),
		Location: &chunk.Location{
			Path:      fx.rel,
			StartLine: spans[0].Start,
			EndLine:   spans[len(spans)-1].End,
		},
		Metadata: chunk.ConstantsMeta{
			Purpose:   "Module-level constants and configuration",
			Constants: records,
			Spans:     spans,
		},
	})
}

func (fx *fileExtraction) constantRecord(assign *sitter.Node) chunk.ConstantRecord {
	rec := chunk.ConstantRecord{
		Name: nodeText(assign.ChildByFieldName("left"), fx.src),
	}
	if t := assign.ChildByFieldName("type"); t != nil {
		rec.InferredType = nodeText(t, fx.src)
	}
	if right := assign.ChildByFieldName("right"); right != nil {
		if rec.InferredType == "" {
			rec.InferredType = literalType(right, fx.src)
		}
		rec.Value, rec.Truncated = truncateValue(nodeText(right, fx.src))
	}
	return rec
}

// literalType names the type a literal value reveals. Annotations win over
// this; anything opaque stays empty rather than guessed.
func literalType(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "string", "concatenated_string":
		return "str"
	case "integer":
		return "int"
	case "float":
		return "float"
	case "true", "false":
		return "bool"
	case "none":
		return "None"
	case "list", "list_comprehension":
		return "list"
	case "dictionary", "dictionary_comprehension":
		return "dict"
	case "tuple":
		return "tuple"
	case "set", "set_comprehension":
		return "set"
	case "call":
		return nodeText(n.ChildByFieldName("function"), src)
	case "unary_operator":
		if arg := n.ChildByFieldName("argument"); arg != nil {
			switch arg.Type() {
			case "integer":
				return "int"
			case "float":
				return "float"
			}
		}
	}
	return ""
}

func truncateValue(value string) (string, bool) {
	runes := []rune(value)
	if len(runes) <= valuePreviewLimit {
		return value, false
	}
	return string(runes[:valuePreviewLimit]) + "...", true
}
