package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"codechunk/internal/chunk"
)

// collectImports folds every module-level import statement into a single
// Imports chunk. The chunk content is the verbatim statements; the
// metadata keeps one record per statement plus the exact line span of
// each, since the statements rarely sit adjacent in the file.
func (fx *fileExtraction) collectImports(stmts []*sitter.Node) {
	if len(stmts) == 0 {
		return
	}

	var (
		records []chunk.ImportRecord
		spans   []chunk.LineRange
		lines   []string
	)
	for _, stmt := range stmts {
		records = append(records, fx.importRecords(stmt)...)
		spans = append(spans, chunk.LineRange{Start: startLine(stmt), End: endLine(stmt)})
		lines = append(lines, nodeText(stmt, fx.src))
	}

	id := chunk.BuildID(fx.rel, chunk.TypeImports, "module_imports", "")
	fx.addChunk(chunk.Chunk{
		ID:      id,
		Type:    chunk.TypeImports,
		Name:    "module_imports",
		Content: strings.Join(lines, "\n"),
		Location: &chunk.Location{
			Path:      fx.rel,
			StartLine: spans[0].Start,
			EndLine:   spans[len(spans)-1].End,
		},
		Metadata: chunk.ImportsMeta{
			Purpose: "Module dependencies and imports",
			Imports: records,
			Spans:   spans,
		},
	})

	seen := make(map[string]bool)
	record := func(target, item string) {
		if target == "" || seen[target+"|"+item] {
			return
		}
		seen[target+"|"+item] = true
		fx.facts = append(fx.facts, Fact{
			Source: id,
			Kind:   chunk.RelationImports,
			Target: target,
			Item:   item,
			File:   fx.rel,
		})
	}
	for _, rec := range records {
		// `from . import utils` names the submodule in the item list, so
		// the fact target glues the dots to each item.
		if rec.Module != "" && strings.Trim(rec.Module, ".") == "" {
			for _, item := range rec.Items {
				if item != "*" {
					record(rec.Module+item, "")
				}
			}
			continue
		}
		if len(rec.Items) == 0 {
			record(rec.Module, "")
			continue
		}
		for _, item := range rec.Items {
			if item == "*" {
				record(rec.Module, "")
			} else {
				record(rec.Module, item)
			}
		}
	}
}

// importRecords turns one import statement into metadata records:
// `import a, b` yields two, `from x import y, z` yields one with items.
func (fx *fileExtraction) importRecords(stmt *sitter.Node) []chunk.ImportRecord {
	switch stmt.Type() {
	case "import_statement":
		var recs []chunk.ImportRecord
		for i := 0; i < int(stmt.NamedChildCount()); i++ {
			child := stmt.NamedChild(i)
			module := ""
			switch child.Type() {
			case "dotted_name":
				module = nodeText(child, fx.src)
			case "aliased_import":
				module = nodeText(child.ChildByFieldName("name"), fx.src)
			}
			if module != "" {
				recs = append(recs, chunk.ImportRecord{
					Module: module,
					Origin: fx.classifier.Classify(module),
				})
			}
		}
		return recs

	case "import_from_statement", "future_import_statement":
		moduleNode := stmt.ChildByFieldName("module_name")
		module := nodeText(moduleNode, fx.src)
		if stmt.Type() == "future_import_statement" {
			// `__future__` is an anonymous token in the grammar.
			module = "__future__"
		}

		var items []string
		for i := 0; i < int(stmt.NamedChildCount()); i++ {
			child := stmt.NamedChild(i)
			if moduleNode != nil && child.StartByte() == moduleNode.StartByte() {
				continue
			}
			switch child.Type() {
			case "dotted_name", "identifier":
				items = append(items, nodeText(child, fx.src))
			case "aliased_import":
				items = append(items, nodeText(child.ChildByFieldName("name"), fx.src))
			case "wildcard_import":
				items = append(items, "*")
			}
		}
		return []chunk.ImportRecord{{
			Module: module,
			Items:  items,
			Origin: fx.classifier.Classify(module),
		}}
	}
	return nil
}
