package extractor

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"codechunk/internal/chunk"
	"codechunk/internal/resolver"
)

// Fact is a relationship hint recorded during extraction. Facts carry
// names as written in the source; resolution to chunk ids happens only
// after every file has been extracted.
type Fact struct {
	Source string             // chunk id the edge starts from
	Kind   chunk.RelationKind // imports, extends or references
	Target string             // dotted module path, base class or call target
	Item   string             // name imported from Target, when one was written
	File   string             // file the fact was recorded in
}

// FileResult is everything extraction produced for one file: the chunks,
// the relationships already certain within the file, and the facts left
// for cross-file resolution.
type FileResult struct {
	Path          string
	Chunks        []chunk.Chunk
	Relationships []chunk.Relationship
	Facts         []Fact
}

// Extractor segments parsed Python files into typed chunks. It holds no
// per-file state, so one instance serves any number of goroutines.
type Extractor struct {
	classifier *resolver.Classifier
}

func New(classifier *resolver.Classifier) *Extractor {
	return &Extractor{classifier: classifier}
}

// ExtractFile parses one file and walks its top-level statements. A syntax
// error anywhere in the file rejects the whole file with a ParseError so
// the caller can record a diagnostic and keep going.
func (e *Extractor) ExtractFile(ctx context.Context, rel string, src []byte) (*FileResult, error) {
	tree, err := parseModule(ctx, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &chunk.ParseError{Path: rel, Msg: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if bad := firstSyntaxError(root); bad != nil {
		return nil, &chunk.ParseError{Path: rel, Line: startLine(bad), Msg: "invalid syntax"}
	}

	fx := &fileExtraction{rel: rel, src: src, classifier: e.classifier}
	fx.walkModule(root)

	return &FileResult{
		Path:          rel,
		Chunks:        fx.chunks,
		Relationships: fx.rels,
		Facts:         fx.facts,
	}, nil
}

// fileExtraction accumulates output while walking a single module tree.
type fileExtraction struct {
	rel        string
	src        []byte
	classifier *resolver.Classifier

	chunks []chunk.Chunk
	rels   []chunk.Relationship
	facts  []Fact
}

// walkModule is the single dispatch point over top-level statements.
// Imports and constants aggregate across the whole module, so they are
// gathered in a first pass before the definitions are chunked in source
// order. Anything else at module level (docstrings, main guards, loose
// expressions) is deliberately left unchunked.
func (fx *fileExtraction) walkModule(module *sitter.Node) {
	var imports, constants []*sitter.Node
	for i := 0; i < int(module.NamedChildCount()); i++ {
		node := module.NamedChild(i)
		switch node.Type() {
		case "import_statement", "import_from_statement", "future_import_statement":
			imports = append(imports, node)
		case "expression_statement":
			if constantAssignment(node, fx.src) != nil {
				constants = append(constants, node)
			}
		}
	}

	fx.collectImports(imports)
	fx.collectConstants(constants)

	for i := 0; i < int(module.NamedChildCount()); i++ {
		node := module.NamedChild(i)
		switch node.Type() {
		case "function_definition":
			fx.extractFunction(node, node, nil)
		case "class_definition":
			fx.extractClass(node, node, nil, "")
		case "decorated_definition":
			def := node.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			decorators := decoratorsOf(node, fx.src)
			switch def.Type() {
			case "function_definition":
				fx.extractFunction(node, def, decorators)
			case "class_definition":
				fx.extractClass(node, def, decorators, "")
			}
		}
	}
}

func (fx *fileExtraction) addChunk(c chunk.Chunk) {
	fx.chunks = append(fx.chunks, c)
}

func (fx *fileExtraction) addContains(parent, child string) {
	fx.rels = append(fx.rels, chunk.Relationship{
		Source:     parent,
		Target:     child,
		Kind:       chunk.RelationContains,
		Confidence: 1.0,
	})
}

func (fx *fileExtraction) addFact(source string, kind chunk.RelationKind, target string) {
	fx.facts = append(fx.facts, Fact{Source: source, Kind: kind, Target: target, File: fx.rel})
}
