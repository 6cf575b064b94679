package extractor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codechunk/internal/chunk"
	"codechunk/internal/resolver"
)

func newTestExtractor(paths ...string) *Extractor {
	modules := resolver.BuildModuleIndex(paths)
	return New(resolver.NewClassifier(modules))
}

func extractSource(t *testing.T, ext *Extractor, rel, src string) *FileResult {
	t.Helper()
	result, err := ext.ExtractFile(context.Background(), rel, []byte(src))
	require.NoError(t, err)
	return result
}

func TestExtractor_ExtractFile(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "product.py"))
	require.NoError(t, err)

	ext := newTestExtractor("shop/__init__.py", "shop/product.py", "shop/utils.py")
	result, err := ext.ExtractFile(context.Background(), "shop/product.py", src)
	require.NoError(t, err)

	// Group chunks by name for easier lookup
	chunksByName := make(map[string]chunk.Chunk)
	for _, c := range result.Chunks {
		chunksByName[c.Name] = c
	}

	t.Run("Overall Count", func(t *testing.T) {
		assert.Len(t, result.Chunks, 8, "imports, constants, Product, four methods, fetch_catalog")
	})

	t.Run("Imports", func(t *testing.T) {
		c, ok := chunksByName["module_imports"]
		require.True(t, ok)
		assert.Equal(t, chunk.TypeImports, c.Type)
		assert.Equal(t, "import os\nimport requests\nfrom .utils import helper", c.Content)
		assert.Equal(t, 3, c.Location.StartLine)
		assert.Equal(t, 5, c.Location.EndLine)

		meta := c.Metadata.(chunk.ImportsMeta)
		require.Len(t, meta.Imports, 3)
		assert.Equal(t, "os", meta.Imports[0].Module)
		assert.Equal(t, chunk.OriginStandard, meta.Imports[0].Origin)
		assert.Equal(t, "requests", meta.Imports[1].Module)
		assert.Equal(t, chunk.OriginThirdParty, meta.Imports[1].Origin)
		assert.Equal(t, ".utils", meta.Imports[2].Module)
		assert.Equal(t, chunk.OriginLocal, meta.Imports[2].Origin)
		assert.Equal(t, []string{"helper"}, meta.Imports[2].Items)
		assert.Equal(t, []chunk.LineRange{{Start: 3, End: 3}, {Start: 4, End: 4}, {Start: 5, End: 5}}, meta.Spans)
	})

	t.Run("Constants", func(t *testing.T) {
		c, ok := chunksByName["module_constants"]
		require.True(t, ok)
		assert.Equal(t, chunk.TypeConstants, c.Type)
		assert.Equal(t, "TAX_RATE = 0.21\nMAX_NAME_LENGTH: int = 120", c.Content)

		meta := c.Metadata.(chunk.ConstantsMeta)
		require.Len(t, meta.Constants, 2)
		assert.Equal(t, chunk.ConstantRecord{Name: "TAX_RATE", InferredType: "float", Value: "0.21"}, meta.Constants[0])
		assert.Equal(t, chunk.ConstantRecord{Name: "MAX_NAME_LENGTH", InferredType: "int", Value: "120"}, meta.Constants[1])
	})

	t.Run("Class", func(t *testing.T) {
		c, ok := chunksByName["Product"]
		require.True(t, ok)
		assert.Equal(t, chunk.TypeClass, c.Type)
		assert.Equal(t, 11, c.Location.StartLine)
		assert.Equal(t, 31, c.Location.EndLine)

		meta := c.Metadata.(chunk.ClassMeta)
		assert.Equal(t, "A sellable product.", meta.Purpose)
		assert.Equal(t, []string{"__init__", "get_price", "_validate", "from_dict"}, meta.Methods)
		assert.Equal(t, []string{"category", "name", "price"}, meta.Attributes)
		assert.Equal(t, []string{"Base"}, meta.BaseClasses)

		assert.Equal(t, "class Product(Base):", strings.Split(c.Content, "\n")[0])
		assert.Contains(t, c.Content, `"""A sellable product."""`)
		assert.Contains(t, c.Content, "def get_price(self) -> float: ...")
		assert.NotContains(t, c.Content, "return", "method bodies belong to Method chunks")
	})

	t.Run("Method Access Levels", func(t *testing.T) {
		getPrice := chunksByName["get_price"]
		meta := getPrice.Metadata.(chunk.MethodMeta)
		assert.Equal(t, chunk.AccessPublic, meta.Access)
		assert.Equal(t, chunk.MethodInstance, meta.Kind)
		assert.Equal(t, "Product", meta.Class)
		assert.Equal(t, "float", meta.ReturnType)
		assert.Equal(t, "Return the price including tax.", meta.Purpose)
		assert.Equal(t, 1, meta.StatementCount)

		validate := chunksByName["_validate"]
		vmeta := validate.Metadata.(chunk.MethodMeta)
		assert.Equal(t, chunk.AccessProtected, vmeta.Access)
		assert.Equal(t, 3, vmeta.StatementCount)

		init := chunksByName["__init__"]
		assert.Equal(t, chunk.AccessPublic, init.Metadata.(chunk.MethodMeta).Access, "dunders are interface, not privates")
	})

	t.Run("Static Method", func(t *testing.T) {
		c, ok := chunksByName["from_dict"]
		require.True(t, ok)
		meta := c.Metadata.(chunk.MethodMeta)
		assert.Equal(t, chunk.MethodStatic, meta.Kind)
		assert.Equal(t, []string{"staticmethod"}, meta.Decorators)
		assert.Equal(t, 29, c.Location.StartLine, "decorator line belongs to the method span")
		require.Len(t, meta.Parameters, 1)
		assert.Equal(t, chunk.Param{Name: "data", Annotation: "dict"}, meta.Parameters[0])
	})

	t.Run("Async Function", func(t *testing.T) {
		c, ok := chunksByName["fetch_catalog"]
		require.True(t, ok)
		assert.Equal(t, chunk.TypeFunction, c.Type)

		meta := c.Metadata.(chunk.FunctionMeta)
		assert.True(t, meta.IsAsync)
		assert.Equal(t, "list", meta.ReturnType)
		require.Len(t, meta.Parameters, 2)
		assert.Equal(t, chunk.Param{Name: "url", Annotation: "str"}, meta.Parameters[0])
		assert.Equal(t, chunk.Param{Name: "timeout", Annotation: "float", Default: "5.0"}, meta.Parameters[1])
	})

	t.Run("Nested Function Stays Inline", func(t *testing.T) {
		_, ok := chunksByName["parse"]
		assert.False(t, ok, "nested defs are not independently callable")
		assert.Contains(t, chunksByName["fetch_catalog"].Content, "def parse(payload):")
	})

	t.Run("Contains Edges", func(t *testing.T) {
		classID := chunksByName["Product"].ID
		var children []string
		for _, rel := range result.Relationships {
			require.Equal(t, chunk.RelationContains, rel.Kind)
			require.Equal(t, classID, rel.Source)
			children = append(children, rel.Target)
		}
		assert.Len(t, children, 4)
		assert.Contains(t, children, chunksByName["get_price"].ID)
		assert.Contains(t, children, chunksByName["_validate"].ID)
	})

	t.Run("Facts", func(t *testing.T) {
		byKind := make(map[chunk.RelationKind][]Fact)
		for _, f := range result.Facts {
			byKind[f.Kind] = append(byKind[f.Kind], f)
		}

		imports := byKind[chunk.RelationImports]
		require.Len(t, imports, 3)
		assert.Equal(t, chunksByName["module_imports"].ID, imports[0].Source)
		assert.Equal(t, ".utils", imports[2].Target)
		assert.Equal(t, "helper", imports[2].Item)

		extends := byKind[chunk.RelationExtends]
		require.Len(t, extends, 1)
		assert.Equal(t, chunksByName["Product"].ID, extends[0].Source)
		assert.Equal(t, "Base", extends[0].Target)

		var refTargets []string
		for _, f := range byKind[chunk.RelationReferences] {
			refTargets = append(refTargets, f.Target)
		}
		assert.Contains(t, refTargets, "helper")
	})
}

func TestExtractor_Deterministic(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "product.py"))
	require.NoError(t, err)
	ext := newTestExtractor("shop/product.py")

	first, err := ext.ExtractFile(context.Background(), "shop/product.py", src)
	require.NoError(t, err)
	second, err := ext.ExtractFile(context.Background(), "shop/product.py", src)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtractor_ParseError(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "broken.py"))
	require.NoError(t, err)

	ext := newTestExtractor("broken.py")
	result, err := ext.ExtractFile(context.Background(), "broken.py", src)
	assert.Nil(t, result)

	var parseErr *chunk.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "broken.py", parseErr.Path)
	assert.Equal(t, 1, parseErr.Line)
}

func TestExtractor_InnerClass(t *testing.T) {
	src := `class Outer:
    class Inner:
        def ping(self):
            return "pong"
`
	ext := newTestExtractor("nest.py")
	result := extractSource(t, ext, "nest.py", src)

	byName := make(map[string]chunk.Chunk)
	for _, c := range result.Chunks {
		byName[c.Name] = c
	}

	require.Contains(t, byName, "Outer")
	inner, ok := byName["Outer.Inner"]
	require.True(t, ok, "inner classes carry their dotted name")

	ping, ok := byName["ping"]
	require.True(t, ok)
	assert.Equal(t, "Outer.Inner", ping.Metadata.(chunk.MethodMeta).Class)

	parentOf := make(map[string]string)
	for _, rel := range result.Relationships {
		parentOf[rel.Target] = rel.Source
	}
	assert.Equal(t, byName["Outer"].ID, parentOf[inner.ID])
	assert.Equal(t, inner.ID, parentOf[ping.ID])
}

func TestExtractor_RelativeSubmoduleImport(t *testing.T) {
	src := "from . import utils\nfrom .. import models\n"
	ext := newTestExtractor("pkg/sub/mod.py", "pkg/sub/utils.py", "pkg/models.py")
	result := extractSource(t, ext, "pkg/sub/mod.py", src)

	var targets []string
	for _, f := range result.Facts {
		require.Equal(t, chunk.RelationImports, f.Kind)
		targets = append(targets, f.Target)
	}
	assert.Equal(t, []string{".utils", "..models"}, targets)
}

func TestExtractor_DecoratedFunction(t *testing.T) {
	src := `@app.get("/items")
def list_items():
    return []
`
	ext := newTestExtractor("api.py")
	result := extractSource(t, ext, "api.py", src)

	require.Len(t, result.Chunks, 1)
	c := result.Chunks[0]
	assert.Equal(t, []string{`app.get("/items")`}, c.Metadata.(chunk.FunctionMeta).Decorators)
	assert.Equal(t, 1, c.Location.StartLine)
	assert.True(t, strings.HasPrefix(c.Content, "@app.get"))
}

func TestExtractor_ConstantTruncation(t *testing.T) {
	src := "BANNER = \"" + strings.Repeat("x", 500) + "\"\n"
	ext := newTestExtractor("conf.py")
	result := extractSource(t, ext, "conf.py", src)

	require.Len(t, result.Chunks, 1)
	meta := result.Chunks[0].Metadata.(chunk.ConstantsMeta)
	require.Len(t, meta.Constants, 1)

	rec := meta.Constants[0]
	assert.Equal(t, "str", rec.InferredType)
	assert.True(t, rec.Truncated)
	assert.True(t, strings.HasSuffix(rec.Value, "..."))
	assert.Len(t, []rune(rec.Value), valuePreviewLimit+3)
}

func TestExtractor_NoChunksForAmbientCode(t *testing.T) {
	src := `"""Entry point."""

if __name__ == "__main__":
    print("hi")
`
	ext := newTestExtractor("main.py")
	result := extractSource(t, ext, "main.py", src)
	assert.Empty(t, result.Chunks)
	assert.Empty(t, result.Facts)
}
