package chunk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildID(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		a := BuildID("app/models/product.py", TypeClass, "Product", "class Product(Base):")
		b := BuildID("app/models/product.py", TypeClass, "Product", "class Product(Base):")
		assert.Equal(t, a, b)
	})

	t.Run("Distinct per type", func(t *testing.T) {
		cls := BuildID("app/util.py", TypeClass, "Helper", "class Helper:")
		fn := BuildID("app/util.py", TypeFunction, "Helper", "def Helper():")
		assert.NotEqual(t, cls, fn)
	})

	t.Run("Distinct per file", func(t *testing.T) {
		a := BuildID("app/a.py", TypeFunction, "run", "def run():")
		b := BuildID("app/b.py", TypeFunction, "run", "def run():")
		assert.NotEqual(t, a, b)
	})

	t.Run("Signature separates redeclarations", func(t *testing.T) {
		first := BuildID("app/a.py", TypeFunction, "run", "def run(x):")
		second := BuildID("app/a.py", TypeFunction, "run", "def run(x, y):")
		assert.NotEqual(t, first, second)
	})

	t.Run("Whitespace canonicalized", func(t *testing.T) {
		a := BuildID("app/a.py", TypeFunction, "run", "def run(x,  y):")
		b := BuildID("app/a.py", TypeFunction, "run", "def run(x, y):")
		assert.Equal(t, a, b)
	})

	t.Run("Readable prefix", func(t *testing.T) {
		id := BuildID("app/models/product.py", TypeMethod, "Product.get_price", "def get_price(self):")
		assert.Contains(t, id, "app/models/product.py:Product.get_price:")
	})
}

func TestChunk_JSONRoundTrip(t *testing.T) {
	cases := []Chunk{
		{
			ID:      "app/models/product.py:Product:abc123",
			Type:    TypeClass,
			Name:    "Product",
			Content: "class Product(Base):\n    \"\"\"A product.\"\"\"\n    def get_price(self) -> float: ...",
			Location: &Location{
				Path:      "app/models/product.py",
				StartLine: 5,
				EndLine:   20,
			},
			Metadata: ClassMeta{
				Purpose:     "A product.",
				Methods:     []string{"get_price", "_validate"},
				Attributes:  []string{"name", "price"},
				BaseClasses: []string{"Base"},
			},
		},
		{
			ID:      "app/models/product.py:Product.get_price:def456",
			Type:    TypeMethod,
			Name:    "get_price",
			Content: "def get_price(self) -> float:\n    return self.price",
			Location: &Location{
				Path:      "app/models/product.py",
				StartLine: 8,
				EndLine:   9,
			},
			Metadata: MethodMeta{
				Purpose:        "Method get_price",
				Class:          "Product",
				Parameters:     []Param{{Name: "self"}},
				ReturnType:     "float",
				Access:         AccessPublic,
				Kind:           MethodInstance,
				StatementCount: 1,
			},
		},
		{
			ID:      "app/main.py:module_imports:aaa111",
			Type:    TypeImports,
			Name:    "module_imports",
			Content: "import os\nfrom .utils import helper",
			Location: &Location{
				Path:      "app/main.py",
				StartLine: 1,
				EndLine:   2,
			},
			Metadata: ImportsMeta{
				Purpose: "Module dependencies and imports",
				Imports: []ImportRecord{
					{Module: "os", Items: []string{"os"}, Origin: OriginStandard},
					{Module: ".utils", Items: []string{"helper"}, Origin: OriginLocal},
				},
				Spans: []LineRange{{Start: 1, End: 1}, {Start: 2, End: 2}},
			},
		},
		{
			ID:      "app:app:bbb222",
			Type:    TypePackage,
			Name:    "app",
			Content: "Package: app\nPurpose: Package functionality\n\nContains 2 files:\n- main.py\n- utils.py",
			Metadata: PackageMeta{
				Purpose:     "Package functionality",
				FileCount:   2,
				Files:       []string{"main.py", "utils.py"},
				Subpackages: []string{"app.models"},
			},
		},
		{
			ID:      "app/settings.py:module_constants:ccc333",
			Type:    TypeConstants,
			Name:    "module_constants",
			Content: "MAX_RETRIES = 3",
			Location: &Location{
				Path:      "app/settings.py",
				StartLine: 3,
				EndLine:   3,
			},
			Metadata: ConstantsMeta{
				Purpose: "Module-level constants and configuration",
				Constants: []ConstantRecord{
					{Name: "MAX_RETRIES", InferredType: "int", Value: "3"},
				},
				Spans: []LineRange{{Start: 3, End: 3}},
			},
		},
		{
			ID:      "app/utils.py:helper:ddd444",
			Type:    TypeFunction,
			Name:    "helper",
			Content: "def helper():\n    pass",
			Location: &Location{
				Path:      "app/utils.py",
				StartLine: 1,
				EndLine:   2,
			},
			Metadata: FunctionMeta{
				Purpose:        "Function helper",
				StatementCount: 1,
			},
		},
	}

	for _, original := range cases {
		t.Run(string(original.Type), func(t *testing.T) {
			data, err := json.Marshal(original)
			require.NoError(t, err)

			var decoded Chunk
			require.NoError(t, json.Unmarshal(data, &decoded))

			assert.Equal(t, original, decoded, "round trip must preserve every field including the typed metadata")
		})
	}
}

func TestDecodeMetadata_UnknownType(t *testing.T) {
	_, err := DecodeMetadata(Type("module"), []byte(`{}`))
	assert.Error(t, err)
}

func TestChunk_Qualified(t *testing.T) {
	m := Chunk{
		Type:     TypeMethod,
		Name:     "get_price",
		Metadata: MethodMeta{Class: "Product"},
	}
	assert.Equal(t, "Product.get_price", m.Qualified())

	f := Chunk{Type: TypeFunction, Name: "helper", Metadata: FunctionMeta{}}
	assert.Equal(t, "helper", f.Qualified())
}

func TestChunk_EmbeddingText(t *testing.T) {
	c := Chunk{
		ID:       "app/utils.py:helper:ddd444",
		Type:     TypeFunction,
		Name:     "helper",
		Content:  "def helper():\n    pass",
		Location: &Location{Path: "app/utils.py", StartLine: 1, EndLine: 2},
		Metadata: FunctionMeta{Purpose: "Small helper."},
	}

	text := c.EmbeddingText()
	assert.Contains(t, text, "Symbol: helper (function) in app/utils.py")
	assert.Contains(t, text, "Context: Small helper.")
	assert.Contains(t, text, "def helper():")
}
