package resolver

import (
	"testing"

	"codechunk/internal/chunk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureFiles = []string{
	"main.py",
	"app/__init__.py",
	"app/utils.py",
	"app/models/__init__.py",
	"app/models/product.py",
	"tools/standalone.py",
}

func TestModuleIndex_Resolve(t *testing.T) {
	idx := BuildModuleIndex(fixtureFiles)

	cases := []struct {
		module string
		want   string
		ok     bool
	}{
		{"main", "main.py", true},
		{"app", "app/__init__.py", true},
		{"app.utils", "app/utils.py", true},
		{"app.models", "app/models/__init__.py", true},
		{"app.models.product", "app/models/product.py", true},
		{"tools.standalone", "tools/standalone.py", true},
		{"tools", "", false}, // namespace package, no __init__
		{"app.missing", "", false},
		{"requests", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.module, func(t *testing.T) {
			got, ok := idx.Resolve(tc.module)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestModuleIndex_Contains(t *testing.T) {
	idx := BuildModuleIndex(fixtureFiles)

	assert.True(t, idx.Contains("app.models.product"))
	assert.True(t, idx.Contains("tools"), "namespace packages count as local")
	assert.False(t, idx.Contains("requests"))
	assert.False(t, idx.Contains(""))
}

func TestModuleIndex_ResolveRelative(t *testing.T) {
	idx := BuildModuleIndex(fixtureFiles)

	cases := []struct {
		name   string
		from   string
		dots   int
		suffix string
		want   string
		ok     bool
	}{
		{"sibling module", "app/models/product.py", 1, "", "app/models/__init__.py", true},
		{"current package module", "app/utils.py", 1, "models", "app/models/__init__.py", true},
		{"parent package", "app/models/product.py", 2, "utils", "app/utils.py", true},
		{"deep target", "app/utils.py", 1, "models.product", "app/models/product.py", true},
		{"escapes root", "main.py", 2, "x", "", false},
		{"missing", "app/utils.py", 1, "nope", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := idx.ResolveRelative(tc.from, tc.dots, tc.suffix)
			require.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	idx := BuildModuleIndex(fixtureFiles)
	c := NewClassifier(idx)

	cases := []struct {
		module string
		want   chunk.ImportOrigin
	}{
		{"os", chunk.OriginStandard},
		{"os.path", chunk.OriginStandard},
		{"urllib.parse", chunk.OriginStandard},
		{"requests", chunk.OriginThirdParty},
		{"fastapi", chunk.OriginThirdParty},
		{".utils", chunk.OriginLocal},
		{"..models", chunk.OriginLocal},
		{"app.models.product", chunk.OriginLocal},
		{"tools", chunk.OriginLocal},
		// Unresolvable paths default to third_party, even with a local-looking prefix.
		{"app.nonexistent", chunk.OriginThirdParty},
	}

	for _, tc := range cases {
		t.Run(tc.module, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.module))
		})
	}
}
