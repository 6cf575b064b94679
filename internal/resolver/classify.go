package resolver

import (
	"strings"

	"codechunk/internal/chunk"
)

// Classifier decides the origin of an import. The decision is a pure
// function of the import's literal path plus the scanned file set; it
// never executes code.
type Classifier struct {
	modules *ModuleIndex
}

func NewClassifier(modules *ModuleIndex) *Classifier {
	return &Classifier{modules: modules}
}

// Classify maps a dotted module path to standard, third_party or local.
// Relative imports are always local; unresolvable absolute paths default
// to third_party rather than guessing package structure.
func (c *Classifier) Classify(module string) chunk.ImportOrigin {
	if module == "" || strings.HasPrefix(module, ".") {
		return chunk.OriginLocal
	}
	if IsStandard(module) {
		return chunk.OriginStandard
	}
	if c.modules != nil && c.modules.Contains(module) {
		return chunk.OriginLocal
	}
	return chunk.OriginThirdParty
}
