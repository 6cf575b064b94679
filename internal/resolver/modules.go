package resolver

import (
	"path"
	"strings"
)

// ModuleIndex maps the scanned codebase's dotted module paths to the files
// that define them. It is built once from the complete file list, before
// extraction starts, and is read-only afterwards.
type ModuleIndex struct {
	// files: "app.models.product" -> "app/models/product.py",
	// "app.models" -> "app/models/__init__.py".
	files map[string]string
	// dirs: every dotted package path seen, including namespace packages
	// without an __init__.py.
	dirs map[string]bool
}

// BuildModuleIndex derives the dotted-path view from root-relative,
// slash-separated source file paths.
func BuildModuleIndex(paths []string) *ModuleIndex {
	idx := &ModuleIndex{
		files: make(map[string]string, len(paths)),
		dirs:  make(map[string]bool),
	}

	for _, rel := range paths {
		if !strings.HasSuffix(rel, ".py") {
			continue
		}

		dir := path.Dir(rel)
		base := strings.TrimSuffix(path.Base(rel), ".py")

		if base == "__init__" {
			idx.files[dottedDir(dir)] = rel
		} else {
			module := base
			if d := dottedDir(dir); d != "" {
				module = d + "." + base
			}
			idx.files[module] = rel
		}

		for d := dir; d != "." && d != "/" && d != ""; d = path.Dir(d) {
			idx.dirs[dottedDir(d)] = true
		}
	}

	return idx
}

// Resolve maps an absolute dotted module path to the file exposing its
// top-level definitions: the module file itself or the package __init__.
func (idx *ModuleIndex) Resolve(module string) (string, bool) {
	rel, ok := idx.files[module]
	return rel, ok
}

// Contains reports whether the dotted path names anything inside the
// scanned tree, including namespace packages that resolve to no file.
func (idx *ModuleIndex) Contains(module string) bool {
	if module == "" {
		return false
	}
	if _, ok := idx.files[module]; ok {
		return true
	}
	return idx.dirs[module]
}

// ResolveRelative resolves a relative import issued from fromRel. dots is
// the number of leading dots (1 = current package), suffix the dotted path
// after them ("" for "from . import x" rewritten by the extractor).
func (idx *ModuleIndex) ResolveRelative(fromRel string, dots int, suffix string) (string, bool) {
	if dots < 1 {
		return "", false
	}

	dir := path.Dir(fromRel)
	for i := 1; i < dots; i++ {
		if dir == "." || dir == "/" || dir == "" {
			return "", false
		}
		dir = path.Dir(dir)
	}

	base := dottedDir(dir)
	module := suffix
	if base != "" && suffix != "" {
		module = base + "." + suffix
	} else if suffix == "" {
		module = base
	}

	if module == "" {
		// Relative import escaping past the scanned root.
		return "", false
	}
	return idx.Resolve(module)
}

func dottedDir(dir string) string {
	if dir == "." || dir == "/" || dir == "" {
		return ""
	}
	return strings.ReplaceAll(dir, "/", ".")
}

func topLevel(module string) string {
	module = strings.TrimLeft(module, ".")
	if i := strings.IndexByte(module, '.'); i >= 0 {
		return module[:i]
	}
	return module
}
