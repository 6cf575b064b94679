// Package summary folds per-file chunks upward into one Package chunk
// per directory level, completing the containment tree.
package summary

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"codechunk/internal/chunk"
	"codechunk/internal/graph"
)

var packagePurposes = map[string]string{
	"api":      "API endpoints and route handlers",
	"models":   "Database models and data structures",
	"schemas":  "Data validation and serialization schemas",
	"services": "Business logic and service layer",
	"utils":    "Utility functions and helpers",
	"core":     "Core configuration and setup",
	"tests":    "Test suite",
}

var httpVerbs = map[string]bool{
	"get":     true,
	"post":    true,
	"put":     true,
	"delete":  true,
	"patch":   true,
	"head":    true,
	"options": true,
}

// Summarizer builds Package chunks from a completed registry. Each
// package's summary depends only on its own direct files and the names of
// its subpackages, so an unrelated change elsewhere never rewrites it.
type Summarizer struct {
	rootName string
}

func New(rootName string) *Summarizer {
	if rootName == "" || rootName == "." {
		rootName = "root"
	}
	return &Summarizer{rootName: rootName}
}

// Summarize emits one Package chunk per directory that holds source files,
// plus connecting chunks for bare ancestor directories, so contains edges
// form a single tree rooted at the scan root.
func (s *Summarizer) Summarize(registry *graph.Registry) ([]chunk.Chunk, []chunk.Relationship) {
	files := registry.Files()
	if len(files) == 0 {
		return nil, nil
	}

	dirs := make(map[string][]string)
	for _, f := range files {
		dir := path.Dir(f)
		dirs[dir] = append(dirs[dir], f)
	}
	for dir := range dirs {
		for d := dir; d != "."; d = path.Dir(d) {
			if _, ok := dirs[d]; !ok {
				dirs[d] = nil
			}
		}
	}
	if _, ok := dirs["."]; !ok {
		dirs["."] = nil
	}

	ordered := make([]string, 0, len(dirs))
	children := make(map[string][]string)
	for dir := range dirs {
		ordered = append(ordered, dir)
		if dir != "." {
			parent := path.Dir(dir)
			children[parent] = append(children[parent], dir)
		}
	}
	sort.Strings(ordered)
	for _, kids := range children {
		sort.Strings(kids)
	}

	ids := make(map[string]string, len(dirs))
	var chunks []chunk.Chunk
	for _, dir := range ordered {
		pkg := s.buildPackage(registry, dir, dirs[dir], children[dir])
		ids[dir] = pkg.ID
		chunks = append(chunks, pkg)
	}

	var rels []chunk.Relationship
	for _, dir := range ordered {
		for _, child := range children[dir] {
			rels = append(rels, containsEdge(ids[dir], ids[child]))
		}
		for _, file := range dirs[dir] {
			for _, c := range registry.ByFile(file) {
				if fileLevel(c) {
					rels = append(rels, containsEdge(ids[dir], c.ID))
				}
			}
		}
	}
	return chunks, rels
}

func (s *Summarizer) buildPackage(registry *graph.Registry, dir string, files, subdirs []string) chunk.Chunk {
	name := s.packageName(dir)

	var classes, functions, routes, tables []string
	for _, file := range files {
		for _, c := range registry.ByFile(file) {
			switch meta := c.Metadata.(type) {
			case chunk.ClassMeta:
				if !strings.Contains(c.Name, ".") {
					classes = append(classes, c.Name)
				}
				if isModelClass(meta) {
					tables = append(tables, c.Name)
				}
			case chunk.FunctionMeta:
				functions = append(functions, c.Name)
				routes = append(routes, routesOf(meta.Decorators)...)
			case chunk.MethodMeta:
				routes = append(routes, routesOf(meta.Decorators)...)
			}
		}
	}
	sort.Strings(classes)
	sort.Strings(functions)
	routes = sortedUnique(routes)
	tables = sortedUnique(tables)

	baseNames := make([]string, 0, len(files))
	for _, f := range files {
		baseNames = append(baseNames, path.Base(f))
	}
	sort.Strings(baseNames)

	subNames := make([]string, 0, len(subdirs))
	for _, d := range subdirs {
		subNames = append(subNames, path.Base(d))
	}
	sort.Strings(subNames)

	var features []string
	if len(classes) > 0 {
		features = append(features, "- Classes: "+strings.Join(classes, ", "))
	}
	if len(functions) > 0 {
		features = append(features, "- Functions: "+strings.Join(functions, ", "))
	}

	purpose := purposeFor(dir, name)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Package: %s\n", name)
	fmt.Fprintf(&sb, "Purpose: %s\n", purpose)
	if len(baseNames) > 0 {
		fmt.Fprintf(&sb, "Contains %d files: %s\n", len(baseNames), strings.Join(baseNames, ", "))
	} else {
		sb.WriteString("Contains no direct source files\n")
	}
	if len(subNames) > 0 {
		fmt.Fprintf(&sb, "Subpackages: %s\n", strings.Join(subNames, ", "))
	}
	if len(features) > 0 {
		sb.WriteString("Features:\n")
		sb.WriteString(strings.Join(features, "\n"))
		sb.WriteString("\n")
	}

	return chunk.Chunk{
		ID:      chunk.BuildID(dir, chunk.TypePackage, name, ""),
		Type:    chunk.TypePackage,
		Name:    name,
		Content: strings.TrimSuffix(sb.String(), "\n"),
		Metadata: chunk.PackageMeta{
			Purpose:        purpose,
			FileCount:      len(baseNames),
			Files:          baseNames,
			Subpackages:    subNames,
			Classes:        classes,
			Functions:      functions,
			APIRoutes:      routes,
			DatabaseTables: tables,
			Features:       features,
		},
	}
}

func (s *Summarizer) packageName(dir string) string {
	if dir == "." {
		return s.rootName
	}
	return strings.ReplaceAll(dir, "/", ".")
}

func purposeFor(dir, name string) string {
	if p, ok := packagePurposes[path.Base(dir)]; ok {
		return p
	}
	if dir == "." {
		return "Project root package"
	}
	return "Source code for the " + name + " package"
}

// fileLevel reports whether a chunk hangs directly off its file's package:
// imports, constants, top-level functions and top-level classes. Methods
// and inner classes are contained by their class instead.
func fileLevel(c chunk.Chunk) bool {
	switch c.Type {
	case chunk.TypeImports, chunk.TypeConstants, chunk.TypeFunction:
		return true
	case chunk.TypeClass:
		return !strings.Contains(c.Name, ".")
	default:
		return false
	}
}

func containsEdge(parent, child string) chunk.Relationship {
	return chunk.Relationship{
		Source:     parent,
		Target:     child,
		Kind:       chunk.RelationContains,
		Confidence: 1.0,
	}
}

// routesOf pattern-matches route decorators like app.get("/items"). The
// hints are advisory; anything unrecognized is simply skipped.
func routesOf(decorators []string) []string {
	var out []string
	for _, dec := range decorators {
		name := dec
		if i := strings.IndexByte(name, '('); i >= 0 {
			name = name[:i]
		}
		verb := name
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			verb = name[i+1:]
		}
		if !httpVerbs[strings.ToLower(verb)] {
			continue
		}
		if p := quotedArg(dec); p != "" {
			out = append(out, strings.ToUpper(verb)+" "+p)
		}
	}
	return out
}

func quotedArg(dec string) string {
	for _, q := range []byte{'"', '\''} {
		start := strings.IndexByte(dec, q)
		if start < 0 {
			continue
		}
		rest := dec[start+1:]
		if end := strings.IndexByte(rest, q); end >= 0 {
			return rest[:end]
		}
	}
	return ""
}

// isModelClass pattern-matches ORM conventions: a __tablename__ attribute
// or a declarative-base parent.
func isModelClass(meta chunk.ClassMeta) bool {
	for _, attr := range meta.Attributes {
		if attr == "__tablename__" {
			return true
		}
	}
	for _, base := range meta.BaseClasses {
		switch base {
		case "Base", "Model", "db.Model", "DeclarativeBase":
			return true
		}
	}
	return false
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	sort.Strings(in)
	out := in[:1]
	for _, s := range in[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
