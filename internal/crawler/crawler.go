package crawler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds the compiled glob plus a root-level variant for
// "**/"-prefixed patterns, which never match entries without a slash.
type compiledPattern struct {
	glob     glob.Glob
	rootGlob glob.Glob
}

// Crawler is the input boundary: it decides which files are part of the
// codebase and hands their text to the core. It never parses anything.
type Crawler struct {
	ignore []compiledPattern
}

// NewCrawler compiles the ignore globs. Patterns match root-relative,
// slash-separated paths.
func NewCrawler(ignore []string) (*Crawler, error) {
	c := &Crawler{}
	for _, pattern := range ignore {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", pattern, err)
		}
		cp := compiledPattern{glob: g}
		if simplified, ok := strings.CutPrefix(pattern, "**/"); ok {
			rg, err := glob.Compile(simplified, '/')
			if err != nil {
				return nil, fmt.Errorf("ignore pattern %q: %w", pattern, err)
			}
			cp.rootGlob = rg
		}
		c.ignore = append(c.ignore, cp)
	}
	return c, nil
}

// ListSourceFiles walks root and returns the sorted root-relative paths of
// every Python source file that is not ignored. Walk errors propagate; the
// crawler does not retry I/O.
func (c *Crawler) ListSourceFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if c.shouldIgnore(rel) || c.shouldIgnore(rel+"/**") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".py") {
			return nil
		}
		if c.shouldIgnore(rel) {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// Load reads one listed file. Read failures propagate to the caller.
func (c *Crawler) Load(root, rel string) ([]byte, error) {
	src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return src, nil
}

func (c *Crawler) shouldIgnore(rel string) bool {
	rootLevel := !strings.Contains(strings.TrimSuffix(rel, "/**"), "/")
	for _, cp := range c.ignore {
		if cp.glob.Match(rel) {
			return true
		}
		if rootLevel && cp.rootGlob != nil && cp.rootGlob.Match(rel) {
			return true
		}
	}
	return false
}
