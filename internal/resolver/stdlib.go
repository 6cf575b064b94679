package resolver

// pythonStdlib holds the top-level standard library module names used for
// import classification. Classification looks at the first dotted segment
// only, so "os.path" and "urllib.parse" resolve through "os" and "urllib".
var pythonStdlib = map[string]bool{
	"abc":             true,
	"argparse":        true,
	"asyncio":         true,
	"base64":          true,
	"collections":     true,
	"configparser":    true,
	"contextlib":      true,
	"copy":            true,
	"csv":             true,
	"dataclasses":     true,
	"datetime":        true,
	"decimal":         true,
	"email":           true,
	"enum":            true,
	"functools":       true,
	"glob":            true,
	"hashlib":         true,
	"heapq":           true,
	"html":            true,
	"http":            true,
	"inspect":         true,
	"io":              true,
	"itertools":       true,
	"json":            true,
	"logging":         true,
	"math":            true,
	"multiprocessing": true,
	"os":              true,
	"pathlib":         true,
	"pickle":          true,
	"platform":        true,
	"queue":           true,
	"random":          true,
	"re":              true,
	"secrets":         true,
	"shutil":          true,
	"signal":          true,
	"socket":          true,
	"sqlite3":         true,
	"statistics":      true,
	"string":          true,
	"struct":          true,
	"subprocess":      true,
	"sys":             true,
	"tempfile":        true,
	"textwrap":        true,
	"threading":       true,
	"time":            true,
	"traceback":       true,
	"types":           true,
	"typing":          true,
	"unittest":        true,
	"urllib":          true,
	"uuid":            true,
	"warnings":        true,
	"weakref":         true,
	"xml":             true,
}

// IsStandard reports whether the dotted module path belongs to the Python
// standard library.
func IsStandard(module string) bool {
	return pythonStdlib[topLevel(module)]
}
