package chunk

import "fmt"

// ParseError reports a file whose text is not valid syntax. It is the one
// recoverable failure in the pipeline: the file is skipped and the run
// continues.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Msg)
}

// Diagnostic is the serialized form of a per-file parse error, surfaced to
// the caller alongside the index instead of failing the run.
type Diagnostic struct {
	Path    string `json:"path"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// Diagnostic converts the error into its index-level record.
func (e *ParseError) Diagnostic() Diagnostic {
	return Diagnostic{Path: e.Path, Line: e.Line, Message: e.Msg}
}
