package analysis

import (
	"sort"

	"codechunk/internal/chunk"
	"codechunk/internal/index"
)

// span is one line range claimed by a chunk. Imports and Constants chunks
// claim one span per owned statement; every other chunk claims its
// location envelope.
type span struct {
	id    string
	start int
	end   int
}

// SpanOverlap reports two chunks in one file claiming the same lines
// without one enclosing the other. A clean index has none.
type SpanOverlap struct {
	File string `json:"file"`
	A    string `json:"a"`
	B    string `json:"b"`
}

// LineOwners maps each covered line of one file to its innermost owning
// chunk. Class lines belong to the class except where a method or an
// inner class claims them. Lines outside every chunk (module docstrings,
// main guards, blanks) are absent from the map.
func LineOwners(idx *index.Index, file string) map[int]string {
	owners := make(map[int]string)
	for _, sp := range fileSpans(idx, file) {
		for line := sp.start; line <= sp.end; line++ {
			owners[line] = sp.id
		}
	}
	return owners
}

// VerifyCoverage checks that chunk spans nest cleanly in every file: any
// two spans are either disjoint or one encloses the other, so each line
// has a single innermost owner.
func VerifyCoverage(idx *index.Index) []SpanOverlap {
	var issues []SpanOverlap
	for _, file := range idx.Files() {
		spans := fileSpans(idx, file)
		for i := 0; i < len(spans); i++ {
			for j := i + 1; j < len(spans); j++ {
				if crosses(spans[i], spans[j]) {
					issues = append(issues, SpanOverlap{File: file, A: spans[i].id, B: spans[j].id})
				}
			}
		}
	}
	return issues
}

// fileSpans returns the file's spans sorted outermost first, so that
// replaying them in order leaves the innermost owner on every line.
func fileSpans(idx *index.Index, file string) []span {
	var spans []span
	for _, c := range idx.ChunksByFile(file) {
		switch meta := c.Metadata.(type) {
		case chunk.ImportsMeta:
			for _, r := range meta.Spans {
				spans = append(spans, span{id: c.ID, start: r.Start, end: r.End})
			}
		case chunk.ConstantsMeta:
			for _, r := range meta.Spans {
				spans = append(spans, span{id: c.ID, start: r.Start, end: r.End})
			}
		default:
			if c.Location != nil {
				spans = append(spans, span{id: c.ID, start: c.Location.StartLine, end: c.Location.EndLine})
			}
		}
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		wi, wj := spans[i].end-spans[i].start, spans[j].end-spans[j].start
		if wi != wj {
			return wi > wj
		}
		return spans[i].id < spans[j].id
	})
	return spans
}

func crosses(a, b span) bool {
	if a.end < b.start || b.end < a.start {
		return false
	}
	return !encloses(a, b) && !encloses(b, a)
}

// encloses is strict: identical spans from two chunks are a conflict, not
// a nesting.
func encloses(outer, inner span) bool {
	if outer.start == inner.start && outer.end == inner.end {
		return false
	}
	return outer.start <= inner.start && inner.end <= outer.end
}
