package chunk

import (
	"fmt"
	"strings"
)

// EmbeddingText renders the chunk as a single string shaped for embedding
// models: a symbol header, the purpose line when present, then the content.
func (c Chunk) EmbeddingText() string {
	var sb strings.Builder

	where := ""
	if c.Location != nil {
		where = " in " + c.Location.Path
	}
	fmt.Fprintf(&sb, "Symbol: %s (%s)%s\n", c.Qualified(), c.Type, where)

	if purpose := c.Purpose(); purpose != "" {
		fmt.Fprintf(&sb, "Context: %s\n", purpose)
	}

	fmt.Fprintf(&sb, "Content:\n%s\n", c.Content)
	return sb.String()
}
