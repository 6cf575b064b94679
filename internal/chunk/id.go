package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// BuildID creates a deterministic chunk ID from the identity fields plus a
// canonical signature hash. Re-running on unchanged source reproduces the
// same ID; the signature component separates same-named redeclarations in
// one file.
func BuildID(path string, t Type, qualified, signature string) string {
	if path == "" {
		path = "_"
	}
	if qualified == "" {
		qualified = "_"
	}

	fingerprint := strings.Join([]string{
		Language,
		path,
		string(t),
		qualified,
		canonicalize(signature),
	}, "|")

	sum := sha256.Sum256([]byte(fingerprint))
	short := hex.EncodeToString(sum[:8])
	return fmt.Sprintf("%s:%s:%s", path, qualified, short)
}

func canonicalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return whitespaceRe.ReplaceAllString(s, " ")
}
