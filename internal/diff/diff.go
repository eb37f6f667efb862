// Package diff renders unified diffs of planned content rewrites.
package diff

import (
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of unchanged lines shown around each hunk.
const DefaultContext = 3

// Unified returns a unified diff of before and after for the file at path,
// or "" when they are equal. The headers are a/path and b/path.
func Unified(path string, before, after []byte, context int) string {
	if context <= 0 {
		context = DefaultContext
	}

	name := strings.TrimPrefix(path, "./")

	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(string(before)),
		B:        splitLines(string(after)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  context,
	})
	if err != nil {
		return ""
	}

	return out
}

// splitLines keeps each line's newline so a missing final newline shows up
// in the hunk.
func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}

	return strings.SplitAfter(s, "\n")
}
