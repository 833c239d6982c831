package phase

import (
	"regexp"
	"strings"
)

var (
	typographic = strings.NewReplacer("‘", "'", "’", "'", "–", "-", "—", "-")

	// A backslash, newline, run of spaces, backslash: a line continuation
	// some models emit inside JSON strings.
	continuation = regexp.MustCompile(`\\\n +\\`)
)

// Sanitize normalizes typographic quotes and dashes in model output and
// drops broken line continuations. It does not attempt JSON repair.
// Continuations go first: removing one can join the bytes of a quote or
// dash split around it.
func Sanitize(s string) string {
	for continuation.MatchString(s) {
		s = continuation.ReplaceAllString(s, "")
	}
	s = typographic.Replace(s)
	return strings.TrimSpace(s)
}
