// Package names holds the pure string tooling for player identities:
// canonical normalization, format validation, and fuzzy similarity.
package names

import (
	"strings"
)

// Normalize turns an arbitrary input name into its canonical comparison
// key: lower-case, single-spaced, stripped of everything outside
// [a-z0-9 ], trimmed. Idempotent.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r':
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// IsWellFormed reports whether a name has an apparent first and last part,
// i.e. two or more whitespace-separated tokens after trimming.
func IsWellFormed(name string) bool {
	return len(strings.Fields(strings.TrimSpace(name))) >= 2
}

// SplitFirstLast splits a name into its first part and its final token.
// The last part is empty for single-token names.
func SplitFirstLast(name string) (first, last string) {
	trimmed := strings.TrimSpace(name)
	idx := strings.LastIndex(trimmed, " ")
	if idx < 0 {
		return trimmed, ""
	}
	return strings.TrimSpace(trimmed[:idx]), trimmed[idx+1:]
}
