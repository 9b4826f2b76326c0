package names

import (
	"github.com/xrash/smetrics"
)

// Ratio scores how alike two strings are on a 0-100 scale, using edit
// distance with substitutions costing two (an insert plus a delete).
// Identical strings score 100.
func Ratio(a, b string) float64 {
	if len(a)+len(b) == 0 {
		return 100.0
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return 100.0 * (1.0 - float64(dist)/float64(len(a)+len(b)))
}

// Similar reports whether two names likely refer to the same person: both
// must split into a first part and a last token, the last initials must
// match exactly, and the first parts must be fuzzy-similar at or above
// threshold. The heuristic tolerates last names reduced to an initial but
// never disagreement on that initial.
func Similar(a, b string, threshold float64) bool {
	firstA, lastA := SplitFirstLast(a)
	firstB, lastB := SplitFirstLast(b)

	if lastA == "" || lastB == "" {
		return false
	}
	if lastA[0] != lastB[0] {
		return false
	}

	return Ratio(firstA, firstB) >= threshold
}
