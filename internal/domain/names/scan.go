package names

import (
	"fmt"
	"sort"
	"strings"

	"github.com/offsuit/analyzer/internal/domain/model"
)

// DetectClashes performs a one-shot scan of the full round history and
// returns a human-readable warning line per format problem or suspiciously
// similar name pair, each annotated with the bar/date combinations where
// the names appeared.
func DetectClashes(rounds []model.Round, similarityThreshold float64) []string {
	occurrences := make(map[string]map[string]struct{})
	for _, r := range rounds {
		barDate := fmt.Sprintf("%s (%s)", r.BarName, r.RoundDate)
		for _, p := range r.Players {
			if occurrences[p.Name] == nil {
				occurrences[p.Name] = make(map[string]struct{})
			}
			occurrences[p.Name][barDate] = struct{}{}
		}
	}

	allNames := make([]string, 0, len(occurrences))
	for name := range occurrences {
		allNames = append(allNames, name)
	}
	sort.Strings(allNames)

	var warnings []string
	for _, name := range allNames {
		if !IsWellFormed(name) {
			warnings = append(warnings, fmt.Sprintf(
				"Invalid name at %s name = %s", joinSorted(occurrences[name]), name))
		}
	}

	for i, a := range allNames {
		for _, b := range allNames[i+1:] {
			if Similar(a, b, similarityThreshold) {
				warnings = append(warnings, fmt.Sprintf(
					"Similar names: %q at %s vs %q at %s",
					a, joinSorted(occurrences[a]), b, joinSorted(occurrences[b])))
			}
		}
	}

	return warnings
}

func joinSorted(set map[string]struct{}) string {
	items := make([]string, 0, len(set))
	for s := range set {
		items = append(items, s)
	}
	sort.Strings(items)
	return strings.Join(items, ", ")
}
