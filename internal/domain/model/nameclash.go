package model

// ClashKind classifies a suspicious player name.
type ClashKind string

// Clash kinds, mutually exclusive per name.
const (
	ClashNoLastName        ClashKind = "NO_LAST_NAME"
	ClashSingleToFirstLast ClashKind = "SINGLE_TO_FIRST_LAST"
	ClashSimilarToOther    ClashKind = "SIMILAR_TO_OTHER_NAME"
)

// NameClash is a persisted classification of a suspicious name, keyed
// uniquely by Name. Only the identity resolver writes these.
type NameClash struct {
	Name        string
	Kind        ClashKind
	Description string // the matched counterpart name, or a fix hint
}
