// Package model contains domain value types passed between layers.
package model

// PlayerScore is one player's point total within a round. Ingestion drops
// non-positive scores before a PlayerScore is built, so Points > 0 holds
// for every stored entry.
type PlayerScore struct {
	Name   string // normalized player name
	Points int
}

// Round is a single competition event at one bar. It is immutable after
// ingestion; reconciliation replaces the whole object by upsert.
type Round struct {
	RoundID   string
	BarName   string
	RoundDate string // YYYY-MM-DD; may be empty or malformed for old data
	BarID     string // board identifier, kept for data lineage
	Players   []PlayerScore
}

// Key identifies a round for storage purposes.
type Key struct {
	RoundID string
	BarName string
}

// Key returns the storage identity of the round.
func (r Round) Key() Key {
	return Key{RoundID: r.RoundID, BarName: r.BarName}
}

// RankedEntry is the per-player outcome of ranking one round. It is derived,
// never persisted.
type RankedEntry struct {
	Player     string
	RoundID    string
	BarName    string
	Placement  int     // 1-based, ties share a placement
	Percentile float64 // [0,100], 100 = best
}
