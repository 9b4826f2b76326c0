// Package ranking converts a round's raw point totals into placements and
// percentile ranks. Every leaderboard variant builds on these functions.
package ranking

import (
	"math"
	"sort"

	"github.com/offsuit/analyzer/internal/domain/model"
)

const percentileDecimals = 2

// Percentile maps a 1-based placement to a 0-100 scale: 100 for the sole
// top group, 0 for the sole bottom group. A single-player round scores 100.
func Percentile(placement, totalPlayers int) float64 {
	if totalPlayers <= 1 {
		return 100.0
	}
	pct := (1 - float64(placement-1)/float64(totalPlayers-1)) * 100
	return roundTo(pct, percentileDecimals)
}

// Placements returns the competition-ranking placement for each player in
// the round, in points-descending order. Players with equal points share a
// placement and the next distinct point value gets the index after the tie
// group (1,1,3,4,...).
func Placements(players []model.PlayerScore) []model.PlayerScore {
	sorted := make([]model.PlayerScore, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Points > sorted[j].Points
	})
	return sorted
}

// Rank produces a RankedEntry for every player in the round.
func Rank(round model.Round) []model.RankedEntry {
	sorted := Placements(round.Players)
	total := len(sorted)

	// First occurrence of a point value fixes the placement for the whole
	// tie group.
	placementByPoints := make(map[int]int, total)
	for i, p := range sorted {
		if _, ok := placementByPoints[p.Points]; !ok {
			placementByPoints[p.Points] = i + 1
		}
	}

	entries := make([]model.RankedEntry, 0, total)
	for _, p := range sorted {
		placement := placementByPoints[p.Points]
		entries = append(entries, model.RankedEntry{
			Player:     p.Name,
			RoundID:    round.RoundID,
			BarName:    round.BarName,
			Placement:  placement,
			Percentile: Percentile(placement, total),
		})
	}
	return entries
}

// RankAll ranks every round in the history.
func RankAll(rounds []model.Round) []model.RankedEntry {
	var entries []model.RankedEntry
	for _, r := range rounds {
		entries = append(entries, Rank(r)...)
	}
	return entries
}

func roundTo(v float64, decimals int) float64 {
	shift := math.Pow(10, float64(decimals))
	return math.Round(v*shift) / shift
}
