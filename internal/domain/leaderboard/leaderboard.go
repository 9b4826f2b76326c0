// Package leaderboard reduces the ranked round history into the per-player
// leaderboard variants: average percentile, first-place rate, top-3 rate,
// in-the-money rate, players-outlasted and average net ROI. All variants
// share the same shape: accumulate a per-round statistic, divide by rounds
// played, drop players under the minimum-rounds threshold, sort.
package leaderboard

import (
	"fmt"
	"math"
	"sort"

	"github.com/offsuit/analyzer/internal/domain/model"
	"github.com/offsuit/analyzer/internal/domain/payout"
	"github.com/offsuit/analyzer/internal/domain/ranking"
)

// Kind names a leaderboard variant.
type Kind string

// Leaderboard variants.
const (
	KindPercentile Kind = "percentile"
	KindFirstPlace Kind = "firstplace"
	KindTopThree   Kind = "top3"
	KindITM        Kind = "itm"
	KindOutlasted  Kind = "outlasted"
	KindROI        Kind = "roi"
)

// NoQualifiersMessage is the placeholder emitted instead of an empty table
// so downstream renderers always have something to show.
const NoQualifiersMessage = "No players met the minimum round requirement"

const topThreeCutoff = 3

// Entry is one leaderboard row. Value is the headline statistic as a
// number; Display carries the percentage string, formatted only after the
// numeric sort so formatted strings never drive ordering.
type Entry struct {
	Player       string
	Value        float64
	Display      string
	Count        int // wins / qualifying finishes, 0 where not applicable
	RoundsPlayed int
}

// Table is a built leaderboard. Message is set instead of Entries when no
// player met the minimum-rounds requirement.
type Table struct {
	Kind    Kind
	Entries []Entry
	Message string
}

// Builder carries the thresholds every variant needs. It is stateless
// across calls and safe for concurrent use.
type Builder struct {
	minRounds  int
	itmPercent float64
	payoutPct  float64
	steepness  float64
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithMinRounds sets the minimum rounds a player must have to appear.
// Zero admits everyone.
func WithMinRounds(n int) Option {
	return func(b *Builder) {
		b.minRounds = n
	}
}

// WithITMPercent sets the top-of-field percentage that counts as being in
// the money.
func WithITMPercent(pct float64) Option {
	return func(b *Builder) {
		b.itmPercent = pct
	}
}

// WithPayout sets the ROI payout curve parameters.
func WithPayout(pct, steepness float64) Option {
	return func(b *Builder) {
		b.payoutPct = pct
		b.steepness = steepness
	}
}

// New constructs a Builder. Every threshold comes from configuration and is
// applied as given; the config layer validates ranges before any Builder
// exists.
func New(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// accumulator gathers one player's running statistic.
type accumulator struct {
	total  float64
	count  int
	rounds int
}

// Percentile builds the average-percentile leaderboard.
func (b *Builder) Percentile(rounds []model.Round) Table {
	acc := make(map[string]*accumulator)
	for _, e := range ranking.RankAll(rounds) {
		a := fetch(acc, e.Player)
		a.total += e.Percentile
		a.rounds++
	}
	return b.finish(KindPercentile, acc, func(a *accumulator) (float64, int) {
		return roundTo(a.total/float64(a.rounds), 2), 0
	})
}

// FirstPlace builds the first-place win-rate leaderboard. Ties at the top
// count every tied player as a winner.
func (b *Builder) FirstPlace(rounds []model.Round) Table {
	return b.rateTable(KindFirstPlace, rounds, func(e model.RankedEntry) bool {
		return e.Placement == 1
	})
}

// TopThree builds the top-3 finish-rate leaderboard.
func (b *Builder) TopThree(rounds []model.Round) Table {
	return b.rateTable(KindTopThree, rounds, func(e model.RankedEntry) bool {
		return e.Placement <= topThreeCutoff
	})
}

// ITM builds the in-the-money rate leaderboard: the share of rounds where
// the player outlasted at least (100 - itmPercent)% of the field.
func (b *Builder) ITM(rounds []model.Round) Table {
	gate := 100 - b.itmPercent
	return b.rateTable(KindITM, rounds, func(e model.RankedEntry) bool {
		return e.Percentile >= gate
	})
}

// PlayersOutlasted builds the average players-outlasted leaderboard. The
// per-round statistic is numerically the percentile rank, reported as its
// own table because it also gates the ITM variant.
func (b *Builder) PlayersOutlasted(rounds []model.Round) Table {
	acc := make(map[string]*accumulator)
	for _, e := range ranking.RankAll(rounds) {
		a := fetch(acc, e.Player)
		a.total += e.Percentile
		a.rounds++
	}
	return b.finish(KindOutlasted, acc, func(a *accumulator) (float64, int) {
		return roundTo(a.total/float64(a.rounds), 2), 0
	})
}

// ROI builds the average net-ROI leaderboard. Placements here follow the
// raw sorted order within a round, matching how the pot is actually split
// when tied players chop by table position.
func (b *Builder) ROI(rounds []model.Round) Table {
	acc := make(map[string]*accumulator)
	for _, r := range rounds {
		sorted := ranking.Placements(r.Players)
		n := len(sorted)
		for i, p := range sorted {
			a := fetch(acc, p.Name)
			a.total += payout.NetROI(i+1, n, b.payoutPct, b.steepness)
			a.rounds++
		}
	}
	return b.finish(KindROI, acc, func(a *accumulator) (float64, int) {
		return roundTo(a.total/float64(a.rounds)*100, 2), 0
	})
}

// rateTable covers the hit-rate variants: count qualifying rounds, divide
// by rounds played.
func (b *Builder) rateTable(kind Kind, rounds []model.Round, qualifies func(model.RankedEntry) bool) Table {
	acc := make(map[string]*accumulator)
	for _, e := range ranking.RankAll(rounds) {
		a := fetch(acc, e.Player)
		a.rounds++
		if qualifies(e) {
			a.count++
		}
	}
	return b.finish(kind, acc, func(a *accumulator) (float64, int) {
		return roundTo(float64(a.count)/float64(a.rounds)*100, 2), a.count
	})
}

// finish applies the minimum-rounds filter, sorts numerically descending,
// and only then formats the display strings.
func (b *Builder) finish(kind Kind, acc map[string]*accumulator, statistic func(*accumulator) (float64, int)) Table {
	entries := make([]Entry, 0, len(acc))
	for player, a := range acc {
		if a.rounds < b.minRounds {
			continue
		}
		value, count := statistic(a)
		entries = append(entries, Entry{
			Player:       player,
			Value:        value,
			Count:        count,
			RoundsPlayed: a.rounds,
		})
	}

	if len(entries) == 0 {
		return Table{Kind: kind, Message: NoQualifiersMessage}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Player < entries[j].Player
	})
	for i := range entries {
		entries[i].Display = fmt.Sprintf("%.2f%%", entries[i].Value)
	}

	return Table{Kind: kind, Entries: entries}
}

func fetch(acc map[string]*accumulator, player string) *accumulator {
	a, ok := acc[player]
	if !ok {
		a = &accumulator{}
		acc[player] = a
	}
	return a
}

func roundTo(v float64, decimals int) float64 {
	shift := math.Pow(10, float64(decimals))
	return math.Round(v*shift) / shift
}
