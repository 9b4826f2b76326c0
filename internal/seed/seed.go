// Package seed generates a plausible league history for demos and load
// checks.
package seed

import (
	"math"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/offsuit/analyzer/internal/domain/model"
	"github.com/offsuit/analyzer/internal/domain/names"
)

// Generator produces fake rounds with a stable roster per bar so the
// leaderboards and the rating engine have real history to chew on.
type Generator struct {
	faker *gofakeit.Faker
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed makes the generated history reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.faker = gofakeit.New(seed)
	}
}

// New returns a generator. Without WithSeed the history differs per run.
func New(opts ...Option) *Generator {
	g := &Generator{faker: gofakeit.New(uint64(time.Now().UnixNano()))}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// League describes one generated history.
type League struct {
	Bars    int // bars in the league
	Weeks   int // league nights per bar
	Players int // roster size per bar
}

// Rounds generates the full history for the given league shape. Every
// round keeps a random subset of the bar's roster, with strictly ranked
// point totals so placements are unambiguous.
func (g *Generator) Rounds(league League) []model.Round {
	if league.Bars <= 0 || league.Weeks <= 0 || league.Players < 2 {
		return nil
	}

	// History ends last week and extends backwards.
	end := time.Now().AddDate(0, 0, -7)

	var rounds []model.Round
	for b := 0; b < league.Bars; b++ {
		barName := g.faker.Company()
		barID := uuid.NewString()

		roster := make([]string, 0, league.Players)
		for p := 0; p < league.Players; p++ {
			roster = append(roster, names.Normalize(g.faker.Name()))
		}

		for w := 0; w < league.Weeks; w++ {
			night := end.AddDate(0, 0, -7*w)
			entrants := g.pickEntrants(roster)
			players := make([]model.PlayerScore, 0, len(entrants))
			for i, name := range entrants {
				// Payout-style point ladder: winner gets the most,
				// everyone gets something positive.
				points := int(math.Max(1, float64(10*(len(entrants)-i))))
				players = append(players, model.PlayerScore{Name: name, Points: points})
			}

			rounds = append(rounds, model.Round{
				RoundID:   uuid.NewString(),
				BarName:   barName,
				RoundDate: night.Format("2006-01-02"),
				BarID:     barID,
				Players:   players,
			})
		}
	}
	return rounds
}

// pickEntrants returns a shuffled subset of the roster, at least two
// players, simulating who showed up that night.
func (g *Generator) pickEntrants(roster []string) []string {
	shuffled := make([]string, len(roster))
	copy(shuffled, roster)
	g.faker.ShuffleStrings(shuffled)

	n := 2
	if len(roster) > 2 {
		n += g.faker.IntRange(0, len(roster)-2)
	}
	return shuffled[:n]
}
