// Package skill maintains a TrueSkill-style paired-comparison rating per
// player. Ratings are rebuilt from the full round history on every call:
// recomputation is linear in total participations, but it means retroactive
// round corrections never leave stale rating state behind.
package skill

import (
	"math"
	"sort"
	"time"

	"github.com/offsuit/analyzer/internal/domain/model"
	"github.com/offsuit/analyzer/internal/domain/ranking"
)

// Default hyperparameters, overridable via options. The prior follows the
// usual mu/3 sigma and mu/6 beta conventions.
const (
	defaultMu    = 25.0
	defaultSigma = defaultMu / 3
	defaultBeta  = defaultMu / 6
	defaultTau   = defaultMu / 300

	roundDateLayout = "2006-01-02"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithPrior sets the starting belief for never-seen players.
func WithPrior(mu, sigma float64) Option {
	return func(e *Engine) {
		if sigma > 0 {
			e.mu0 = mu
			e.sigma0 = sigma
		}
	}
}

// WithBeta sets the per-game performance variability.
func WithBeta(beta float64) Option {
	return func(e *Engine) {
		if beta > 0 {
			e.beta = beta
		}
	}
}

// WithTau sets the additive dynamics factor applied before each game.
func WithTau(tau float64) Option {
	return func(e *Engine) {
		if tau >= 0 {
			e.tau = tau
		}
	}
}

// WithDrawProbability sets the probability mass reserved for draws. Zero
// makes tied placements an exact-equality observation.
func WithDrawProbability(p float64) Option {
	return func(e *Engine) {
		if p >= 0 && p < 1 {
			e.drawProb = p
		}
	}
}

// Engine holds the rating hyperparameters. It carries no per-player state,
// so one Engine may serve concurrent callers.
type Engine struct {
	mu0      float64
	sigma0   float64
	beta     float64
	tau      float64
	drawProb float64
}

// New constructs an Engine with default hyperparameters.
func New(opts ...Option) *Engine {
	e := &Engine{
		mu0:    defaultMu,
		sigma0: defaultSigma,
		beta:   defaultBeta,
		tau:    defaultTau,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PlayerRating pairs a player with the belief the replay produced.
type PlayerRating struct {
	Player string
	Rating model.Rating
}

// Evaluate replays the full history in chronological order and returns all
// players sorted by conservative score descending. Rounds without a
// parseable date or without any players are skipped; replay order matters,
// so the sort by date is load-bearing, not cosmetic.
func (e *Engine) Evaluate(rounds []model.Round) []PlayerRating {
	type datedRound struct {
		date    time.Time
		players []model.PlayerScore
	}

	replay := make([]datedRound, 0, len(rounds))
	for _, r := range rounds {
		if len(r.Players) == 0 {
			continue
		}
		date, err := time.Parse(roundDateLayout, r.RoundDate)
		if err != nil {
			continue
		}
		replay = append(replay, datedRound{date: date, players: r.Players})
	}
	sort.SliceStable(replay, func(i, j int) bool {
		return replay[i].date.Before(replay[j].date)
	})

	ratings := make(map[string]model.Rating)
	for _, r := range replay {
		e.processRound(ratings, r.players)
	}

	out := make([]PlayerRating, 0, len(ratings))
	for name, rating := range ratings {
		out = append(out, PlayerRating{Player: name, Rating: rating})
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Rating.Conservative(), out[j].Rating.Conservative()
		if ci != cj {
			return ci > cj
		}
		return out[i].Player < out[j].Player
	})
	return out
}

// processRound applies the paired-comparison update for one game: players
// sorted by the tie-aware placement rule, adjacent pairs compared, equal
// placements treated as draws.
func (e *Engine) processRound(ratings map[string]model.Rating, players []model.PlayerScore) {
	sorted := ranking.Placements(players)

	placementByPoints := make(map[int]int, len(sorted))
	for i, p := range sorted {
		if _, ok := placementByPoints[p.Points]; !ok {
			placementByPoints[p.Points] = i + 1
		}
	}

	for _, p := range sorted {
		r, ok := ratings[p.Name]
		if !ok {
			r = model.Rating{Mu: e.mu0, Sigma: e.sigma0}
		}
		// Skill drifts between games.
		r.Sigma = math.Sqrt(r.Sigma*r.Sigma + e.tau*e.tau)
		ratings[p.Name] = r
	}

	for i := 0; i+1 < len(sorted); i++ {
		a, b := sorted[i], sorted[i+1]
		if a.Name == b.Name {
			continue
		}
		draw := placementByPoints[a.Points] == placementByPoints[b.Points]
		ra, rb := e.updatePair(ratings[a.Name], ratings[b.Name], draw)
		ratings[a.Name] = ra
		ratings[b.Name] = rb
	}
}

// updatePair applies the two-player Gaussian update where a either beat b
// or drew with b.
func (e *Engine) updatePair(a, b model.Rating, draw bool) (model.Rating, model.Rating) {
	c2 := 2*e.beta*e.beta + a.Sigma*a.Sigma + b.Sigma*b.Sigma
	c := math.Sqrt(c2)
	t := (a.Mu - b.Mu) / c
	eps := e.drawMargin() / c

	var v, w float64
	if draw {
		v = vDraw(t, eps)
		w = wDraw(t, eps)
	} else {
		v = vWin(t, eps)
		w = wWin(t, eps)
	}

	a.Mu += a.Sigma * a.Sigma / c * v
	b.Mu -= b.Sigma * b.Sigma / c * v
	a.Sigma = shrink(a.Sigma, c2, w)
	b.Sigma = shrink(b.Sigma, c2, w)
	return a, b
}

// drawMargin converts the configured draw probability into a performance
// margin for a two-player comparison.
func (e *Engine) drawMargin() float64 {
	if e.drawProb <= 0 {
		return 0
	}
	return invCdf((e.drawProb+1)/2) * math.Sqrt2 * e.beta
}

func shrink(sigma, c2, w float64) float64 {
	s2 := sigma * sigma
	factor := 1 - s2/c2*w
	if factor < 1e-6 {
		factor = 1e-6
	}
	return math.Sqrt(s2 * factor)
}
