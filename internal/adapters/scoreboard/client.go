// Package scoreboard fetches bar score boards and converts them to rounds.
//
// The upstream service exposes one board per bar. A board carries the bar's
// display title, its roster of players, and a list of rounds where each
// round holds a score per roster slot. The client turns that shape into
// model.Round values with normalized player names and computed round dates.
package scoreboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/offsuit/analyzer/internal/config"
	"github.com/offsuit/analyzer/internal/domain/model"
	"github.com/offsuit/analyzer/internal/domain/names"
	"github.com/offsuit/analyzer/pkg/logger"
)

const (
	defaultBaseURL     = "https://keepthescore.com"
	defaultConcurrency = 4
	defaultTimeout     = 15 * time.Second

	// boardDateLayout is the timestamp format boards report for score
	// entries, e.g. "Wed, 26 Jun 2024 14:30:00 GMT".
	boardDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"
)

// board mirrors the upstream board payload, trimmed to the fields the
// analyzer reads.
type board struct {
	Board struct {
		ID         int64 `json:"id"`
		Appearance struct {
			Title string `json:"title"`
		} `json:"appearance"`
	} `json:"board"`
	Players []struct {
		Name string `json:"name"`
	} `json:"players"`
	Rounds []struct {
		ID     int64  `json:"id"`
		Date   string `json:"date"`
		Scores []int  `json:"scores"`
	} `json:"rounds"`
}

// Client fetches score boards over HTTP. The zero value is not usable;
// construct with New.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	limiter     *rate.Limiter
	concurrency int
	log         logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the scoreboard service base URL. Tests point this
// at a local server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit caps outbound requests per second. The scoreboard service
// is a free community host; stay polite.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithConcurrency bounds how many boards are fetched at once.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New returns a scoreboard client with sane defaults.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     defaultBaseURL,
		limiter:     rate.NewLimiter(rate.Limit(2), 2),
		concurrency: defaultConcurrency,
		log:         logger.Get().Named("scoreboard"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRounds pulls every configured bar's board and converts it to rounds.
// A failing bar does not abort the rest; partial results are returned
// together with a joined error describing the failures.
func (c *Client) FetchRounds(ctx context.Context, bars []config.BarConfig) ([]model.Round, error) {
	type result struct {
		rounds []model.Round
		err    error
	}

	sem := make(chan struct{}, c.concurrency)
	results := make([]result, len(bars))

	var wg sync.WaitGroup
	for i, bar := range bars {
		wg.Add(1)
		go func(i int, bar config.BarConfig) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			b, err := c.fetchBoard(ctx, bar.Token)
			if err != nil {
				results[i] = result{err: fmt.Errorf("bar %q: %w", bar.BarName, err)}
				return
			}
			results[i] = result{rounds: convertBoard(b, bar.PokerNight)}
		}(i, bar)
	}
	wg.Wait()

	var rounds []model.Round
	var errs []error
	for _, res := range results {
		if res.err != nil {
			c.log.Warn(ctx, "board fetch failed", logger.Error(res.err))
			errs = append(errs, res.err)
			continue
		}
		rounds = append(rounds, res.rounds...)
	}
	return rounds, errors.Join(errs...)
}

func (c *Client) fetchBoard(ctx context.Context, token string) (*board, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/%s/board/", c.baseURL, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchBoard, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrFetchBoard, resp.StatusCode)
	}

	var b board
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeBoard, err)
	}
	return &b, nil
}

// convertBoard maps a board to rounds. Scores index into the board's
// player roster; non-positive scores are dropped, which also removes the
// blank rows the board keeps for retired regulars. Names are normalized
// here, at the ingestion boundary.
func convertBoard(b *board, pokerNight int) []model.Round {
	barName := b.Board.Appearance.Title
	if barName == "" {
		barName = "Unknown Bar"
	}
	barID := strconv.FormatInt(b.Board.ID, 10)

	var rounds []model.Round
	for _, rd := range b.Rounds {
		var players []model.PlayerScore
		for idx, points := range rd.Scores {
			if idx >= len(b.Players) || points <= 0 {
				continue
			}
			players = append(players, model.PlayerScore{
				Name:   names.Normalize(b.Players[idx].Name),
				Points: points,
			})
		}
		if len(players) == 0 {
			continue
		}
		rounds = append(rounds, model.Round{
			RoundID:   strconv.FormatInt(rd.ID, 10),
			BarName:   barName,
			RoundDate: pokerNightDate(rd.Date, pokerNight),
			BarID:     barID,
			Players:   players,
		})
	}
	return rounds
}

// pokerNightDate maps a board entry timestamp to the league night it
// belongs to. Scores get entered during or after the game, so the round
// date is the most recent occurrence of the bar's league weekday strictly
// before the entry; an entry on the league night itself is treated as a
// late write-up of the previous week's round. Weekdays use 0=Monday.
func pokerNightDate(entryDate string, targetWeekday int) string {
	t, err := time.Parse(boardDateLayout, entryDate)
	if err != nil {
		// Unparseable timestamps pass through untouched; downstream
		// engines already tolerate malformed dates.
		return entryDate
	}

	// time.Weekday counts from Sunday; shift to Monday-based.
	entryWeekday := (int(t.Weekday()) + 6) % 7
	daysBack := (entryWeekday - targetWeekday) % 7
	if daysBack < 0 {
		daysBack += 7
	}
	if daysBack == 0 {
		daysBack = 7
	}
	return t.AddDate(0, 0, -daysBack).Format("2006-01-02")
}
