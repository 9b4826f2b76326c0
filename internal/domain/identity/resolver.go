// Package identity incrementally classifies player names against the
// accumulated name universe and keeps the persisted clash records in step
// with the data: records are created when a new name looks suspicious and
// retracted once the underlying data is fixed and the classification no
// longer reproduces.
package identity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/offsuit/analyzer/internal/domain/model"
	"github.com/offsuit/analyzer/internal/domain/names"
	"github.com/offsuit/analyzer/pkg/logger"
)

// ClashStore persists NameClash records keyed uniquely by name. The
// resolver is the only writer.
type ClashStore interface {
	FetchAll(ctx context.Context) ([]model.NameClash, error)
	UpsertMany(ctx context.Context, clashes []model.NameClash) error
	DeleteMany(ctx context.Context, names []string) error
}

// Notifier delivers clash summaries to whoever fixes the data. Failures
// must not abort the resolver; the persisted records are the source of
// truth, not the notification.
type Notifier interface {
	Notify(ctx context.Context, subject, body string, attachment []byte) error
}

// Notification subjects and bodies.
const (
	subjectNewClashes = "New Name Clashes Detected - Action Required - AUTOMATED"
	subjectFixed      = "New Name Clash Fix Detected - No Action Required - AUTOMATED"

	bodyNewClashes = "The latest name check found clashes that need attention. " +
		"Attached are the names that clash now; fixing them before the end of the league month keeps things simple."
	bodyFixed = "Previously flagged names no longer clash after the latest data fix. " +
		"The retracted records are attached for double-checking."

	noLastNameHint = "add a last name"
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithSimilarityThreshold sets the fuzzy ratio two first names must reach.
// The threshold comes from configuration and is applied as given; the
// config layer validates its range.
func WithSimilarityThreshold(threshold float64) Option {
	return func(r *Resolver) {
		r.similarityThreshold = threshold
	}
}

// WithNotifier sets the outbound notification sink.
func WithNotifier(n Notifier) Option {
	return func(r *Resolver) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithLogger sets a custom logger for the resolver.
func WithLogger(log logger.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// Resolver classifies names and owns the NameClash write path. It keeps no
// state between runs beyond what the store persists.
type Resolver struct {
	store               ClashStore
	notifier            Notifier
	similarityThreshold float64
	log                 logger.Logger
}

// New constructs a Resolver around the given store.
func New(store ClashStore, opts ...Option) *Resolver {
	r := &Resolver{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result summarizes one resolver run.
type Result struct {
	Detected  []model.NameClash
	Retracted []model.NameClash
}

// Run executes one retraction-then-detection pass over the full history.
// Store read/write failures propagate; a partial write self-heals on the
// next run because every run re-derives from scratch.
func (r *Resolver) Run(ctx context.Context, rounds []model.Round) (Result, error) {
	universe := nameUniverse(rounds)

	retracted, err := r.retractFixed(ctx, universe)
	if err != nil {
		return Result{}, err
	}

	existing, err := r.store.FetchAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch name clashes: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		known[c.Name] = struct{}{}
	}

	var fresh []string
	for _, name := range universe {
		if _, ok := known[name]; !ok {
			fresh = append(fresh, name)
		}
	}

	detected := classifyAll(universe, fresh, r.similarityThreshold)
	if len(detected) > 0 {
		if err := r.store.UpsertMany(ctx, detected); err != nil {
			return Result{}, fmt.Errorf("persist name clashes: %w", err)
		}
		r.notify(ctx, subjectNewClashes, bodyNewClashes, detected)
	}

	return Result{Detected: detected, Retracted: retracted}, nil
}

// retractFixed re-derives every name's classification against the current
// universe and deletes persisted records that no longer reproduce. Deleting
// liberally is fine: anything still broken comes straight back on the
// detection pass of a later run.
func (r *Resolver) retractFixed(ctx context.Context, universe []string) ([]model.NameClash, error) {
	regenerated := classifyAll(universe, universe, r.similarityThreshold)
	stillClashing := make(map[string]struct{}, len(regenerated))
	for _, c := range regenerated {
		stillClashing[c.Name] = struct{}{}
	}

	existing, err := r.store.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch name clashes: %w", err)
	}

	var stale []model.NameClash
	for _, c := range existing {
		if _, ok := stillClashing[c.Name]; !ok {
			stale = append(stale, c)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}

	staleNames := make([]string, 0, len(stale))
	for _, c := range stale {
		staleNames = append(staleNames, c.Name)
	}
	if err := r.store.DeleteMany(ctx, staleNames); err != nil {
		return nil, fmt.Errorf("delete fixed name clashes: %w", err)
	}
	r.notify(ctx, subjectFixed, bodyFixed, stale)
	return stale, nil
}

func (r *Resolver) notify(ctx context.Context, subject, body string, clashes []model.NameClash) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, subject, body, []byte(Format(clashes))); err != nil && r.log != nil {
		r.log.Warn(ctx, "clash notification failed",
			logger.String("subject", subject), logger.Error(err))
	}
}

// nameUniverse collects the unique player names across all rounds, sorted
// lexically so first-match classification is deterministic.
func nameUniverse(rounds []model.Round) []string {
	seen := make(map[string]struct{})
	for _, r := range rounds {
		for _, p := range r.Players {
			seen[p.Name] = struct{}{}
		}
	}
	universe := make([]string, 0, len(seen))
	for name := range seen {
		universe = append(universe, name)
	}
	sort.Strings(universe)
	return universe
}

// classifyAll classifies each candidate against the full universe.
func classifyAll(universe, candidates []string, threshold float64) []model.NameClash {
	var clashes []model.NameClash
	for _, name := range candidates {
		if clash, ok := classify(name, universe, threshold); ok {
			clashes = append(clashes, clash)
		}
	}
	return clashes
}

// classify decides a single name's clash state. Single-token names either
// prefix a fuller "first last" entry or simply lack a last name; fuller
// names are checked for fuzzy similarity against everyone else. Exact
// duplicates are not a clash, they merge naturally downstream.
func classify(name string, universe []string, threshold float64) (model.NameClash, bool) {
	if len(strings.Fields(name)) < 2 {
		if fuller, ok := findFirstLastFor(name, universe); ok {
			return model.NameClash{
				Name:        name,
				Kind:        model.ClashSingleToFirstLast,
				Description: fuller,
			}, true
		}
		return model.NameClash{
			Name:        name,
			Kind:        model.ClashNoLastName,
			Description: noLastNameHint,
		}, true
	}

	for _, other := range universe {
		if other == name {
			continue
		}
		if names.Similar(name, other, threshold) {
			return model.NameClash{
				Name:        name,
				Kind:        model.ClashSimilarToOther,
				Description: other,
			}, true
		}
	}

	return model.NameClash{}, false
}

// findFirstLastFor looks for a two-token name whose first token equals the
// given single-token name.
func findFirstLastFor(single string, universe []string) (string, bool) {
	for _, other := range universe {
		parts := strings.Fields(other)
		if len(parts) == 2 && parts[0] == strings.TrimSpace(single) {
			return other, true
		}
	}
	return "", false
}

// Format renders clashes as an aligned text table, sorted by kind then
// name, for notification attachments and the warnings endpoint.
func Format(clashes []model.NameClash) string {
	if len(clashes) == 0 {
		return "(no name clashes)"
	}
	sorted := make([]model.NameClash, len(clashes))
	copy(sorted, clashes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Kind != sorted[j].Kind {
			return sorted[i].Kind < sorted[j].Kind
		}
		return sorted[i].Name < sorted[j].Name
	})

	lines := make([]string, 0, len(sorted))
	for _, c := range sorted {
		lines = append(lines, fmt.Sprintf("%-25s | %-20s | %s", c.Name, c.Kind, c.Description))
	}
	return strings.Join(lines, "\n")
}
