package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/offsuit/analyzer/internal/domain/model"
)

// MemoryStore keeps all records in process memory. It backs tests and
// deployments without Postgres configured.
type MemoryStore struct {
	rounds  *memoryRounds
	clashes *memoryClashes
	warns   *memoryWarnings
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rounds:  &memoryRounds{byKey: make(map[model.Key]model.Round)},
		clashes: &memoryClashes{byName: make(map[string]model.NameClash)},
		warns:   &memoryWarnings{},
	}
}

func (s *MemoryStore) Rounds() Rounds           { return s.rounds }
func (s *MemoryStore) NameClashes() NameClashes { return s.clashes }
func (s *MemoryStore) Warnings() Warnings       { return s.warns }

type memoryRounds struct {
	mu    sync.RWMutex
	byKey map[model.Key]model.Round
}

func (r *memoryRounds) FetchAll(ctx context.Context) ([]model.Round, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Round, 0, len(r.byKey))
	for _, round := range r.byKey {
		out = append(out, round)
	}
	// Deterministic order keeps callers honest about not relying on
	// insertion time.
	sort.Slice(out, func(i, j int) bool {
		if out[i].BarName != out[j].BarName {
			return out[i].BarName < out[j].BarName
		}
		return out[i].RoundID < out[j].RoundID
	})
	return out, nil
}

func (r *memoryRounds) Upsert(ctx context.Context, rounds []model.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, round := range rounds {
		r.byKey[round.Key()] = round
	}
	return nil
}

type memoryClashes struct {
	mu     sync.RWMutex
	byName map[string]model.NameClash
}

func (c *memoryClashes) FetchAll(ctx context.Context) ([]model.NameClash, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.NameClash, 0, len(c.byName))
	for _, clash := range c.byName {
		out = append(out, clash)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *memoryClashes) UpsertMany(ctx context.Context, clashes []model.NameClash) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, clash := range clashes {
		c.byName[clash.Name] = clash
	}
	return nil
}

func (c *memoryClashes) DeleteMany(ctx context.Context, names []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range names {
		delete(c.byName, name)
	}
	return nil
}

type memoryWarnings struct {
	mu   sync.RWMutex
	list []string
}

func (w *memoryWarnings) FetchAll(ctx context.Context) ([]string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]string, len(w.list))
	copy(out, w.list)
	return out, nil
}

func (w *memoryWarnings) ReplaceAll(ctx context.Context, warnings []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.list = make([]string, len(warnings))
	copy(w.list, warnings)
	return nil
}
