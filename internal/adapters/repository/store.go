// Package repository defines the round and name clash stores and errors.
package repository

import (
	"context"

	"github.com/offsuit/analyzer/internal/domain/model"
)

// Rounds provides read/write access to finished league rounds.
type Rounds interface {
	// FetchAll returns every stored round, unordered.
	FetchAll(ctx context.Context) ([]model.Round, error)

	// Upsert inserts rounds, replacing any existing round with the same
	// (round_id, bar_name) key. Scoreboard data may be re-fetched and
	// corrected after the fact, so last write wins.
	Upsert(ctx context.Context, rounds []model.Round) error
}

// NameClashes provides access to outstanding name clash records.
type NameClashes interface {
	// FetchAll returns every outstanding clash record.
	FetchAll(ctx context.Context) ([]model.NameClash, error)

	// UpsertMany records clashes, replacing existing records by name.
	UpsertMany(ctx context.Context, clashes []model.NameClash) error

	// DeleteMany retracts clash records by player name.
	DeleteMany(ctx context.Context, names []string) error
}

// Warnings stores data quality warnings produced during ingestion. Each
// refresh replaces the full set; warnings describe the current data, not
// a history.
type Warnings interface {
	FetchAll(ctx context.Context) ([]string, error)
	ReplaceAll(ctx context.Context, warnings []string) error
}

// Store bundles the repositories backed by one database.
type Store interface {
	Rounds() Rounds
	NameClashes() NameClashes
	Warnings() Warnings
}
