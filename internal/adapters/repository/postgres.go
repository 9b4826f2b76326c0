package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/offsuit/analyzer/internal/domain/model"
)

// roundRow is the rounds table model. Player scores travel as a JSONB
// column; the analyzer always reads rounds whole, so there is nothing to
// gain from a child table.
type roundRow struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	RoundID   string              `bun:"round_id,pk"`
	BarName   string              `bun:"bar_name,pk"`
	RoundDate string              `bun:"round_date"`
	BarID     string              `bun:"bar_id"`
	Players   []model.PlayerScore `bun:"players,type:jsonb"`
}

// clashRow is the name_clashes table model.
type clashRow struct {
	bun.BaseModel `bun:"table:name_clashes,alias:nc"`

	Name        string `bun:"name,pk"`
	Kind        string `bun:"kind,notnull"`
	Description string `bun:"description"`
}

// warningRow is the data_warnings table model.
type warningRow struct {
	bun.BaseModel `bun:"table:data_warnings,alias:dw"`

	ID      int64  `bun:"id,pk,autoincrement"`
	Message string `bun:"message,notnull"`
}

// PostgresStore backs the repositories with Postgres via bun.
type PostgresStore struct {
	db      *bun.DB
	rounds  *pgRounds
	clashes *pgClashes
	warns   *pgWarnings
}

// NewPostgresStore connects to Postgres with the given DSN, verifies the
// connection, and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	s := &PostgresStore{
		db:      db,
		rounds:  &pgRounds{db: db},
		clashes: &pgClashes{db: db},
		warns:   &pgWarnings{db: db},
	}
	if err := s.createTables(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Rounds() Rounds           { return s.rounds }
func (s *PostgresStore) NameClashes() NameClashes { return s.clashes }
func (s *PostgresStore) Warnings() Warnings       { return s.warns }

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) createTables(ctx context.Context) error {
	models := []any{(*roundRow)(nil), (*clashRow)(nil), (*warningRow)(nil)}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

type pgRounds struct {
	db *bun.DB
}

func (r *pgRounds) FetchAll(ctx context.Context) ([]model.Round, error) {
	var rows []roundRow
	err := r.db.NewSelect().
		Model(&rows).
		Order("bar_name ASC", "round_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch rounds: %w", err)
	}

	out := make([]model.Round, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Round{
			RoundID:   row.RoundID,
			BarName:   row.BarName,
			RoundDate: row.RoundDate,
			BarID:     row.BarID,
			Players:   row.Players,
		})
	}
	return out, nil
}

func (r *pgRounds) Upsert(ctx context.Context, rounds []model.Round) error {
	if len(rounds) == 0 {
		return nil
	}

	rows := make([]roundRow, 0, len(rounds))
	for _, round := range rounds {
		rows = append(rows, roundRow{
			RoundID:   round.RoundID,
			BarName:   round.BarName,
			RoundDate: round.RoundDate,
			BarID:     round.BarID,
			Players:   round.Players,
		})
	}

	_, err := r.db.NewInsert().
		Model(&rows).
		On("CONFLICT (round_id, bar_name) DO UPDATE").
		Set("round_date = EXCLUDED.round_date").
		Set("bar_id = EXCLUDED.bar_id").
		Set("players = EXCLUDED.players").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert rounds: %w", err)
	}
	return nil
}

type pgClashes struct {
	db *bun.DB
}

func (c *pgClashes) FetchAll(ctx context.Context) ([]model.NameClash, error) {
	var rows []clashRow
	err := c.db.NewSelect().
		Model(&rows).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch name clashes: %w", err)
	}

	out := make([]model.NameClash, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.NameClash{
			Name:        row.Name,
			Kind:        model.ClashKind(row.Kind),
			Description: row.Description,
		})
	}
	return out, nil
}

func (c *pgClashes) UpsertMany(ctx context.Context, clashes []model.NameClash) error {
	if len(clashes) == 0 {
		return nil
	}

	rows := make([]clashRow, 0, len(clashes))
	for _, clash := range clashes {
		rows = append(rows, clashRow{
			Name:        clash.Name,
			Kind:        string(clash.Kind),
			Description: clash.Description,
		})
	}

	_, err := c.db.NewInsert().
		Model(&rows).
		On("CONFLICT (name) DO UPDATE").
		Set("kind = EXCLUDED.kind").
		Set("description = EXCLUDED.description").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert name clashes: %w", err)
	}
	return nil
}

func (c *pgClashes) DeleteMany(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	_, err := c.db.NewDelete().
		Model((*clashRow)(nil)).
		Where("name IN (?)", bun.In(names)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete name clashes: %w", err)
	}
	return nil
}

type pgWarnings struct {
	db *bun.DB
}

func (w *pgWarnings) FetchAll(ctx context.Context) ([]string, error) {
	var rows []warningRow
	err := w.db.NewSelect().
		Model(&rows).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch warnings: %w", err)
	}

	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Message)
	}
	return out, nil
}

func (w *pgWarnings) ReplaceAll(ctx context.Context, warnings []string) error {
	err := w.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*warningRow)(nil)).
			Where("1 = 1").
			Exec(ctx); err != nil {
			return err
		}
		if len(warnings) == 0 {
			return nil
		}

		rows := make([]warningRow, 0, len(warnings))
		for _, msg := range warnings {
			rows = append(rows, warningRow{Message: msg})
		}
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("replace warnings: %w", err)
	}
	return nil
}
