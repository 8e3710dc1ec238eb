package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate applies the schema in sourceURL (e.g. "file://migrations").
func Migrate(sourceURL, connString string) error {
	m, err := migrate.New(sourceURL, connString)
	if err != nil {
		return fmt.Errorf("initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Postgres stores entries in the event_outcomes table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a pool and verifies connectivity.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Record(ctx context.Context, entry Entry) error {
	entry = stamp(entry)
	_, err := p.pool.Exec(ctx, `
		INSERT INTO event_outcomes (event_id, detail_type, source, outcome, attempt, error, duration_ms, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.EventID, entry.DetailType, entry.Source, entry.Outcome,
		entry.Attempt, entry.Error, entry.DurationMs, entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

func (p *Postgres) ListByEvent(ctx context.Context, eventID string) ([]Entry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT event_id, detail_type, source, outcome, attempt, error, duration_ms, recorded_at
		FROM event_outcomes
		WHERE event_id = $1
		ORDER BY recorded_at, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.EventID, &e.DetailType, &e.Source, &e.Outcome, &e.Attempt, &e.Error, &e.DurationMs, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
