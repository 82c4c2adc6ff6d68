// Package history provides an optional Postgres log of capture attempts.
package history

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Outcome labels for capture records.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Record is one capture attempt as seen by the operator.
type Record struct {
	URL            string
	Theme          string
	Lang           string
	ShowEngagement bool
	Filename       string
	ByteSize       int
	Duration       time.Duration
	Outcome        string
	CapturedAt     time.Time
}

// Store persists capture records. Recording failures are an operator
// concern only and must never surface to the requesting client.
type Store interface {
	Record(ctx context.Context, rec Record) error
	Close()
}

// Noop discards records; used when no DSN is configured.
type Noop struct{}

// Record discards the record.
func (Noop) Record(context.Context, Record) error { return nil }

// Close is a no-op.
func (Noop) Close() {}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresStoreConfig controls the Postgres connection pool.
type PostgresStoreConfig struct {
	DSN      string
	Table    string
	MaxConns int32
}

// PostgresStore writes capture records into Postgres.
type PostgresStore struct {
	pool  execCloser
	table string
}

// NewPostgresStore creates a Postgres-backed Store using the provided config.
func NewPostgresStore(ctx context.Context, cfg PostgresStoreConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "captures"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewPostgresStoreWithPool(pool execCloser, table string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "captures"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Record inserts one capture record.
func (s *PostgresStore) Record(ctx context.Context, rec Record) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("history store is not configured")
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (url, theme, lang, show_engagement, filename, byte_size, duration_ms, outcome, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.table)
	_, err := s.pool.Exec(ctx, query,
		rec.URL,
		rec.Theme,
		rec.Lang,
		rec.ShowEngagement,
		rec.Filename,
		rec.ByteSize,
		rec.Duration.Milliseconds(),
		rec.Outcome,
		rec.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("insert capture record: %w", err)
	}
	return nil
}
