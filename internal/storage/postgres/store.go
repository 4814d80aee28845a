package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongminglow/defect-portal/internal/storage"
)

// Ensure Store satisfies the storage.SlotStore interface at compile time.
var _ storage.SlotStore = (*Store)(nil)

// Store provides Postgres-backed persistence for session slots.
type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewSlotStore creates a new Store and runs migrations. Items older than ttl read as missing.
func NewSlotStore(ctx context.Context, databaseURL string, ttl time.Duration) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool, ttl: ttl}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session_items (
			slot_id TEXT NOT NULL,
			item_key TEXT NOT NULL,
			item_value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (slot_id, item_key)
		);`,
		`CREATE INDEX IF NOT EXISTS session_items_updated_at_idx ON session_items (updated_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// Get fetches one item of a slot.
func (s *Store) Get(ctx context.Context, slot, key string) (string, error) {
	const query = `
	SELECT item_value
	FROM session_items
	WHERE slot_id = $1 AND item_key = $2 AND updated_at > $3;
	`
	var value string
	err := s.pool.QueryRow(ctx, query, slot, key, time.Now().Add(-s.ttl)).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get session item: %w", err)
	}
	return value, nil
}

// Set upserts one item of a slot.
func (s *Store) Set(ctx context.Context, slot, key, value string) error {
	const query = `
	INSERT INTO session_items (slot_id, item_key, item_value, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (slot_id, item_key)
	DO UPDATE SET item_value = EXCLUDED.item_value, updated_at = EXCLUDED.updated_at;
	`
	if _, err := s.pool.Exec(ctx, query, slot, key, value); err != nil {
		return fmt.Errorf("set session item: %w", err)
	}
	return nil
}

// Delete removes the named items of a slot.
func (s *Store) Delete(ctx context.Context, slot string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	const query = `DELETE FROM session_items WHERE slot_id = $1 AND item_key = ANY($2);`
	if _, err := s.pool.Exec(ctx, query, slot, keys); err != nil {
		return fmt.Errorf("delete session items: %w", err)
	}
	return nil
}

// Purge removes items that have outlived the store's ttl.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM session_items WHERE updated_at <= $1;`, time.Now().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("purge session items: %w", err)
	}
	return tag.RowsAffected(), nil
}
