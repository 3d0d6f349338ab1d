// Package postgres persists split broadcasts awaiting a pairing partner so
// that pairing survives restarts and is shared between replicas.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
	"github.com/couchcryptid/runway-config-etl/internal/reconcile"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PairStore implements reconcile.PairStore on a PostgreSQL table. It takes
// no row or advisory locks: one airport is only ever written by the replica
// that owns its source partition.
type PairStore struct {
	pool    *pgxpool.Pool
	history int
}

// Open connects to dsn and keeps history entries per airport and marker.
func Open(ctx context.Context, dsn string, history int) (*PairStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if history < 1 {
		history = 1
	}
	return &PairStore{pool: pool, history: history}, nil
}

// Close closes the connection pool.
func (s *PairStore) Close() {
	s.pool.Close()
}

// CheckReadiness pings the database.
func (s *PairStore) CheckReadiness(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pair store unreachable: %w", err)
	}
	return nil
}

// CreateSchema creates the split broadcast table.
func (s *PairStore) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS split_broadcasts (
		id          BIGSERIAL PRIMARY KEY,
		airport     TEXT NOT NULL,
		marker      TEXT NOT NULL,
		observed_at TIMESTAMPTZ NOT NULL,
		payload     JSONB NOT NULL,
		stored_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_split_broadcasts_lookup
		ON split_broadcasts(airport, marker, id DESC);
	`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Recent returns the newest entries for airport under marker.
func (s *PairStore) Recent(ctx context.Context, airport string, marker domain.Marker) ([]reconcile.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM split_broadcasts
		WHERE airport = $1 AND marker = $2
		ORDER BY id DESC
		LIMIT $3`, airport, string(marker), s.history)
	if err != nil {
		return nil, fmt.Errorf("query split broadcasts: %w", err)
	}
	defer rows.Close()

	var entries []reconcile.Entry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan split broadcast: %w", err)
		}
		var e reconcile.Entry
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode split broadcast: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate split broadcasts: %w", err)
	}
	return entries, nil
}

// Save inserts e and prunes entries beyond the history limit in one
// transaction.
func (s *PairStore) Save(ctx context.Context, airport string, marker domain.Marker, e reconcile.Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode split broadcast: %w", err)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO split_broadcasts (airport, marker, observed_at, payload)
			VALUES ($1, $2, $3, $4)`,
			airport, string(marker), e.Result.ObservedAt, payload); err != nil {
			return fmt.Errorf("insert split broadcast: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM split_broadcasts
			WHERE airport = $1 AND marker = $2 AND id NOT IN (
				SELECT id FROM split_broadcasts
				WHERE airport = $1 AND marker = $2
				ORDER BY id DESC
				LIMIT $3
			)`, airport, string(marker), s.history); err != nil {
			return fmt.Errorf("prune split broadcasts: %w", err)
		}
		return nil
	})
}
