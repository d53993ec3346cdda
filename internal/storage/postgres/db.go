// Package postgres is the shared-deployment attempt history store, backed by
// a pgx connection pool.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/promptcraft/internal/storage/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig tunes the connection pool
type PoolConfig struct {
	MaxConns int
	MinConns int
}

// DefaultPoolConfig returns pool settings suitable for a single daemon
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxConns: 10, MinConns: 1}
}

// Open parses the URL, creates a pool and verifies connectivity.
func Open(ctx context.Context, url string, cfg PoolConfig) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is empty")
	}
	pcfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = int32(cfg.MinConns)
	}
	pcfg.MaxConnLifetime = 30 * time.Minute
	pcfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Migrate applies the embedded migrations not yet recorded in schema_migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	all, err := migrations.Load()
	if err != nil {
		return err
	}

	for _, m := range all {
		if m.Version <= current {
			continue
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx for migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING", m.Version); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Name, err)
		}

		slog.Info("applied migration", "name", m.Name, "version", m.Version, "driver", "postgres")
	}

	return nil
}
