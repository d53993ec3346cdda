// Package sqlite is the embedded attempt history store. One database file
// holds finished attempts and the domain event log.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/promptcraft/internal/storage/migrations"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a sql.DB connection to a SQLite database with migration support.
type DB struct {
	*sql.DB
}

// Open creates a new SQLite connection with WAL mode and foreign keys enabled.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Single writer
	db.SetMaxOpenConns(1)

	return &DB{DB: db}, nil
}

// Migrate applies all pending SQL migrations from the embedded filesystem.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	currentVersion, err := db.Version(ctx)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	all, err := migrations.Load()
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range all {
		if m.Version <= currentVersion {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx for migration %s: %w", m.Name, err)
		}

		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}

		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.Name, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Name, err)
		}

		applied++
		slog.Info("applied migration", "name", m.Name, "version", m.Version)
	}

	if applied > 0 {
		slog.Info("migrations complete", "applied", applied)
	}

	return nil
}

// Version returns the current schema version.
func (db *DB) Version(ctx context.Context) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}
