package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/promptcraft/internal/config"
	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/felixgeelhaar/promptcraft/internal/storage/postgres"
	"github.com/felixgeelhaar/promptcraft/internal/storage/sqlite"
)

// backends holds the opened history and event stores
type backends struct {
	history domain.AttemptRepository
	events  *sqlite.EventStore
	pruners map[string]Pruner
	closers []func() error
}

// openBackends opens the SQLite database that always holds the event log,
// and the attempt history on the configured driver.
func openBackends(ctx context.Context, cfg *config.LocalConfig, dataDir string) (*backends, error) {
	b := &backends{pruners: make(map[string]Pruner)}

	db, err := sqlite.Open(cfg.SQLitePath(dataDir))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	b.closers = append(b.closers, db.Close)

	if err := db.Migrate(ctx); err != nil {
		b.close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	b.events = sqlite.NewEventStore(db)
	b.pruners["events"] = b.events

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.Storage.PostgresURL, postgres.DefaultPoolConfig())
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, func() error { pool.Close(); return nil })

		if err := postgres.Migrate(ctx, pool); err != nil {
			b.close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		store := postgres.NewAttemptStore(pool)
		b.history = store
		b.pruners["attempts"] = store

	default:
		store := sqlite.NewAttemptStore(db)
		b.history = store
		b.pruners["attempts"] = store
	}

	slog.Info("storage ready", "driver", cfg.Storage.Driver, "sqlite", cfg.SQLitePath(dataDir))
	return b, nil
}

// close releases in reverse order of opening
func (b *backends) close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
