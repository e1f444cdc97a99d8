package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spitz/airsync/internal/repositories"
	"github.com/spitz/airsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// openDatabase opens the configured database and ensures migrations have run.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// CacheStats prints hit and miss counts for the track match cache.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfigFor(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := repositories.NewTrackMatchRepository(db).Stats()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	r.writePlain("Cached searches: %d\n", stats.Total)
	r.writePlain("  Matched: %d\n", stats.Hits)
	r.writePlain("  Missed:  %d\n", stats.Misses)

	return nil
}

// CacheCleanup deletes cached misses that have not been seen recently.
//
// Matched tracks are never deleted; only stale misses are worth retrying.
func (r *Runner) CacheCleanup(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfigFor(cmd)

	days := cmd.Int("days")
	if days <= 0 {
		return fmt.Errorf("%w: --days must be positive", shared.ErrInvalidArgument)
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	deleted, err := repositories.NewTrackMatchRepository(db).Cleanup(int(days))
	if err != nil {
		return err
	}

	r.logger.Infof("cache cleanup removed %d stale misses", deleted)
	r.writePlain("✓ Removed %d cached misses older than %d days\n", deleted, days)

	return nil
}
