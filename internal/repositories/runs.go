package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spitz/airsync/internal/models"
)

// RunRepository stores one row per completed sync run. Implements
// tasks.RunRecorder.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a repository backed by the given database.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create records a completed run.
func (r *RunRepository) Create(summary models.RunSummary) error {
	if summary.ID == "" {
		return fmt.Errorf("run requires an id")
	}

	_, err := r.db.Exec(`
		INSERT INTO runs
		(id, run_date, total_plays, skipped_entries, unique_tracks, resolved, unresolved, playlist_count, cumulative_added, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`,
		summary.ID,
		summary.Date.Format("2006-01-02"),
		summary.TotalPlays,
		summary.SkippedEntries,
		summary.UniqueTracks,
		summary.ResolvedCount,
		summary.UnresolvedCount,
		summary.PlaylistCount,
		summary.CumulativeAdded,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// Latest returns the most recent runs, newest first.
func (r *RunRepository) Latest(limit int) ([]models.RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(`
		SELECT id, run_date, total_plays, skipped_entries, unique_tracks, resolved, unresolved, playlist_count, cumulative_added, created_at
		FROM runs
		ORDER BY created_at DESC, run_date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunSummary
	for rows.Next() {
		var run models.RunSummary
		var runDate, createdAt string

		err := rows.Scan(
			&run.ID,
			&runDate,
			&run.TotalPlays,
			&run.SkippedEntries,
			&run.UniqueTracks,
			&run.ResolvedCount,
			&run.UnresolvedCount,
			&run.PlaylistCount,
			&run.CumulativeAdded,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to read run: %w", err)
		}

		if day, err := time.Parse("2006-01-02", runDate); err == nil {
			run.Date = day
		}
		run.CreatedAt = parseSQLiteTime(createdAt)

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}
