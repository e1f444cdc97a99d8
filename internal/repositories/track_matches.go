package repositories

import (
	"database/sql"
	"fmt"

	"github.com/spitz/airsync/internal/models"
)

// TrackMatchRepository stores cached catalog search outcomes.
//
// Rows with a NULL URI record misses, so songs the catalog doesn't carry
// aren't searched again every day. Implements tasks.TrackCacher.
type TrackMatchRepository struct {
	db *sql.DB
}

// NewTrackMatchRepository creates a repository backed by the given database.
func NewTrackMatchRepository(db *sql.DB) *TrackMatchRepository {
	return &TrackMatchRepository{db: db}
}

// Get returns the cached match for a search key and whether one exists.
//
// A hit refreshes the row's last_seen timestamp.
func (r *TrackMatchRepository) Get(searchKey string) (*models.TrackMatch, bool, error) {
	row := r.db.QueryRow(`
		SELECT search_key, artist, title, spotify_uri, spotify_artist, spotify_title, created_at, last_seen
		FROM track_matches
		WHERE search_key = ?
	`, searchKey)

	var match models.TrackMatch
	var uri, spArtist, spTitle sql.NullString
	var createdAt, lastSeen string

	err := row.Scan(&match.SearchKey, &match.Artist, &match.Title, &uri, &spArtist, &spTitle, &createdAt, &lastSeen)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read track match: %w", err)
	}

	match.URI = uri.String
	match.SpotifyArtist = spArtist.String
	match.SpotifyTitle = spTitle.String
	match.CreatedAt = parseSQLiteTime(createdAt)
	match.LastSeen = parseSQLiteTime(lastSeen)

	if _, err := r.db.Exec(`UPDATE track_matches SET last_seen = CURRENT_TIMESTAMP WHERE search_key = ?`, searchKey); err != nil {
		return nil, false, fmt.Errorf("failed to touch track match: %w", err)
	}

	return &match, true, nil
}

// Put stores or replaces a search outcome.
func (r *TrackMatchRepository) Put(match models.TrackMatch) error {
	if match.SearchKey == "" {
		return fmt.Errorf("track match requires a search key")
	}

	uri := sql.NullString{String: match.URI, Valid: match.URI != ""}
	spArtist := sql.NullString{String: match.SpotifyArtist, Valid: match.SpotifyArtist != ""}
	spTitle := sql.NullString{String: match.SpotifyTitle, Valid: match.SpotifyTitle != ""}

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO track_matches
		(search_key, artist, title, spotify_uri, spotify_artist, spotify_title, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, match.SearchKey, match.Artist, match.Title, uri, spArtist, spTitle)
	if err != nil {
		return fmt.Errorf("failed to store track match: %w", err)
	}

	return nil
}

// CacheStats summarizes the cached search outcomes.
type CacheStats struct {
	Hits   int // Searches that found a catalog track
	Misses int // Searches that found nothing
	Total  int
}

// Stats returns counts of cached hits and misses.
func (r *TrackMatchRepository) Stats() (*CacheStats, error) {
	var stats CacheStats

	if err := r.db.QueryRow(`SELECT COUNT(*) FROM track_matches WHERE spotify_uri IS NOT NULL`).Scan(&stats.Hits); err != nil {
		return nil, fmt.Errorf("failed to count cache hits: %w", err)
	}

	if err := r.db.QueryRow(`SELECT COUNT(*) FROM track_matches WHERE spotify_uri IS NULL`).Scan(&stats.Misses); err != nil {
		return nil, fmt.Errorf("failed to count cache misses: %w", err)
	}

	stats.Total = stats.Hits + stats.Misses
	return &stats, nil
}

// Cleanup deletes cached misses not seen within the given number of days.
//
// Hits are kept indefinitely; only stale misses are worth retrying.
func (r *TrackMatchRepository) Cleanup(days int) (int64, error) {
	modifier := fmt.Sprintf("-%d days", days)

	res, err := r.db.Exec(`
		DELETE FROM track_matches
		WHERE spotify_uri IS NULL AND last_seen < datetime('now', ?)
	`, modifier)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up track matches: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}

	return deleted, nil
}
