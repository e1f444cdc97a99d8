package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/spitz/airsync/internal/models"
	"github.com/spitz/airsync/internal/shared"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func TestTrackMatchRepository(t *testing.T) {
	t.Run("Get Missing Key", func(t *testing.T) {
		repo := NewTrackMatchRepository(testDB(t))

		match, ok, err := repo.Get("nope|nobody")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok || match != nil {
			t.Error("expected no match for unknown key")
		}
	})

	t.Run("Put Then Get Hit", func(t *testing.T) {
		repo := NewTrackMatchRepository(testDB(t))

		put := models.TrackMatch{
			SearchKey:     "creep|radiohead",
			Artist:        "Radiohead",
			Title:         "Creep",
			URI:           "spotify:track:creep",
			SpotifyArtist: "Radiohead",
			SpotifyTitle:  "Creep",
		}
		if err := repo.Put(put); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		match, ok, err := repo.Get("creep|radiohead")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !ok {
			t.Fatal("expected a match")
		}
		if match.URI != "spotify:track:creep" {
			t.Errorf("unexpected URI %q", match.URI)
		}
		if match.SpotifyArtist != "Radiohead" {
			t.Errorf("unexpected artist %q", match.SpotifyArtist)
		}
		if match.CreatedAt.IsZero() {
			t.Error("expected created_at to be set")
		}
	})

	t.Run("Miss Round Trips As Empty URI", func(t *testing.T) {
		repo := NewTrackMatchRepository(testDB(t))

		miss := models.TrackMatch{
			SearchKey: "obscure|unknown",
			Artist:    "Unknown",
			Title:     "Obscure",
		}
		if err := repo.Put(miss); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		match, ok, err := repo.Get("obscure|unknown")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !ok {
			t.Fatal("expected the miss to be cached")
		}
		if match.URI != "" {
			t.Errorf("expected empty URI for a miss, got %q", match.URI)
		}
	})

	t.Run("Put Replaces", func(t *testing.T) {
		repo := NewTrackMatchRepository(testDB(t))

		if err := repo.Put(models.TrackMatch{SearchKey: "k", Artist: "A", Title: "T"}); err != nil {
			t.Fatal(err)
		}
		if err := repo.Put(models.TrackMatch{SearchKey: "k", Artist: "A", Title: "T", URI: "spotify:track:x"}); err != nil {
			t.Fatal(err)
		}

		match, ok, err := repo.Get("k")
		if err != nil || !ok {
			t.Fatalf("Get failed: ok=%v err=%v", ok, err)
		}
		if match.URI != "spotify:track:x" {
			t.Errorf("expected replacement to win, got %q", match.URI)
		}
	})

	t.Run("Requires Search Key", func(t *testing.T) {
		repo := NewTrackMatchRepository(testDB(t))

		if err := repo.Put(models.TrackMatch{Artist: "A", Title: "T"}); err == nil {
			t.Error("expected error for empty search key")
		}
	})

	t.Run("Stats", func(t *testing.T) {
		repo := NewTrackMatchRepository(testDB(t))

		for _, m := range []models.TrackMatch{
			{SearchKey: "a", URI: "spotify:track:a"},
			{SearchKey: "b", URI: "spotify:track:b"},
			{SearchKey: "c"},
		} {
			if err := repo.Put(m); err != nil {
				t.Fatal(err)
			}
		}

		stats, err := repo.Stats()
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if stats.Hits != 2 || stats.Misses != 1 || stats.Total != 3 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		db := testDB(t)
		repo := NewTrackMatchRepository(db)

		for _, m := range []models.TrackMatch{
			{SearchKey: "hit", URI: "spotify:track:a"},
			{SearchKey: "fresh-miss"},
			{SearchKey: "stale-miss"},
		} {
			if err := repo.Put(m); err != nil {
				t.Fatal(err)
			}
		}

		// Age one miss past the threshold.
		if _, err := db.Exec(`UPDATE track_matches SET last_seen = datetime('now', '-60 days') WHERE search_key = 'stale-miss'`); err != nil {
			t.Fatal(err)
		}

		deleted, err := repo.Cleanup(30)
		if err != nil {
			t.Fatalf("Cleanup failed: %v", err)
		}
		if deleted != 1 {
			t.Errorf("expected 1 deleted row, got %d", deleted)
		}

		if _, ok, _ := repo.Get("stale-miss"); ok {
			t.Error("expected stale miss to be gone")
		}
		if _, ok, _ := repo.Get("fresh-miss"); !ok {
			t.Error("expected fresh miss to survive")
		}
		if _, ok, _ := repo.Get("hit"); !ok {
			t.Error("expected hits to survive regardless of age")
		}
	})
}

func TestRunRepository(t *testing.T) {
	summary := func(id string, date time.Time) models.RunSummary {
		return models.RunSummary{
			ID:              id,
			Date:            date,
			TotalPlays:      120,
			SkippedEntries:  3,
			UniqueTracks:    45,
			ResolvedCount:   40,
			UnresolvedCount: 5,
			PlaylistCount:   40,
			CumulativeAdded: 7,
		}
	}

	t.Run("Create And Latest", func(t *testing.T) {
		repo := NewRunRepository(testDB(t))

		day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			if err := repo.Create(summary(shared.GenerateID(), day.AddDate(0, 0, i))); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		runs, err := repo.Latest(2)
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if !runs[0].Date.After(runs[1].Date) {
			t.Errorf("expected newest first, got %v then %v", runs[0].Date, runs[1].Date)
		}
		if runs[0].TotalPlays != 120 || runs[0].CumulativeAdded != 7 {
			t.Errorf("unexpected counts %+v", runs[0])
		}
	})

	t.Run("Requires ID", func(t *testing.T) {
		repo := NewRunRepository(testDB(t))

		if err := repo.Create(models.RunSummary{}); err == nil {
			t.Error("expected error for missing run ID")
		}
	})

	t.Run("Empty History", func(t *testing.T) {
		repo := NewRunRepository(testDB(t))

		runs, err := repo.Latest(10)
		if err != nil {
			t.Fatalf("Latest failed: %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("expected no runs, got %d", len(runs))
		}
	})
}
