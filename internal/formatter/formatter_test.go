package formatter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spitz/airsync/internal/models"
)

func sampleSummary() *models.RunSummary {
	return &models.RunSummary{
		ID:              "run1",
		Date:            time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		TotalPlays:      120,
		SkippedEntries:  3,
		UniqueTracks:    45,
		ResolvedCount:   43,
		UnresolvedCount: 2,
		PlaylistCount:   43,
		CumulativeAdded: 7,
		Unresolved: []models.RadioTrack{
			{Artist: "Unknown Act", Title: "Obscure B-Side", PlayedAt: time.Date(2024, 5, 1, 8, 15, 0, 0, time.UTC)},
			{Artist: "Local Band", Title: "Demo Tape", PlayedAt: time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)},
		},
	}
}

func TestSummaryText(t *testing.T) {
	text := string(SummaryText(sampleSummary()))

	for _, want := range []string{
		"2024-05-01",
		"Plays: 120",
		"Unique tracks: 45",
		"Resolved: 43",
		"Unresolved: 2",
		"Unknown Act - Obscure B-Side",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q:\n%s", want, text)
		}
	}

	t.Run("dry run", func(t *testing.T) {
		summary := sampleSummary()
		summary.DryRun = true

		text := string(SummaryText(summary))
		if !strings.Contains(text, "dry run") {
			t.Error("expected dry run marker")
		}
		if strings.Contains(text, "Added to cumulative") {
			t.Error("expected no write counts on dry run")
		}
	})
}

func TestSummaryMarkdown(t *testing.T) {
	md := string(SummaryMarkdown(sampleSummary()))

	if !strings.HasPrefix(md, "# Air-log sync for 2024-05-01") {
		t.Errorf("unexpected heading:\n%s", md)
	}
	if !strings.Contains(md, "## Unresolved tracks") {
		t.Error("expected unresolved section")
	}
	if !strings.Contains(md, "**Resolved**: 43") {
		t.Error("expected resolved count")
	}
}

func TestUnresolvedCSV(t *testing.T) {
	data, err := UnresolvedCSV(sampleSummary())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("output did not parse as CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "Artist" {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[1][0] != "Unknown Act" || records[1][1] != "Obscure B-Side" {
		t.Errorf("unexpected first row %v", records[1])
	}
}

func TestWriteReport(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		dir := t.TempDir()

		result, err := WriteReport(sampleSummary(), dir, "text")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.SummaryFile != filepath.Join(dir, "sync_2024-05-01.txt") {
			t.Errorf("unexpected summary file %q", result.SummaryFile)
		}
		if _, err := os.Stat(result.SummaryFile); err != nil {
			t.Errorf("summary file not written: %v", err)
		}
		if result.UnresolvedFile == "" {
			t.Error("expected unresolved CSV alongside the report")
		}
	})

	t.Run("JSON", func(t *testing.T) {
		dir := t.TempDir()

		result, err := WriteReport(sampleSummary(), dir, "json")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasSuffix(result.SummaryFile, ".json") {
			t.Errorf("expected .json extension, got %q", result.SummaryFile)
		}
	})

	t.Run("No Unresolved File When Clean", func(t *testing.T) {
		summary := sampleSummary()
		summary.Unresolved = nil
		summary.UnresolvedCount = 0

		result, err := WriteReport(summary, t.TempDir(), "markdown")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.UnresolvedFile != "" {
			t.Errorf("expected no unresolved file, got %q", result.UnresolvedFile)
		}
	})

	t.Run("Unknown Format", func(t *testing.T) {
		if _, err := WriteReport(sampleSummary(), t.TempDir(), "pdf"); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
