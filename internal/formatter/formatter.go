// package formatter renders sync run summaries to various formats (plain text, Markdown, CSV, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spitz/airsync/internal/models"
	"github.com/spitz/airsync/internal/shared"
)

// SummaryText renders a run summary as plain text.
func SummaryText(summary *models.RunSummary) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Sync for %s\n", summary.Date.Format("2006-01-02")))
	if summary.DryRun {
		buf.WriteString("Mode: dry run (no playlist changes)\n")
	}
	buf.WriteString(fmt.Sprintf("Plays: %d", summary.TotalPlays))
	if summary.SkippedEntries > 0 {
		buf.WriteString(fmt.Sprintf(" (%d feed entries skipped)", summary.SkippedEntries))
	}
	buf.WriteString("\n")
	buf.WriteString(fmt.Sprintf("Unique tracks: %d\n", summary.UniqueTracks))
	buf.WriteString(fmt.Sprintf("Resolved: %d\n", summary.ResolvedCount))
	buf.WriteString(fmt.Sprintf("Unresolved: %d\n", summary.UnresolvedCount))
	if !summary.DryRun {
		buf.WriteString(fmt.Sprintf("Playlist tracks: %d\n", summary.PlaylistCount))
		buf.WriteString(fmt.Sprintf("Added to cumulative: %d\n", summary.CumulativeAdded))
	}

	if len(summary.Unresolved) > 0 {
		buf.WriteString("\nUnresolved tracks:\n")
		for i, track := range summary.Unresolved {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Title))
		}
	}

	return buf.Bytes()
}

// SummaryMarkdown renders a run summary as Markdown.
func SummaryMarkdown(summary *models.RunSummary) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Air-log sync for %s\n\n", summary.Date.Format("2006-01-02")))
	if summary.DryRun {
		buf.WriteString("_Dry run: no playlist changes were made._\n\n")
	}

	buf.WriteString(fmt.Sprintf("**Plays**: %d\n", summary.TotalPlays))
	buf.WriteString(fmt.Sprintf("**Skipped feed entries**: %d\n", summary.SkippedEntries))
	buf.WriteString(fmt.Sprintf("**Unique tracks**: %d\n", summary.UniqueTracks))
	buf.WriteString(fmt.Sprintf("**Resolved**: %d\n", summary.ResolvedCount))
	buf.WriteString(fmt.Sprintf("**Unresolved**: %d\n", summary.UnresolvedCount))
	if !summary.DryRun {
		buf.WriteString(fmt.Sprintf("**Playlist tracks**: %d\n", summary.PlaylistCount))
		buf.WriteString(fmt.Sprintf("**Added to cumulative**: %d\n", summary.CumulativeAdded))
	}
	buf.WriteString("\n")

	if len(summary.Unresolved) > 0 {
		buf.WriteString("## Unresolved tracks\n\n")
		for i, track := range summary.Unresolved {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Title))
		}
	}

	return buf.Bytes()
}

// UnresolvedCSV renders the unresolved tracks of a run as CSV with columns:
// Artist, Title, PlayedAt.
func UnresolvedCSV(summary *models.RunSummary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Artist", "Title", "PlayedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range summary.Unresolved {
		record := []string{
			track.Artist,
			track.Title,
			track.PlayedAt.Format("2006-01-02 15:04"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SummaryJSON generates a JSON representation of a run summary.
func SummaryJSON(summary *models.RunSummary) ([]byte, error) {
	return shared.MarshalJSON(summary, true)
}

// ReportResult contains the paths of files created by WriteReport.
type ReportResult struct {
	SummaryFile    string
	UnresolvedFile string
}

// WriteReport writes a run summary to the given directory in the requested
// format ("text", "markdown", or "json").
//
// Filenames are derived from the run date: sync_{date}.{ext}, plus
// sync_{date}_unresolved.csv when any tracks could not be resolved.
func WriteReport(summary *models.RunSummary, outputDir string, format string) (*ReportResult, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	base := "sync_" + summary.Date.Format("2006-01-02")

	var data []byte
	var ext string
	var err error
	switch format {
	case "", "text":
		data, ext = SummaryText(summary), "txt"
	case "markdown", "md":
		data, ext = SummaryMarkdown(summary), "md"
	case "json":
		ext = "json"
		data, err = SummaryJSON(summary)
		if err != nil {
			return nil, fmt.Errorf("failed to generate JSON report: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, format)
	}

	result := &ReportResult{}

	result.SummaryFile = filepath.Join(outputDir, fmt.Sprintf("%s.%s", base, ext))
	if err := os.WriteFile(result.SummaryFile, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write report file: %w", err)
	}

	if len(summary.Unresolved) > 0 {
		csvData, err := UnresolvedCSV(summary)
		if err != nil {
			return nil, fmt.Errorf("failed to generate unresolved CSV: %w", err)
		}
		result.UnresolvedFile = filepath.Join(outputDir, base+"_unresolved.csv")
		if err := os.WriteFile(result.UnresolvedFile, csvData, 0644); err != nil {
			return nil, fmt.Errorf("failed to write unresolved CSV: %w", err)
		}
	}

	return result, nil
}
