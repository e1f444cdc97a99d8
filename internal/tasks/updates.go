package tasks

import (
	"fmt"

	"github.com/spitz/airsync/internal/models"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Pipeline phase enumeration. Phases run strictly in this order; any
// failure aborts the run without entering later phases.
type Phase int

const (
	RefreshToken Phase = iota
	FetchLog
	ResolveTracks
	ReplaceDaily
	UpdateCumulative
	RecordRun
)

func (p Phase) String() string {
	switch p {
	case RefreshToken:
		return "refresh_token"
	case FetchLog:
		return "fetch_log"
	case ResolveTracks:
		return "resolve_tracks"
	case ReplaceDaily:
		return "replace_daily"
	case UpdateCumulative:
		return "update_cumulative"
	case RecordRun:
		return "record_run"
	default:
		return ""
	}
}

func tokenUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   RefreshToken,
		Step:    1,
		Total:   1,
		Message: "Checking Spotify access token...",
	}
}

func fetchLogUpdate(date string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching air log for %s...", date),
	}
}

func logFetchedUpdate(plays, skipped int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d plays (%d malformed entries skipped)", plays, skipped),
	}
}

func resolveUpdate(step, total int, tr *models.RadioTrack) ProgressUpdate {
	if tr == nil {
		return ProgressUpdate{
			Phase:   ResolveTracks,
			Step:    step,
			Total:   total,
			Message: "Resolving tracks against the catalog...",
		}
	}
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, tr.Artist, tr.Title),
	}
}

func replaceDailyUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReplaceDaily,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Replacing daily playlist with %d tracks...", count),
	}
}

func skipReplaceUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReplaceDaily,
		Step:    1,
		Total:   1,
		Message: "No tracks resolved; leaving daily playlist untouched",
	}
}

func cumulativeUpdate(added int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UpdateCumulative,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Adding %d new tracks to cumulative playlist...", added),
	}
}

func recordRunUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordRun,
		Step:    1,
		Total:   1,
		Message: "Recording run history...",
	}
}
