package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spitz/airsync/internal/models"
	"github.com/spitz/airsync/internal/services"
	"github.com/spitz/airsync/internal/shared"
	"golang.org/x/time/rate"
)

// catalogFailureLimit is the number of consecutive search failures after
// which the catalog is considered unavailable and the run aborts.
const catalogFailureLimit = 5

// TrackCacher persists catalog search outcomes, including misses.
type TrackCacher interface {
	// Get returns the cached match for a search key, and whether one exists.
	Get(searchKey string) (*models.TrackMatch, bool, error)
	// Put stores or refreshes a match.
	Put(match models.TrackMatch) error
}

// RunRecorder persists run summaries.
type RunRecorder interface {
	Create(summary models.RunSummary) error
}

// SyncResult contains everything a completed run produced.
type SyncResult struct {
	Summary    models.RunSummary      // Counts and unresolved list
	Resolved   []models.ResolvedTrack // Unique tracks in first-occurrence order
	PlaylistID string                 // Daily playlist that was written
	Cleared    int                    // Tracks removed from the daily playlist
	WriteDone  bool                   // False when the write was skipped (dry run or empty day)
}

// EngineOpts configures a [SyncEngine].
type EngineOpts struct {
	DailyPlaylistID      string  // Required target playlist
	CumulativePlaylistID string  // Optional; empty disables the cumulative update
	ClearOnEmpty         bool    // Clear the daily playlist even with zero resolved tracks
	RateLimit            float64 // Catalog searches per second; <= 0 disables limiting
	DryRun               bool    // Resolve only; no playlist writes, no run record
}

// SyncEngine runs the feed → resolve → replace pipeline for one day.
type SyncEngine struct {
	tokens  services.TokenSource
	feed    services.FeedService
	catalog services.CatalogService
	cache   TrackCacher
	runs    RunRecorder
	limiter *rate.Limiter
	logger  *log.Logger
	opts    EngineOpts
}

// NewSyncEngine creates a SyncEngine with the provided dependencies.
func NewSyncEngine(tokens services.TokenSource, feed services.FeedService, catalog services.CatalogService, opts EngineOpts) *SyncEngine {
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &SyncEngine{
		tokens:  tokens,
		feed:    feed,
		catalog: catalog,
		limiter: limiter,
		logger:  shared.NewLogger(nil),
		opts:    opts,
	}
}

// SetTrackCache attaches an optional search-result cache.
func (e *SyncEngine) SetTrackCache(cache TrackCacher) {
	e.cache = cache
}

// SetRunRecorder attaches an optional run-history recorder.
func (e *SyncEngine) SetRunRecorder(runs RunRecorder) {
	e.runs = runs
}

// SetLogger overrides the engine's logger.
func (e *SyncEngine) SetLogger(logger *log.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes the full pipeline for the given calendar day.
//
// Individual unresolved tracks never fail the run; any other error aborts
// it immediately, and no playlist write is attempted after an abort.
func (e *SyncEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, day time.Time) (*SyncResult, error) {
	if e.opts.DailyPlaylistID == "" && !e.opts.DryRun {
		return nil, fmt.Errorf("%w: daily_playlist_id is not configured", shared.ErrInvalidConfig)
	}

	e.sendProgress(progress, tokenUpdate())
	if _, err := e.tokens.Token(ctx); err != nil {
		return nil, err
	}

	date := day.Format("2006-01-02")
	e.sendProgress(progress, fetchLogUpdate(date))

	plays, skipped, err := e.feed.DayLog(ctx, day)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, logFetchedUpdate(len(plays), skipped))

	resolved, unresolved, err := e.resolve(ctx, progress, plays)
	if err != nil {
		return nil, err
	}

	uris := make([]string, 0, len(resolved))
	for _, r := range resolved {
		if r.Resolved() {
			uris = append(uris, r.URI)
		}
	}

	result := &SyncResult{
		Resolved:   resolved,
		PlaylistID: e.opts.DailyPlaylistID,
		Summary: models.RunSummary{
			ID:              shared.GenerateID(),
			Date:            day,
			TotalPlays:      len(plays),
			SkippedEntries:  skipped,
			UniqueTracks:    len(resolved),
			ResolvedCount:   len(uris),
			UnresolvedCount: len(unresolved),
			Unresolved:      unresolved,
			DryRun:          e.opts.DryRun,
			CreatedAt:       time.Now(),
		},
	}

	if e.opts.DryRun {
		result.Summary.PlaylistCount = len(uris)
		return result, nil
	}

	if len(uris) == 0 && !e.opts.ClearOnEmpty {
		e.sendProgress(progress, skipReplaceUpdate())
		e.logger.Warn("no tracks resolved, skipping playlist write", "date", date)
	} else {
		e.sendProgress(progress, replaceDailyUpdate(len(uris)))
		cleared, err := e.catalog.ReplacePlaylist(ctx, e.opts.DailyPlaylistID, uris)
		if err != nil {
			return nil, err
		}
		result.Cleared = cleared
		result.WriteDone = true
		result.Summary.PlaylistCount = len(uris)
	}

	if e.opts.CumulativePlaylistID != "" && len(uris) > 0 {
		added, err := e.updateCumulative(ctx, progress, uris)
		if err != nil {
			return nil, err
		}
		result.Summary.CumulativeAdded = added
	}

	if e.runs != nil {
		e.sendProgress(progress, recordRunUpdate())
		if err := e.runs.Create(result.Summary); err != nil {
			e.logger.Warn("failed to record run history", "error", err)
		}
	}

	return result, nil
}

// resolve maps each unique play to a catalog URI, in first-occurrence order.
//
// The local cache is consulted before searching; both hits and misses are
// cached. A zero-result search yields an unresolved track. Transport-level
// search failures are tolerated per track, but too many in a row abort the
// run with [shared.ErrCatalogUnavailable].
func (e *SyncEngine) resolve(ctx context.Context, progress chan<- ProgressUpdate, plays []models.RadioTrack) ([]models.ResolvedTrack, []models.RadioTrack, error) {
	seen := make(map[string]bool, len(plays))

	// Count unique tracks first so progress totals are stable.
	unique := make([]models.RadioTrack, 0, len(plays))
	for _, tr := range plays {
		key := shared.NormalizeTrackKey(tr.Title, tr.Artist)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, tr)
	}

	e.sendProgress(progress, resolveUpdate(0, len(unique), nil))

	var resolved []models.ResolvedTrack
	var unresolved []models.RadioTrack
	consecutiveFailures := 0

	for i, tr := range unique {
		e.sendProgress(progress, resolveUpdate(i+1, len(unique), &tr))

		key := shared.NormalizeTrackKey(tr.Title, tr.Artist)

		if e.cache != nil {
			match, ok, err := e.cache.Get(key)
			if err != nil {
				e.logger.Warn("track cache read failed", "key", key, "error", err)
			} else if ok {
				resolved = append(resolved, models.ResolvedTrack{Track: tr, URI: match.URI})
				if match.URI == "" {
					unresolved = append(unresolved, tr)
				}
				continue
			}
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, nil, err
			}
		}

		hit, err := e.catalog.SearchTrack(ctx, tr.Artist, tr.Title)
		if err != nil {
			if errors.Is(err, shared.ErrAuthFailed) {
				return nil, nil, err
			}

			consecutiveFailures++
			if consecutiveFailures >= catalogFailureLimit {
				return nil, nil, fmt.Errorf("%w: %d consecutive search failures, last: %v",
					shared.ErrCatalogUnavailable, consecutiveFailures, err)
			}

			e.logger.Warn("search failed, skipping track", "artist", tr.Artist, "title", tr.Title, "error", err)
			resolved = append(resolved, models.ResolvedTrack{Track: tr})
			unresolved = append(unresolved, tr)
			continue
		}
		consecutiveFailures = 0

		entry := models.ResolvedTrack{Track: tr}
		match := models.TrackMatch{SearchKey: key, Artist: tr.Artist, Title: tr.Title}

		if hit != nil {
			entry.URI = hit.URI
			match.URI = hit.URI
			match.SpotifyArtist = hit.Artist
			match.SpotifyTitle = hit.Title
		} else {
			unresolved = append(unresolved, tr)
		}

		resolved = append(resolved, entry)

		if e.cache != nil {
			if err := e.cache.Put(match); err != nil {
				e.logger.Warn("track cache write failed", "key", key, "error", err)
			}
		}
	}

	return resolved, unresolved, nil
}

// updateCumulative appends the day's URIs to the cumulative playlist,
// skipping any already present. The cumulative playlist is never cleared.
//
// A read failure skips the update rather than risking duplicate appends.
func (e *SyncEngine) updateCumulative(ctx context.Context, progress chan<- ProgressUpdate, uris []string) (int, error) {
	existing, err := e.catalog.PlaylistTrackURIs(ctx, e.opts.CumulativePlaylistID)
	if err != nil {
		e.logger.Warn("failed to read cumulative playlist, skipping update", "error", err)
		return 0, nil
	}

	present := make(map[string]bool, len(existing))
	for _, uri := range existing {
		present[uri] = true
	}

	var fresh []string
	for _, uri := range uris {
		if !present[uri] {
			fresh = append(fresh, uri)
		}
	}

	if len(fresh) == 0 {
		return 0, nil
	}

	e.sendProgress(progress, cumulativeUpdate(len(fresh)))
	if err := e.catalog.AddTracks(ctx, e.opts.CumulativePlaylistID, fresh); err != nil {
		return 0, err
	}

	return len(fresh), nil
}
