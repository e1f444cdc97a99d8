// TuneGenie implementation of [FeedService]
//
// The public nowplaying endpoint returns a JSON array of play entries for a
// brand within a since/until window.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spitz/airsync/internal/models"
	"github.com/spitz/airsync/internal/shared"
)

const (
	defaultFeedAttempts = 3
	feedRetryDelay      = 2 * time.Second

	// Timestamp format the feed expects for since/until, e.g.
	// 2024-05-01T00:00:00.00-04:00
	feedTimeLayout = "2006-01-02T15:04:05.00-07:00"
)

// feedEntry is one raw play record from the feed.
type feedEntry struct {
	Artist   string `json:"artist"`
	Song     string `json:"song"`
	PlayedAt string `json:"played_at"`
}

// TuneGenieService implements [FeedService] against the TuneGenie API.
type TuneGenieService struct {
	baseURL    string
	apiID      string
	brand      string
	loc        *time.Location
	httpClient *http.Client
	attempts   int
	retryDelay time.Duration
}

// NewTuneGenieService creates a feed client for the configured station brand.
//
// The timezone offset (e.g. "-04:00") defines the station-local calendar day.
func NewTuneGenieService(cfg shared.TuneGenieConfig, client *http.Client) (*TuneGenieService, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("%w: tunegenie api_url is required", shared.ErrInvalidConfig)
	}
	if cfg.Brand == "" {
		return nil, fmt.Errorf("%w: tunegenie brand is required", shared.ErrInvalidConfig)
	}

	loc, err := parseOffset(cfg.TimezoneOffset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &TuneGenieService{
		baseURL:    cfg.APIURL,
		apiID:      cfg.APIID,
		brand:      cfg.Brand,
		loc:        loc,
		httpClient: client,
		attempts:   defaultFeedAttempts,
		retryDelay: feedRetryDelay,
	}, nil
}

// Location returns the station's timezone, used to decide which calendar
// day "yesterday" refers to.
func (s *TuneGenieService) Location() *time.Location {
	return s.loc
}

// SetAttempts overrides the fixed retry count. Values below 1 are ignored.
func (s *TuneGenieService) SetAttempts(n int) {
	if n >= 1 {
		s.attempts = n
	}
}

// DayWindow returns the since/until bounds for a calendar day in the
// station's timezone, formatted the way the feed expects.
func (s *TuneGenieService) DayWindow(day time.Time) (string, string) {
	y, m, d := day.Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	until := time.Date(y, m, d, 23, 59, 0, 0, s.loc)
	return since.Format(feedTimeLayout), until.Format(feedTimeLayout)
}

// DayLog fetches the plays reported for the given calendar day.
//
// Entries are returned in feed order. Entries missing an artist or title,
// with an unparseable timestamp, or timestamped outside the requested day
// are skipped and counted, not fatal. The request is retried a fixed number
// of times; exhausting all attempts yields [shared.ErrFeedUnavailable].
func (s *TuneGenieService) DayLog(ctx context.Context, day time.Time) ([]models.RadioTrack, int, error) {
	since, until := s.DayWindow(day)

	params := url.Values{}
	params.Set("apiid", s.apiID)
	params.Set("b", s.brand)
	params.Set("since", since)
	params.Set("until", until)

	fullURL := s.baseURL + "?" + params.Encode()

	var entries []feedEntry
	var lastErr error

	for attempt := 1; attempt <= s.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}

		entries, lastErr = s.fetch(ctx, fullURL)
		if lastErr == nil {
			break
		}
	}

	if lastErr != nil {
		return nil, 0, fmt.Errorf("%w: after %d attempts: %v", shared.ErrFeedUnavailable, s.attempts, lastErr)
	}

	y, m, d := day.Date()
	tracks := make([]models.RadioTrack, 0, len(entries))
	skipped := 0

	for _, entry := range entries {
		if strings.TrimSpace(entry.Artist) == "" || strings.TrimSpace(entry.Song) == "" {
			skipped++
			continue
		}

		playedAt, err := time.Parse(time.RFC3339, entry.PlayedAt)
		if err != nil {
			skipped++
			continue
		}

		local := playedAt.In(s.loc)
		ly, lm, ld := local.Date()
		if ly != y || lm != m || ld != d {
			skipped++
			continue
		}

		tracks = append(tracks, models.RadioTrack{
			Artist:   entry.Artist,
			Title:    entry.Song,
			PlayedAt: local,
		})
	}

	return tracks, skipped, nil
}

func (s *TuneGenieService) fetch(ctx context.Context, fullURL string) ([]feedEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var entries []feedEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode feed response: %w", err)
	}

	return entries, nil
}

// parseOffset converts an offset string like "-04:00" into a fixed zone.
// An empty offset means UTC.
func parseOffset(offset string) (*time.Location, error) {
	if offset == "" || offset == "Z" {
		return time.UTC, nil
	}

	if len(offset) != 6 || (offset[0] != '+' && offset[0] != '-') || offset[3] != ':' {
		return nil, fmt.Errorf("invalid timezone offset %q, expected ±hh:mm", offset)
	}

	hours, err := strconv.Atoi(offset[1:3])
	if err != nil {
		return nil, fmt.Errorf("invalid timezone offset %q: %v", offset, err)
	}

	minutes, err := strconv.Atoi(offset[4:6])
	if err != nil {
		return nil, fmt.Errorf("invalid timezone offset %q: %v", offset, err)
	}

	seconds := hours*3600 + minutes*60
	if offset[0] == '-' {
		seconds = -seconds
	}

	return time.FixedZone("UTC"+offset, seconds), nil
}
