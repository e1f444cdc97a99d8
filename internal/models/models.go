package models

import "time"

// RadioTrack is a single song play from the station's air log.
//
// Immutable once produced by the feed client. PlayedAt is station-local.
type RadioTrack struct {
	Artist   string    `json:"artist"`
	Title    string    `json:"title"`
	PlayedAt time.Time `json:"played_at"`
}

// ResolvedTrack pairs a RadioTrack with its catalog match, if any.
//
// An empty URI means the catalog search returned no results.
type ResolvedTrack struct {
	Track RadioTrack `json:"track"`
	URI   string     `json:"uri,omitempty"`
}

// Resolved reports whether the track was matched to a catalog entry.
func (r ResolvedTrack) Resolved() bool {
	return r.URI != ""
}

// TrackMatch is a cached catalog search outcome keyed by normalized artist/title.
//
// A row with an empty URI records a miss, so repeated runs don't redo
// searches for songs the catalog doesn't carry.
type TrackMatch struct {
	SearchKey     string
	Artist        string
	Title         string
	URI           string
	SpotifyArtist string
	SpotifyTitle  string
	CreatedAt     time.Time
	LastSeen      time.Time
}

// RunSummary records a single pipeline invocation.
type RunSummary struct {
	ID              string       `json:"id"`
	Date            time.Time    `json:"date"`
	TotalPlays      int          `json:"total_plays"`
	SkippedEntries  int          `json:"skipped_entries"`
	UniqueTracks    int          `json:"unique_tracks"`
	ResolvedCount   int          `json:"resolved"`
	UnresolvedCount int          `json:"unresolved"`
	PlaylistCount   int          `json:"playlist_count"`
	CumulativeAdded int          `json:"cumulative_added"`
	Unresolved      []RadioTrack `json:"unresolved_tracks,omitempty"`
	DryRun          bool         `json:"dry_run,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}
