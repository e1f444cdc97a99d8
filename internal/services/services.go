// package services defines clients for the HTTP APIs the pipeline consumes
//
// TuneGenie (radio air log), Spotify (catalog search + playlist writes)
package services

import (
	"context"
	"time"

	"github.com/spitz/airsync/internal/models"
)

// FeedService fetches a station's air log for a calendar day.
type FeedService interface {
	// DayLog returns the plays reported for the given day in broadcast order,
	// along with the number of malformed entries that were skipped.
	DayLog(ctx context.Context, day time.Time) ([]models.RadioTrack, int, error)
}

// CatalogService exposes the streaming service operations the pipeline needs:
// track search and playlist reads/writes.
type CatalogService interface {
	// SearchTrack resolves an (artist, title) pair to a catalog track.
	// Returns (nil, nil) when the search yields no results.
	SearchTrack(ctx context.Context, artist, title string) (*CatalogTrack, error)

	// PlaylistTrackURIs returns all track URIs currently in a playlist.
	PlaylistTrackURIs(ctx context.Context, playlistID string) ([]string, error)

	// AddTracks appends tracks to a playlist, batched to the provider's write limit.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// ReplacePlaylist removes every track from the playlist and adds the given
	// ordered URIs. Returns the number of tracks removed.
	ReplacePlaylist(ctx context.Context, playlistID string, uris []string) (int, error)
}

// TokenSource yields a valid bearer token for authenticated API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken adapts a fixed access token to the [TokenSource] interface.
//
// Used by the setup flow to verify a token fresh from the authorization exchange.
type StaticToken string

func (s StaticToken) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// CatalogTrack is a search hit from the catalog.
type CatalogTrack struct {
	ID     string
	URI    string
	Title  string
	Artist string
}
