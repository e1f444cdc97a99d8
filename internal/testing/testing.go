// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/spitz/airsync/internal/models"
	"github.com/spitz/airsync/internal/services"
)

// MockFeed is a test double for [services.FeedService] with function fields
// for per-test behavior.
type MockFeed struct {
	DayLogFunc func(ctx context.Context, day time.Time) ([]models.RadioTrack, int, error)
}

func (m *MockFeed) DayLog(ctx context.Context, day time.Time) ([]models.RadioTrack, int, error) {
	if m.DayLogFunc != nil {
		return m.DayLogFunc(ctx, day)
	}
	return nil, 0, nil
}

// MockTokens is a test double for [services.TokenSource].
type MockTokens struct {
	TokenFunc func(ctx context.Context) (string, error)
	Calls     int
}

func (m *MockTokens) Token(ctx context.Context) (string, error) {
	m.Calls++
	if m.TokenFunc != nil {
		return m.TokenFunc(ctx)
	}
	return "test-token", nil
}

// MockCatalog is a test double for [services.CatalogService]. Zero value
// behaves as an empty catalog with empty playlists.
type MockCatalog struct {
	SearchTrackFunc     func(ctx context.Context, artist, title string) (*services.CatalogTrack, error)
	PlaylistTrackFunc   func(ctx context.Context, playlistID string) ([]string, error)
	AddTracksFunc       func(ctx context.Context, playlistID string, uris []string) error
	ReplacePlaylistFunc func(ctx context.Context, playlistID string, uris []string) (int, error)
	SearchCalls         []string
	AddedURIs           map[string][]string
	ReplacedURIs        map[string][]string
}

func (m *MockCatalog) SearchTrack(ctx context.Context, artist, title string) (*services.CatalogTrack, error) {
	m.SearchCalls = append(m.SearchCalls, artist+"|"+title)
	if m.SearchTrackFunc != nil {
		return m.SearchTrackFunc(ctx, artist, title)
	}
	return nil, nil
}

func (m *MockCatalog) PlaylistTrackURIs(ctx context.Context, playlistID string) ([]string, error) {
	if m.PlaylistTrackFunc != nil {
		return m.PlaylistTrackFunc(ctx, playlistID)
	}
	return nil, nil
}

func (m *MockCatalog) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if m.AddedURIs == nil {
		m.AddedURIs = map[string][]string{}
	}
	m.AddedURIs[playlistID] = append(m.AddedURIs[playlistID], uris...)
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, uris)
	}
	return nil
}

func (m *MockCatalog) ReplacePlaylist(ctx context.Context, playlistID string, uris []string) (int, error) {
	if m.ReplacedURIs == nil {
		m.ReplacedURIs = map[string][]string{}
	}
	m.ReplacedURIs[playlistID] = uris
	if m.ReplacePlaylistFunc != nil {
		return m.ReplacePlaylistFunc(ctx, playlistID, uris)
	}
	return 0, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
}
