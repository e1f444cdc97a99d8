// Spotify API implementation of [CatalogService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spitz/airsync/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Spotify caps playlist reads at 50 items per page and writes at 100
	// URIs per request.
	playlistPageLimit  = 50
	playlistWriteBatch = 100
)

// SpotifyOAuthConfig builds the [oauth2.Config] for the playlist-modify flow.
func SpotifyOAuthConfig(cfg shared.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes: []string{
			"playlist-modify-public",
			"playlist-modify-private",
			"playlist-read-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	URI     string          `json:"uri"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

type playlistTracksPage struct {
	Items []struct {
		Track *struct {
			URI string `json:"uri"`
		} `json:"track"`
	} `json:"items"`
	Next  *string `json:"next"`
	Total int     `json:"total"`
}

// SpotifyService implements [CatalogService] against the Spotify Web API.
//
// All requests carry a bearer token from the injected [TokenSource].
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	oauth      *oauth2.Config
}

// NewSpotifyService creates a Spotify client using the given token source.
func NewSpotifyService(cfg shared.SpotifyConfig, client *http.Client, tokens TokenSource) *SpotifyService {
	if client == nil {
		client = http.DefaultClient
	}

	return &SpotifyService{
		baseURL:    spotifyBaseURL,
		httpClient: client,
		tokens:     tokens,
		oauth:      SpotifyOAuthConfig(cfg),
	}
}

// GetOAuthConfig returns the OAuth2 config for the authorization-code flow.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.oauth
}

// AuthCodeURL returns the authorization URL for user login.
//
// show_dialog forces the consent screen so a refresh token is always issued.
func (s *SpotifyService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("show_dialog", "true"),
	)
}

// ExchangeCode exchanges an authorization code for tokens.
func (s *SpotifyService) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return err
	}

	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: spotify returned status %d", shared.ErrAuthFailed, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchTrack resolves an (artist, title) pair via catalog search.
//
// Takes the provider's top-ranked hit. Returns (nil, nil) on zero results;
// a miss is not an error.
func (s *SpotifyService) SearchTrack(ctx context.Context, artist, title string) (*CatalogTrack, error) {
	query := fmt.Sprintf("artist:%s track:%s", artist, title)

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", "1")

	var response searchResponse
	endpoint := "/search?" + params.Encode()
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	if len(response.Tracks.Items) == 0 {
		return nil, nil
	}

	hit := response.Tracks.Items[0]
	track := &CatalogTrack{
		ID:    hit.ID,
		URI:   hit.URI,
		Title: hit.Name,
	}
	if len(hit.Artists) > 0 {
		track.Artist = hit.Artists[0].Name
	}

	return track, nil
}

// PlaylistTrackURIs returns every track URI in the playlist, following pagination.
func (s *SpotifyService) PlaylistTrackURIs(ctx context.Context, playlistID string) ([]string, error) {
	var uris []string
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?fields=%s&limit=%d&offset=%d",
			playlistID, url.QueryEscape("items(track(uri)),next,total"), playlistPageLimit, offset)

		var page playlistTracksPage
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrPlaylistNotFound, err)
		}

		for _, item := range page.Items {
			if item.Track != nil && item.Track.URI != "" {
				uris = append(uris, item.Track.URI)
			}
		}

		if page.Next == nil {
			break
		}
		offset += playlistPageLimit
	}

	return uris, nil
}

// RemoveTracks deletes the given URIs from the playlist in provider-limit batches.
func (s *SpotifyService) RemoveTracks(ctx context.Context, playlistID string, uris []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)

	for start := 0; start < len(uris); start += playlistWriteBatch {
		end := min(start+playlistWriteBatch, len(uris))

		type trackRef struct {
			URI string `json:"uri"`
		}
		refs := make([]trackRef, 0, end-start)
		for _, uri := range uris[start:end] {
			refs = append(refs, trackRef{URI: uri})
		}

		body := map[string]any{"tracks": refs}
		if err := s.doRequest(ctx, http.MethodDelete, endpoint, body, nil); err != nil {
			return fmt.Errorf("%w: remove: %v", shared.ErrPlaylistWrite, err)
		}
	}

	return nil
}

// AddTracks appends the given URIs to the playlist in provider-limit batches.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)

	for start := 0; start < len(uris); start += playlistWriteBatch {
		end := min(start+playlistWriteBatch, len(uris))

		body := map[string]any{"uris": uris[start:end]}
		if err := s.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return fmt.Errorf("%w: add: %v", shared.ErrPlaylistWrite, err)
		}
	}

	return nil
}

// ReplacePlaylist clears the playlist and adds the ordered URIs.
//
// Returns the number of tracks removed. Replacing with the same input is
// idempotent from the playlist's point of view.
func (s *SpotifyService) ReplacePlaylist(ctx context.Context, playlistID string, uris []string) (int, error) {
	existing, err := s.PlaylistTrackURIs(ctx, playlistID)
	if err != nil {
		return 0, err
	}

	if len(existing) > 0 {
		if err := s.RemoveTracks(ctx, playlistID, existing); err != nil {
			return 0, err
		}
	}

	if len(uris) > 0 {
		if err := s.AddTracks(ctx, playlistID, uris); err != nil {
			return len(existing), err
		}
	}

	return len(existing), nil
}
