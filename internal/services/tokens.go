package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spitz/airsync/internal/shared"
	"golang.org/x/oauth2"
)

// expiryMargin is how close to expiry a cached token may be before it is
// refreshed anyway, so a token never goes stale mid-run.
const expiryMargin = 60 * time.Second

// cachedToken is the on-disk shape of the token cache file.
//
// Kept separate from the config file so secrets aren't rewritten every run.
type cachedToken struct {
	AccessToken string    `json:"access_token"`
	Expiry      time.Time `json:"expiry"`
}

// TokenStore caches a short-lived access token on disk and refreshes it
// from a long-lived refresh token when it is missing or near expiry.
//
// The cache file is read-then-written with no locking; concurrent
// invocations are unsupported.
type TokenStore struct {
	path         string
	config       *oauth2.Config
	refreshToken string
	now          func() time.Time
	mu           sync.Mutex
}

// NewTokenStore creates a TokenStore backed by the cache file at path.
//
// The [oauth2.Config] supplies the token endpoint and client credentials.
func NewTokenStore(path string, config *oauth2.Config, refreshToken string) *TokenStore {
	return &TokenStore{
		path:         path,
		config:       config,
		refreshToken: refreshToken,
		now:          time.Now,
	}
}

// Token returns a valid access token, refreshing and persisting it if the
// cached one is absent or within the expiry margin.
//
// A valid cached token is returned without any network call.
func (t *TokenStore) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.refreshToken == "" {
		return "", fmt.Errorf("%w: run setup to authorize", shared.ErrNoRefreshToken)
	}

	if cached, err := t.load(); err == nil && cached.AccessToken != "" {
		if cached.Expiry.After(t.now().Add(expiryMargin)) {
			return cached.AccessToken, nil
		}
	}

	src := t.config.TokenSource(ctx, &oauth2.Token{RefreshToken: t.refreshToken})
	token, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if err := t.save(cachedToken{AccessToken: token.AccessToken, Expiry: token.Expiry}); err != nil {
		return "", fmt.Errorf("failed to persist token cache: %w", err)
	}

	return token.AccessToken, nil
}

// CachedExpiry returns the expiry of the cached token, or the zero time if
// no token is cached.
func (t *TokenStore) CachedExpiry() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	cached, err := t.load()
	if err != nil {
		return time.Time{}
	}
	return cached.Expiry
}

func (t *TokenStore) load() (*cachedToken, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return nil, err
	}

	var cached cachedToken
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to parse token cache: %w", err)
	}

	return &cached, nil
}

func (t *TokenStore) save(cached cachedToken) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return fmt.Errorf("failed to create token cache directory: %w", err)
	}

	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token cache: %w", err)
	}

	if err := os.WriteFile(t.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}

	return nil
}
