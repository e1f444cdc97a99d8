package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Spotify   SpotifyConfig   `toml:"spotify"`
	TuneGenie TuneGenieConfig `toml:"tunegenie"`
	Sync      SyncConfig      `toml:"sync"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
}

// SpotifyConfig contains Spotify API credentials and target playlists.
type SpotifyConfig struct {
	ClientID             string `toml:"client_id"`
	ClientSecret         string `toml:"client_secret"`
	RefreshToken         string `toml:"refresh_token"`
	RedirectURI          string `toml:"redirect_uri"`
	DailyPlaylistID      string `toml:"daily_playlist_id"`
	CumulativePlaylistID string `toml:"cumulative_playlist_id"`
}

// TuneGenieConfig contains the radio log feed settings.
type TuneGenieConfig struct {
	APIURL         string `toml:"api_url"`
	APIID          string `toml:"api_id"`
	Brand          string `toml:"brand"`
	TimezoneOffset string `toml:"timezone_offset"`
}

// SyncConfig contains pipeline tuning knobs.
type SyncConfig struct {
	TokenCachePath string  `toml:"token_cache_path"`
	ClearOnEmpty   bool    `toml:"clear_on_empty"`
	RateLimit      float64 `toml:"rate_limit"`
	FeedAttempts   int     `toml:"feed_attempts"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// SaveConfig writes the configuration back to the specified path as TOML.
//
// Used by the setup flow to persist the refresh token after authorization.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// TokenCachePath resolves the token cache file location, defaulting to ~/.airsync/token.json.
func (c *Config) TokenCachePath() (string, error) {
	if c.Sync.TokenCachePath != "" {
		return c.Sync.TokenCachePath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".airsync", "token.json"), nil
}
