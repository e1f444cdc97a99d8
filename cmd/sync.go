package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spitz/airsync/internal/formatter"
	"github.com/spitz/airsync/internal/repositories"
	"github.com/spitz/airsync/internal/services"
	"github.com/spitz/airsync/internal/shared"
	"github.com/spitz/airsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// loadConfigFor resolves the effective config for a command invocation.
//
// The --config flag wins when the file exists; otherwise the Runner's
// config (loaded at startup) is used.
func (r *Runner) loadConfigFor(cmd *cli.Command) *shared.Config {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = r.configPath
	}

	if _, err := os.Stat(configPath); err == nil {
		if config, err := shared.LoadConfig(configPath); err == nil {
			return config
		} else {
			r.logger.Warn("failed to load config, using startup config", "path", configPath, "error", err)
		}
	}

	return r.config
}

// buildServices constructs the feed, catalog, and token services from config
// when they were not injected at startup.
func (r *Runner) buildServices(config *shared.Config) error {
	if r.httpClient == http.DefaultClient && config.Sync.TimeoutSeconds > 0 {
		r.httpClient = &http.Client{Timeout: time.Duration(config.Sync.TimeoutSeconds) * time.Second}
	}

	if r.feed == nil {
		feed, err := services.NewTuneGenieService(config.TuneGenie, r.httpClient)
		if err != nil {
			return fmt.Errorf("failed to create feed service: %w", err)
		}
		if config.Sync.FeedAttempts > 0 {
			feed.SetAttempts(config.Sync.FeedAttempts)
		}
		r.feed = feed
	}

	if r.tokens == nil {
		if config.Spotify.ClientID == "" || config.Spotify.ClientSecret == "" {
			return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrInvalidConfig)
		}
		cachePath, err := config.TokenCachePath()
		if err != nil {
			return fmt.Errorf("failed to resolve token cache path: %w", err)
		}
		r.tokens = services.NewTokenStore(cachePath, services.SpotifyOAuthConfig(config.Spotify), config.Spotify.RefreshToken)
	}

	if r.catalog == nil {
		r.catalog = services.NewSpotifyService(config.Spotify, r.httpClient, r.tokens)
	}

	return nil
}

// syncDay resolves the calendar day a sync invocation targets.
//
// An explicit --date wins; otherwise yesterday in the station's timezone.
func (r *Runner) syncDay(cmd *cli.Command) (time.Time, error) {
	loc := time.Local
	if tg, ok := r.feed.(*services.TuneGenieService); ok {
		loc = tg.Location()
	}

	if dateArg := cmd.String("date"); dateArg != "" {
		day, err := time.ParseInLocation("2006-01-02", dateArg, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", shared.ErrInvalidArgument, dateArg)
		}
		return day, nil
	}

	return time.Now().In(loc).AddDate(0, 0, -1), nil
}

// SyncRun fetches a day's air log and replaces the daily playlist with it.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfigFor(cmd)
	dryRun := cmd.Bool("dry-run")

	if err := r.buildServices(config); err != nil {
		return err
	}

	day, err := r.syncDay(cmd)
	if err != nil {
		return err
	}

	engine := tasks.NewSyncEngine(r.tokens, r.feed, r.catalog, tasks.EngineOpts{
		DailyPlaylistID:      config.Spotify.DailyPlaylistID,
		CumulativePlaylistID: config.Spotify.CumulativePlaylistID,
		ClearOnEmpty:         config.Sync.ClearOnEmpty,
		RateLimit:            config.Sync.RateLimit,
		DryRun:               dryRun,
	})
	engine.SetLogger(r.logger)

	// Cache and run history want the database, but a sync can run without
	// either; resolution just hits the catalog for every track.
	if db, err := shared.NewDatabase(config.Database.Path); err != nil {
		r.logger.Warn("database unavailable, syncing without cache", "error", err)
	} else {
		defer db.Close()
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			r.logger.Warn("migrations failed, syncing without cache", "error", err)
		} else {
			engine.SetTrackCache(repositories.NewTrackMatchRepository(db))
			engine.SetRunRecorder(repositories.NewRunRepository(db))
		}
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Total > 0 {
				r.logger.Info(update.Message, "phase", update.Phase.String(), "step", update.Step, "total", update.Total)
			} else {
				r.logger.Info(update.Message, "phase", update.Phase.String())
			}
		}
	}()

	result, err := engine.Run(ctx, progress, day)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	summary := result.Summary

	if reportDir := cmd.String("report"); reportDir != "" {
		report, err := formatter.WriteReport(&summary, reportDir, cmd.String("format"))
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		r.logger.Info("report written", "file", report.SummaryFile)
		if report.UnresolvedFile != "" {
			r.logger.Info("unresolved tracks written", "file", report.UnresolvedFile)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(summary, cmd.Bool("pretty"))
	}

	r.writePlainHeader("airsync")
	r.output.Write(formatter.SummaryText(&summary))

	if !result.WriteDone && !dryRun {
		r.writePlainln("⚠ Playlist left unchanged (no tracks resolved and clear_on_empty is off)")
	}

	return nil
}
