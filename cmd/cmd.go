// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// syncFlags are shared between the root command and the sync subcommand.
func syncFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "date",
			Usage: "Calendar day to sync (YYYY-MM-DD, default: yesterday)",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Resolve tracks but make no playlist changes",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output run summary as JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
		&cli.StringFlag{
			Name:    "report",
			Aliases: []string{"o"},
			Usage:   "Directory to write a report file to",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Report format: text, markdown, or json",
			Value: "text",
		},
	}
}

// syncCommand runs the daily air-log sync.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Sync yesterday's air log to the daily playlist",
		Flags:  syncFlags(),
		Action: r.SyncRun,
	}
}

// setupCommand handles setup operations for database and authorization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:    "spotify",
				Aliases: []string{"auth"},
				Usage:   "Authorize with Spotify and save the refresh token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupSpotify,
			},
		},
	}
}

// cacheCommand inspects and maintains the local track match cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the local track match cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cached hit and miss counts",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:  "cleanup",
				Usage: "Delete cached misses not seen recently",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.IntFlag{
						Name:  "days",
						Usage: "Age threshold in days",
						Value: 30,
					},
				},
				Action: r.CacheCleanup,
			},
		},
	}
}

// runsCommand surfaces recorded sync run history.
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Sync run history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent sync runs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsList,
			},
		},
	}
}
