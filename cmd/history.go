package main

import (
	"context"

	"github.com/spitz/airsync/internal/repositories"
	"github.com/urfave/cli/v3"
)

// RunsList prints the most recent sync runs, newest first.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfigFor(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewRunRepository(db).Latest(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		r.writePlain("No sync runs recorded yet.\n")
		return nil
	}

	r.writePlain("Recent sync runs:\n\n")
	for i, run := range runs {
		r.writePlain("%d. %s\n", i+1, run.Date.Format("2006-01-02"))
		r.writePlain("   Plays: %d (%d unique)\n", run.TotalPlays, run.UniqueTracks)
		r.writePlain("   Resolved: %d / Unresolved: %d\n", run.ResolvedCount, run.UnresolvedCount)
		r.writePlain("   Playlist tracks: %d, cumulative added: %d\n", run.PlaylistCount, run.CumulativeAdded)
		r.writePlain("\n")
	}

	return nil
}
