package main

import (
	"context"
	"fmt"
	"time"

	"github.com/glefebvre/mediasorter/internal/config"
	"github.com/glefebvre/mediasorter/internal/history"
	"github.com/glefebvre/mediasorter/internal/organizer"
	"github.com/glefebvre/mediasorter/internal/shutdown"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Organize completed downloads once",
	Long: `Run one batch over the completed download directories:

- movies are normalized to "Title (Year)" and moved to the library or the
  duplicates folder
- episodes are normalized to "Show SxxExx", their files renamed, and, when
  move_to_library is enabled, filed into the matching library season folder
- failed and stale unpacking downloads are deleted when configured
- directories older than the retention windows are purged

A second run started while one is in progress exits with an error.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		log, closer := setupLogging(cfg)
		defer closer.Close()

		store := openHistory(cfg, log)

		shutdownHandler := shutdown.New(30*time.Second, log)
		if store != nil {
			shutdownHandler.Register("history", func(ctx context.Context) error {
				log.Debug("closing history database")
				return store.Close()
			})
		}
		go shutdownHandler.Wait()

		org, err := organizer.New(cfg, log, store)
		if err != nil {
			fatal(log, "Invalid configuration", err)
		}

		report, err := org.Run(shutdownHandler.Context(), history.TriggerCLI)
		if err != nil {
			shutdownHandler.Shutdown()
			fatal(log, "Run aborted", err)
		}

		printReport(report)
		shutdownHandler.Shutdown()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func printReport(r *organizer.Report) {
	fmt.Printf("\n=== Run %s ===\n", r.RunID)
	if m := r.Movies; m != nil {
		fmt.Printf("Movies:   %d processed, %d to library, %d to duplicates, %d renamed in place, %d skipped, %d deleted, %d errors\n",
			m.Processed, m.MovedToLibrary, m.Duplicates, m.RenamedInPlace, m.Skipped, m.Deleted, m.Errors)
	}
	if tv := r.TVShows; tv != nil {
		fmt.Printf("TV shows: %d processed, %d to library, %d to duplicates, %d renamed in place, %d files renamed, %d skipped, %d unmatched, %d deleted, %d errors\n",
			tv.Processed, tv.MovedToLibrary, tv.Duplicates, tv.RenamedInPlace, tv.FilesRenamed, tv.Skipped, tv.Unmatched, tv.Deleted, tv.Errors)
	}
	printSweeps(r.Sweeps)
	fmt.Printf("Duration: %s\n", r.Duration.Round(time.Millisecond))
}

func printSweeps(sweeps []organizer.SweepReport) {
	for _, s := range sweeps {
		if s.Days <= 0 {
			continue
		}
		fmt.Printf("Sweep %-20s %d removed, %d kept, %d failed (older than %d days)\n",
			s.Label+":", s.Result.Removed, s.Result.Skipped, s.Result.Failed, s.Days)
	}
}
