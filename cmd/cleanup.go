package main

import (
	"context"
	"fmt"

	"github.com/glefebvre/mediasorter/internal/config"
	"github.com/glefebvre/mediasorter/internal/organizer"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge aged download directories",
	Long: `Run only the retention sweep: every directory directly under the completed,
duplicate and incomplete download roots that was last modified more than the
configured number of days ago is deleted. A retention of 0 disables the
sweep for that root.

Use --dry-run to list what would be removed without deleting anything.`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cfg := config.Get()
		log, closer := setupLogging(cfg)
		defer closer.Close()

		fmt.Println("=== Retention Sweep ===")
		if dryRun {
			fmt.Println("Mode: DRY RUN (no directories will be deleted)")
		}

		org, err := organizer.New(cfg, log, nil)
		if err != nil {
			fatal(log, "Invalid configuration", err)
		}

		sweeps, err := org.Cleanup(context.Background(), dryRun)
		if err != nil {
			fatal(log, "Cleanup aborted", err)
		}

		printSweeps(sweeps)
		fmt.Println("\nCleanup complete!")
	},
}

func init() {
	cleanupCmd.Flags().Bool("dry-run", false, "show what would be deleted without deleting")
	rootCmd.AddCommand(cleanupCmd)
}
