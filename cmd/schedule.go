package main

import (
	"context"
	"fmt"
	"time"

	"github.com/glefebvre/mediasorter/internal/config"
	"github.com/glefebvre/mediasorter/internal/history"
	"github.com/glefebvre/mediasorter/internal/organizer"
	"github.com/glefebvre/mediasorter/internal/shutdown"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the organizer repeatedly on a cron schedule",
	Long: `Start a long running process that performs a full run on every tick of
run.schedule (standard cron syntax or descriptors such as "@every 1h").
A tick that fires while the previous run is still busy is skipped.

Use --now to perform a run immediately at startup. SIGINT or SIGTERM stop
the scheduler after the current run reaches a safe point.`,
	Run: func(cmd *cobra.Command, args []string) {
		runNow, _ := cmd.Flags().GetBool("now")

		cfg := config.Get()
		log, closer := setupLogging(cfg)
		defer closer.Close()

		store := openHistory(cfg, log)

		org, err := organizer.New(cfg, log, store)
		if err != nil {
			fatal(log, "Invalid configuration", err)
		}

		shutdownHandler := shutdown.New(30*time.Second, log)
		ctx := shutdownHandler.Context()

		job := func() {
			if _, err := org.Run(ctx, history.TriggerSchedule); err != nil {
				log.Error("Scheduled run failed", err)
			}
		}

		scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		if _, err := scheduler.AddFunc(cfg.Run.Schedule, job); err != nil {
			fatal(log, fmt.Sprintf("Invalid run.schedule %q", cfg.Run.Schedule), err)
		}

		if store != nil {
			shutdownHandler.Register("history", func(ctx context.Context) error {
				return store.Close()
			})
		}
		shutdownHandler.Register("scheduler", func(ctx context.Context) error {
			select {
			case <-scheduler.Stop().Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		log.Info(fmt.Sprintf("Scheduler started with schedule %q", cfg.Run.Schedule))
		scheduler.Start()
		if runNow {
			go job()
		}

		if err := shutdownHandler.Wait(); err != nil {
			log.Error("Shutdown incomplete", err)
		}
		log.Info("Scheduler stopped")
	},
}

func init() {
	scheduleCmd.Flags().Bool("now", false, "perform a run immediately at startup")
	rootCmd.AddCommand(scheduleCmd)
}
