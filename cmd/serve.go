package main

import (
	"context"
	"time"

	"github.com/glefebvre/mediasorter/internal/api"
	"github.com/glefebvre/mediasorter/internal/config"
	"github.com/glefebvre/mediasorter/internal/shutdown"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run history over HTTP",
	Long: `Start the read-only history API. Requires database.enabled.

Endpoints:
  GET /health
  GET /api/v1/runs?limit=&offset=
  GET /api/v1/runs/:id
  GET /api/v1/placements?run_id=&media_type=&outcome=&limit=&offset=`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")

		cfg := config.Get()
		log, closer := setupLogging(cfg)
		defer closer.Close()

		if !cfg.Database.Enabled {
			fatal(log, "The history API needs database.enabled: true", nil)
		}
		store := openHistory(cfg, log)
		if store == nil {
			fatal(log, "History database unavailable", nil)
		}

		if port == 0 {
			port = cfg.API.Port
		}
		server := api.NewServer(store, log, cfg.API.CORSOrigins)

		shutdownHandler := shutdown.New(15*time.Second, log)
		shutdownHandler.Register("history", func(ctx context.Context) error {
			return store.Close()
		})
		shutdownHandler.Register("http", server.Shutdown)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := shutdownHandler.Wait(); err != nil {
				log.Error("Shutdown incomplete", err)
			}
		}()

		if err := server.Run(port); err != nil {
			fatal(log, "API server failed", err)
		}
		<-done
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default api.port)")
	rootCmd.AddCommand(serveCmd)
}
