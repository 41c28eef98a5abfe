package main

import (
	"io"
	"os"

	"github.com/glefebvre/mediasorter/internal/config"
	"github.com/glefebvre/mediasorter/internal/history"
	"github.com/glefebvre/mediasorter/internal/logger"
)

// setupLogging builds the application logger from the loaded config.
// Failing to open the log file is fatal.
func setupLogging(cfg *config.Config) (*logger.Logger, io.Closer) {
	log, closer, err := logger.Setup(cfg.GetAppLogLevel(), cfg.Logging.Format, logger.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		logger.Default().Critical("Failed to initialize logging", err)
		os.Exit(1)
	}

	logger.SetAppLogger(log)
	logger.SetDatabaseLogger(log.WithLevel(cfg.GetDatabaseLogLevel()))
	return log, closer
}

// openHistory opens the history store when it is enabled. A store that
// cannot be opened is logged and the command continues without it.
func openHistory(cfg *config.Config, log *logger.Logger) *history.Store {
	if !cfg.Database.Enabled {
		return nil
	}
	store, err := history.Open(cfg, logger.DatabaseLogger())
	if err != nil {
		log.Error("Failed to open history database, continuing without history", err)
		return nil
	}
	return store
}

// fatal logs at CRITICAL and exits
func fatal(log *logger.Logger, msg string, err error) {
	log.Critical(msg, err)
	os.Exit(1)
}
