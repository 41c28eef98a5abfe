// Package history persists an audit trail of runs and placements. It is
// never consulted to decide what to process; the rename marker files are
// the only idempotence state.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glefebvre/mediasorter/internal/config"
	apperrors "github.com/glefebvre/mediasorter/internal/errors"
	"github.com/glefebvre/mediasorter/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store wraps the history database
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to the configured database and runs migrations
func Open(cfg *config.Config, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Discard()
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(log, cfg.GetDatabaseLogLevel()),
	})
	if err != nil {
		return nil, apperrors.DatabaseError("failed to connect to database", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.DatabaseError("failed to get database instance", err)
	}

	if cfg.Database.Driver == DriverSQLite {
		// one connection keeps a single in-memory database and avoids
		// SQLITE_BUSY on concurrent writes
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	store := &Store{db: db, log: log}
	if err := store.migrate(); err != nil {
		sqlDB.Close()
		return nil, apperrors.DatabaseError("failed to run migrations", err)
	}

	log.WithFields(map[string]interface{}{
		"driver": cfg.Database.Driver,
	}).Debug("History database ready")
	return store, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.Database.Driver {
	case DriverSQLite:
		path := cfg.Database.Path
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, apperrors.FilesystemError("mkdir", filepath.Dir(path), err)
			}
		}
		return sqlite.Open(path), nil
	case DriverPostgres:
		return postgres.Open(cfg.PostgresDSN()), nil
	default:
		return nil, apperrors.ConfigError(fmt.Sprintf("unsupported database driver %q", cfg.Database.Driver), nil)
	}
}

func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&Run{},
		&Placement{},
	)
}

// DB returns the underlying gorm handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// HealthCheck verifies database connectivity
func (s *Store) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperrors.DatabaseError("failed to get database instance", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return apperrors.DatabaseError("database ping failed", err)
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperrors.DatabaseError("failed to get database instance", err)
	}

	return sqlDB.Close()
}
