package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	DownloadDirectories DownloadDirectoriesConfig `mapstructure:"download_directories" yaml:"download_directories"`
	MediaLibraries      MediaLibrariesConfig      `mapstructure:"media_libraries" yaml:"media_libraries"`
	Settings            SettingsConfig            `mapstructure:"settings" yaml:"settings"`
	Naming              NamingConfig              `mapstructure:"naming" yaml:"naming"`
	Logging             LoggingConfig             `mapstructure:"logging" yaml:"logging"`
	Database            DatabaseConfig            `mapstructure:"database" yaml:"database"`
	API                 APIConfig                 `mapstructure:"api" yaml:"api"`
	Run                 RunConfig                 `mapstructure:"run" yaml:"run"`
}

// MediaPaths pairs a movie path with a TV path
type MediaPaths struct {
	Movies  string `mapstructure:"movies" yaml:"movies"`
	TVShows string `mapstructure:"tv_shows" yaml:"tv_shows"`
}

// DownloadDirectoriesConfig holds the download client staging roots
type DownloadDirectoriesConfig struct {
	Complete   MediaPaths `mapstructure:"complete" yaml:"complete"`
	Duplicate  MediaPaths `mapstructure:"duplicate" yaml:"duplicate"`
	Incomplete MediaPaths `mapstructure:"incomplete" yaml:"incomplete"`
}

// MediaLibrariesConfig holds the library roots
type MediaLibrariesConfig struct {
	Movies  string          `mapstructure:"movies" yaml:"movies"`
	TVShows TVLibraryConfig `mapstructure:"tv_shows" yaml:"tv_shows"`
}

// TVLibraryConfig splits the TV library by audience
type TVLibraryConfig struct {
	Adult string `mapstructure:"adult" yaml:"adult"`
	Kids  string `mapstructure:"kids" yaml:"kids"`
}

// SettingsConfig holds the per media type behaviour toggles
type SettingsConfig struct {
	Movies  MediaSettings `mapstructure:"movies" yaml:"movies"`
	TVShows MediaSettings `mapstructure:"tv_shows" yaml:"tv_shows"`
}

// MediaSettings holds toggles and retention windows for one media type
type MediaSettings struct {
	DeleteFailed                  bool `mapstructure:"delete_failed" yaml:"delete_failed"`
	DeleteUnpack                  bool `mapstructure:"delete_unpack" yaml:"delete_unpack"`
	DaysToKeepUnpack              int  `mapstructure:"days_to_keep_unpack" yaml:"days_to_keep_unpack"`
	DaysToKeepCompletedDownloads  int  `mapstructure:"days_to_keep_completed_downloads" yaml:"days_to_keep_completed_downloads"`
	DaysToKeepDuplicateDownloads  int  `mapstructure:"days_to_keep_duplicate_downloads" yaml:"days_to_keep_duplicate_downloads"`
	DaysToKeepIncompleteDownloads int  `mapstructure:"days_to_keep_incomplete_downloads" yaml:"days_to_keep_incomplete_downloads"`
	MoveToDuplicates              bool `mapstructure:"move_to_duplicates" yaml:"move_to_duplicates"`
	MoveToLibrary                 bool `mapstructure:"move_to_library" yaml:"move_to_library"`
}

// NamingConfig holds the show name correction rules and show aliases
type NamingConfig struct {
	Corrections []CorrectionConfig `mapstructure:"corrections" yaml:"corrections"`
	ShowAliases []ShowAliasConfig  `mapstructure:"show_aliases" yaml:"show_aliases"`
}

// ShowAliasConfig maps alternate show names to a library folder name
type ShowAliasConfig struct {
	Name       string   `mapstructure:"name" yaml:"name"`
	Alternates []string `mapstructure:"alternates" yaml:"alternates"`
}

// CorrectionConfig is one ordered (pattern, replacement) rule
type CorrectionConfig struct {
	Pattern     string `mapstructure:"pattern" yaml:"pattern"`
	Replacement string `mapstructure:"replacement" yaml:"replacement"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`

	Database LogLevelConfig `mapstructure:"database" yaml:"database"`
}

// LogLevelConfig represents log level configuration for a specific component
type LogLevelConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
}

// DatabaseConfig holds the run history store settings
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Driver   string `mapstructure:"driver" yaml:"driver"` // sqlite, postgres
	Path     string `mapstructure:"path" yaml:"path"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	DBName   string `mapstructure:"dbname" yaml:"dbname"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// APIConfig holds API server settings
type APIConfig struct {
	Port        int      `mapstructure:"port" yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// RunConfig holds batch run settings
type RunConfig struct {
	LockFile       string `mapstructure:"lock_file" yaml:"lock_file"`
	Schedule       string `mapstructure:"schedule" yaml:"schedule"`
	MinFreeSpaceMB int64  `mapstructure:"min_free_space_mb" yaml:"min_free_space_mb"`
}

var cfg *Config

// configFile is set by the CLI --config flag
var configFile string

// SetConfigFile points Load at an explicit file instead of the search path
func SetConfigFile(path string) {
	configFile = path
}

// bindEnvWithAlternatives binds a viper key to environment variables with alternative names
func bindEnvWithAlternatives(key string, alternatives ...string) {
	viper.BindEnv(key)
	for _, alt := range alternatives {
		if value := os.Getenv(alt); value != "" {
			viper.Set(key, value)
			break
		}
	}
}

// Load reads configuration from file and environment variables
func Load() error {
	viper.Reset()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/mediasorter")
	}

	setDefaults()

	viper.SetEnvPrefix("MEDIASORTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for _, key := range []string{
		"download_directories.complete.movies",
		"download_directories.complete.tv_shows",
		"download_directories.duplicate.movies",
		"download_directories.duplicate.tv_shows",
		"download_directories.incomplete.movies",
		"download_directories.incomplete.tv_shows",
		"media_libraries.movies",
		"media_libraries.tv_shows.adult",
		"media_libraries.tv_shows.kids",
		"settings.movies.move_to_library",
		"settings.movies.move_to_duplicates",
		"settings.tv_shows.move_to_library",
		"settings.tv_shows.move_to_duplicates",
		"logging.format",
		"logging.file",
		"database.enabled",
		"database.driver",
		"database.path",
		"run.lock_file",
		"run.schedule",
	} {
		viper.BindEnv(key)
	}

	bindEnvWithAlternatives("logging.level", "LOG_LEVEL")
	bindEnvWithAlternatives("api.port", "API_PORT")
	bindEnvWithAlternatives("database.host", "DB_HOST")
	bindEnvWithAlternatives("database.port", "DB_PORT")
	bindEnvWithAlternatives("database.user", "DB_USER")
	bindEnvWithAlternatives("database.password", "DB_PASSWORD")
	bindEnvWithAlternatives("database.dbname", "DB_NAME")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg = loaded
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		return &Config{}
	}
	return cfg
}

// Reload reloads the configuration from file
func Reload() error {
	return Load()
}

// ConfigFileUsed returns the file viper read, empty when running on defaults
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

func setDefaults() {
	d := Default()

	viper.SetDefault("download_directories.complete.movies", d.DownloadDirectories.Complete.Movies)
	viper.SetDefault("download_directories.complete.tv_shows", d.DownloadDirectories.Complete.TVShows)
	viper.SetDefault("download_directories.duplicate.movies", d.DownloadDirectories.Duplicate.Movies)
	viper.SetDefault("download_directories.duplicate.tv_shows", d.DownloadDirectories.Duplicate.TVShows)
	viper.SetDefault("download_directories.incomplete.movies", d.DownloadDirectories.Incomplete.Movies)
	viper.SetDefault("download_directories.incomplete.tv_shows", d.DownloadDirectories.Incomplete.TVShows)

	viper.SetDefault("media_libraries.movies", d.MediaLibraries.Movies)
	viper.SetDefault("media_libraries.tv_shows.adult", d.MediaLibraries.TVShows.Adult)
	viper.SetDefault("media_libraries.tv_shows.kids", d.MediaLibraries.TVShows.Kids)

	for key, s := range map[string]MediaSettings{
		"settings.movies":   d.Settings.Movies,
		"settings.tv_shows": d.Settings.TVShows,
	} {
		viper.SetDefault(key+".delete_failed", s.DeleteFailed)
		viper.SetDefault(key+".delete_unpack", s.DeleteUnpack)
		viper.SetDefault(key+".days_to_keep_unpack", s.DaysToKeepUnpack)
		viper.SetDefault(key+".days_to_keep_completed_downloads", s.DaysToKeepCompletedDownloads)
		viper.SetDefault(key+".days_to_keep_duplicate_downloads", s.DaysToKeepDuplicateDownloads)
		viper.SetDefault(key+".days_to_keep_incomplete_downloads", s.DaysToKeepIncompleteDownloads)
		viper.SetDefault(key+".move_to_duplicates", s.MoveToDuplicates)
		viper.SetDefault(key+".move_to_library", s.MoveToLibrary)
	}

	// Logging defaults
	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.format", d.Logging.Format)
	viper.SetDefault("logging.file", d.Logging.File)
	viper.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	viper.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)

	// Database defaults
	viper.SetDefault("database.enabled", d.Database.Enabled)
	viper.SetDefault("database.driver", d.Database.Driver)
	viper.SetDefault("database.path", d.Database.Path)
	viper.SetDefault("database.host", d.Database.Host)
	viper.SetDefault("database.port", d.Database.Port)
	viper.SetDefault("database.sslmode", d.Database.SSLMode)

	// API defaults
	viper.SetDefault("api.port", d.API.Port)
	viper.SetDefault("api.cors_origins", d.API.CORSOrigins)

	// Run defaults
	viper.SetDefault("run.lock_file", d.Run.LockFile)
	viper.SetDefault("run.schedule", d.Run.Schedule)
	viper.SetDefault("run.min_free_space_mb", d.Run.MinFreeSpaceMB)
}

// Validate checks required fields and enumerations
func (c *Config) Validate() error {
	required := map[string]string{
		"download_directories.complete.movies":   c.DownloadDirectories.Complete.Movies,
		"download_directories.complete.tv_shows": c.DownloadDirectories.Complete.TVShows,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", key)
		}
	}

	if c.Settings.Movies.MoveToLibrary && c.MediaLibraries.Movies == "" {
		return fmt.Errorf("media_libraries.movies is required when settings.movies.move_to_library is enabled")
	}
	if c.Settings.Movies.MoveToDuplicates && c.DownloadDirectories.Duplicate.Movies == "" {
		return fmt.Errorf("download_directories.duplicate.movies is required when settings.movies.move_to_duplicates is enabled")
	}
	if c.Settings.TVShows.MoveToLibrary && (c.MediaLibraries.TVShows.Adult == "" || c.MediaLibraries.TVShows.Kids == "") {
		return fmt.Errorf("media_libraries.tv_shows.adult and kids are required when settings.tv_shows.move_to_library is enabled")
	}
	if c.Settings.TVShows.MoveToDuplicates && c.DownloadDirectories.Duplicate.TVShows == "" {
		return fmt.Errorf("download_directories.duplicate.tv_shows is required when settings.tv_shows.move_to_duplicates is enabled")
	}
	// reconciliation redirects episodes already in the library to duplicates
	if c.Settings.TVShows.MoveToLibrary && c.DownloadDirectories.Duplicate.TVShows == "" {
		return fmt.Errorf("download_directories.duplicate.tv_shows is required when settings.tv_shows.move_to_library is enabled")
	}

	for _, s := range []MediaSettings{c.Settings.Movies, c.Settings.TVShows} {
		if s.DaysToKeepUnpack < 0 || s.DaysToKeepCompletedDownloads < 0 ||
			s.DaysToKeepDuplicateDownloads < 0 || s.DaysToKeepIncompleteDownloads < 0 {
			return fmt.Errorf("settings retention days must not be negative")
		}
	}

	for i, rule := range c.Naming.Corrections {
		if rule.Pattern == "" {
			return fmt.Errorf("naming.corrections[%d].pattern is required", i)
		}
	}
	for i, alias := range c.Naming.ShowAliases {
		if alias.Name == "" {
			return fmt.Errorf("naming.show_aliases[%d].name is required", i)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "critical": true}
	validFormats := map[string]bool{"json": true, "text": true}
	validDrivers := map[string]bool{"sqlite": true, "postgres": true}

	if c.Logging.Format != "" && !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}
	if c.Logging.Level != "" && !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, critical")
	}
	if c.Logging.Database.Level != "" && !validLevels[strings.ToLower(c.Logging.Database.Level)] {
		return fmt.Errorf("logging.database.level must be one of: debug, info, warn, error, critical")
	}

	if c.Database.Enabled {
		if !validDrivers[c.Database.Driver] {
			return fmt.Errorf("database.driver must be one of: sqlite, postgres")
		}
		if c.Database.Driver == "postgres" && (c.Database.User == "" || c.Database.DBName == "") {
			return fmt.Errorf("database.user and database.dbname are required for postgres")
		}
		if c.Database.Driver == "sqlite" && c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	}

	return nil
}

// GetAppLogLevel returns the log level for application logging
func (c *Config) GetAppLogLevel() string {
	if c.Logging.Level != "" {
		return strings.ToLower(c.Logging.Level)
	}
	return "info"
}

// GetDatabaseLogLevel returns the log level for database logging
// Priority: logging.database.level → logging.level → "warn"
func (c *Config) GetDatabaseLogLevel() string {
	if c.Logging.Database.Level != "" {
		return strings.ToLower(c.Logging.Database.Level)
	}
	if c.Logging.Level != "" {
		return strings.ToLower(c.Logging.Level)
	}
	return "warn"
}

// PostgresDSN builds the connection string for the postgres driver
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}
