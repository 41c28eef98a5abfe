package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glefebvre/mediasorter/internal/naming"
	"gopkg.in/yaml.v3"
)

// Default returns the configuration used when no file overrides a key
func Default() *Config {
	return &Config{
		DownloadDirectories: DownloadDirectoriesConfig{
			Complete: MediaPaths{
				Movies:  "/data/downloads/complete/movies",
				TVShows: "/data/downloads/complete/tv",
			},
			Duplicate: MediaPaths{
				Movies:  "/data/downloads/duplicate/movies",
				TVShows: "/data/downloads/duplicate/tv",
			},
			Incomplete: MediaPaths{
				Movies:  "/data/downloads/incomplete",
				TVShows: "/data/downloads/incomplete",
			},
		},
		MediaLibraries: MediaLibrariesConfig{
			Movies: "/data/media/movies",
			TVShows: TVLibraryConfig{
				Adult: "/data/media/tv_shows/adult",
				Kids:  "/data/media/tv_shows/kids",
			},
		},
		Settings: SettingsConfig{
			Movies: MediaSettings{
				DeleteFailed:                  true,
				DeleteUnpack:                  true,
				DaysToKeepUnpack:              2,
				DaysToKeepCompletedDownloads:  30,
				DaysToKeepDuplicateDownloads:  30,
				DaysToKeepIncompleteDownloads: 30,
				MoveToDuplicates:              true,
				MoveToLibrary:                 false,
			},
			TVShows: MediaSettings{
				DeleteFailed:                  true,
				DeleteUnpack:                  false,
				DaysToKeepUnpack:              2,
				DaysToKeepCompletedDownloads:  30,
				DaysToKeepDuplicateDownloads:  30,
				DaysToKeepIncompleteDownloads: 30,
				MoveToDuplicates:              true,
				MoveToLibrary:                 false,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			File:       "logs/mediasorter.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Database: DatabaseConfig{
			Enabled: false,
			Driver:  "sqlite",
			Path:    "data/mediasorter.db",
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		API: APIConfig{
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		Run: RunConfig{
			LockFile:       filepath.Join(os.TempDir(), "mediasorter.lock"),
			Schedule:       "@every 1h",
			MinFreeSpaceMB: 1024,
		},
	}
}

// WriteDefault writes the default configuration, including the built-in
// show name corrections and aliases, to path. An existing file is left untouched.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	d := Default()
	for _, rule := range naming.DefaultCorrections() {
		d.Naming.Corrections = append(d.Naming.Corrections, CorrectionConfig{
			Pattern:     rule.Pattern,
			Replacement: rule.Replacement,
		})
	}
	for _, alias := range naming.DefaultAliases() {
		d.Naming.ShowAliases = append(d.Naming.ShowAliases, ShowAliasConfig{
			Name:       alias.Name,
			Alternates: alias.Alternates,
		})
	}

	data, err := yaml.Marshal(d)
	if err != nil {
		return false, fmt.Errorf("failed to marshal default config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	content := append([]byte("# mediasorter default configuration\n"), data...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// CorrectionRules converts the configured corrections for the normalizer.
// The built-in table is used when none are configured.
func (c *Config) CorrectionRules() []naming.Correction {
	if len(c.Naming.Corrections) == 0 {
		return naming.DefaultCorrections()
	}
	rules := make([]naming.Correction, 0, len(c.Naming.Corrections))
	for _, rule := range c.Naming.Corrections {
		rules = append(rules, naming.Correction{Pattern: rule.Pattern, Replacement: rule.Replacement})
	}
	return rules
}

// ShowAliases converts the configured show aliases for the normalizer.
// The built-in table is used when none are configured.
func (c *Config) ShowAliases() []naming.Alias {
	if len(c.Naming.ShowAliases) == 0 {
		return naming.DefaultAliases()
	}
	aliases := make([]naming.Alias, 0, len(c.Naming.ShowAliases))
	for _, a := range c.Naming.ShowAliases {
		aliases = append(aliases, naming.Alias{Name: a.Name, Alternates: a.Alternates})
	}
	return aliases
}
