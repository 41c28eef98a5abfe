package main

import (
	"fmt"
	"os"

	"github.com/glefebvre/mediasorter/internal/config"
	"github.com/glefebvre/mediasorter/internal/logger"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "mediasorter",
	Short: "mediasorter organizes completed media downloads",
	Long: `mediasorter inspects the directories produced by a download client,
normalizes their names to "Title (Year)" or "Show SxxExx", moves them to the
library or duplicates folders, renames the episode files inside them and
purges downloads older than the configured retention.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mediasorter",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mediasorter v%s\n", version)
	},
}

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./config.yml)")
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	// Skip config loading for commands that do not need it
	if len(os.Args) > 1 && (os.Args[1] == "version" || os.Args[1] == "init-config") {
		return
	}

	config.SetConfigFile(configFile)
	if err := config.Load(); err != nil {
		logger.Default().Critical("Error loading configuration", err)
		os.Exit(1)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
