package main

import (
	"fmt"
	"os"

	"github.com/glefebvre/mediasorter/internal/config"
	"github.com/spf13/cobra"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write a default configuration file",
	Long: `Write the default configuration, including the built-in show name
corrections, to path (default ./config.yml). An existing file is never
overwritten.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "config.yml"
		if configFile != "" {
			path = configFile
		}
		if len(args) == 1 {
			path = args[0]
		}

		written, err := config.WriteDefault(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write configuration: %v\n", err)
			os.Exit(1)
		}
		if !written {
			fmt.Printf("%s already exists, leaving it untouched\n", path)
			return
		}
		fmt.Printf("Default configuration written to %s\n", path)
	},
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
}
