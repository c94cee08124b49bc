package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "topichub",
	Short: "Topic registry and broadcast server",
	Long: `topichub keeps named topics, their subscribers, and fans messages out to
every subscriber of a topic.

Available commands:
  serve     Run the registry with its HTTP admin API and WebSocket endpoint
  topics    Inspect and drive a running server through its admin API
  version   Print the version

Use "topichub [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
