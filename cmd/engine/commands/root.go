package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	engineConfigPath string
	verbose          bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Field-sales gamification engine",
	Long: `Gamification engine CLI

Syncs validated contracts from the sales-tracking platform, awards badges,
and maintains the commercial/manager leaderboards.

Usage:
  go run ./cmd/engine [command]

Examples:
  go run ./cmd/engine api
  go run ./cmd/engine pipeline daily
  go run ./cmd/engine scheduler start
  go run ./cmd/engine admin award --kind commercial --id 42 --badge PERF_CLOSER
  go run ./cmd/engine seed`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&engineConfigPath, "engine-config", "", "engine YAML (default: $ENGINE_CONFIG, then built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
