// Package cmd is the backtester command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/config"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "Replay chart-drawn strategies against historical bars",
	Long: `Backtester replays a strategy built from chart drawings (horizontal
lines, zones) against OHLC bars and reports how it would have traded.

It provides tools for:
  - Running a single backtest and journaling its trades and equity curve
  - Sweeping stop, target and risk settings in parallel
  - Listing and inspecting stored runs
  - Excel and Org-mode reports`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadEnvFile(envFile)
	},
}

var (
	cfgFile string
	envFile string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "backtester.yaml", "run configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional file of BACKTESTER_* overrides")
}
