package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// exitCodeError carries a specific process exit code out of a command
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string { return "" }

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Overnight ASX equity-screening pipeline",
	Long: `Overnight equity screener.

Nightly it scans the configured stock universe, assesses the market
volatility/crash regime, predicts per-stock price direction with a
four-leg ensemble, and ranks explainable 0-100 opportunity scores
into a morning report payload.

Examples:
  go run ./cmd/screener run
  go run ./cmd/screener run --mode test --max-stocks-per-sector 3
  go run ./cmd/screener scheduler
  go run ./cmd/screener api
  go run ./cmd/screener status`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the process exit code.
// 0: completed, 1: completed with warnings, 2: failed.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var exit exitCodeError
		if errors.As(err, &exit) {
			return exit.code
		}
		rootCmd.PrintErrln("Error:", err)
		return 2
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "config/strategy.json", "strategy config file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
