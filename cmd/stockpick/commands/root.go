package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockpick",
	Short: "Rule-based US stock selection and backtesting",
	Long: `stockpick - rule-based stock selection and backtesting

Analyzes index constituents over weekly price history, filters them with a
boolean rule over trend metrics, and backtests the resulting strategy
against a buy-and-hold index baseline.

Usage:
  go run ./cmd/stockpick [command]

Examples:
  go run ./cmd/stockpick analyze --index SP500 --date 2024-06-28
  go run ./cmd/stockpick pick --rule "log_r_squared > 0.7 AND change_1m_pct > 0"
  go run ./cmd/stockpick simulate --from 2022-01-01 --to 2023-01-01 --rule "log_slope > 0.1"
  go run ./cmd/stockpick fetch all --index SP500
  go run ./cmd/stockpick api`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
