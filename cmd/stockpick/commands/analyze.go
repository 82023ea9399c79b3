package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stockpick/internal/contracts"
)

// analyzeCmd computes the metrics table for an index universe on one date.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute trend metrics for an index universe",
	Long: `Computes weekly trend metrics for every constituent of an index
on a given date.

Example:
  go run ./cmd/stockpick analyze --index SP500 --date 2024-06-28`,
	RunE: runAnalyze,
}

var (
	analyzeIndex string
	analyzeDate  string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeIndex, "index", "SP500", "index (SP500|DOWJONES|NASDAQ)")
	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "analysis date YYYY-MM-DD (default: latest trading day)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	index, date, err := resolveIndexAndDate(ctx, a, analyzeIndex, analyzeDate)
	if err != nil {
		return err
	}

	universe, err := a.constituents.At(ctx, index, date)
	if err != nil {
		return err
	}

	fmt.Printf("Analyzing %d constituents of %s as of %s\n",
		len(universe), index, date.Format("2006-01-02"))

	records, err := a.cache.GetOrCompute(ctx, date, index, universe,
		func(ctx context.Context) (map[string]contracts.MetricsRecord, error) {
			return a.metrics.ComputeBatch(ctx, universe, date)
		})
	if err != nil {
		return err
	}

	printMetricsTable(a.selector.Filter(records, nil))
	fmt.Printf("%d analyzable, %d excluded\n", len(records), len(universe)-len(records))
	return nil
}

// resolveIndexAndDate parses the common index/date flags and snaps the date
// onto a trading day.
func resolveIndexAndDate(ctx context.Context, a *app, rawIndex, rawDate string) (contracts.Index, time.Time, error) {
	index, err := contracts.ParseIndex(rawIndex)
	if err != nil {
		return "", time.Time{}, err
	}

	date := time.Now().UTC()
	if rawDate != "" {
		date, err = time.Parse("2006-01-02", rawDate)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", rawDate)
		}
	}
	date, err = a.calendar.TradingDayOnOrBefore(ctx, date)
	if err != nil {
		return "", time.Time{}, err
	}
	return index, date, nil
}
