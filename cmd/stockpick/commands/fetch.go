package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stockpick/internal/contracts"
)

// fetchCmd groups the data sync subcommands.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch upstream data into the local store",
	Long: `Fetches data from the FMP API into postgres.

Subcommands:
  constituents - current membership and historical change log
  prices       - daily adjusted closes for every constituent
  index        - daily index levels
  all          - everything, in dependency order

Example:
  go run ./cmd/stockpick fetch all --index SP500
  go run ./cmd/stockpick fetch prices --index SP500 --from 2020-01-01`,
}

var (
	fetchIndex string
	fetchFrom  string
	fetchTo    string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.PersistentFlags().StringVar(&fetchIndex, "index", "SP500", "index (SP500|DOWJONES|NASDAQ)")
	fetchCmd.PersistentFlags().StringVar(&fetchFrom, "from", "", "start date YYYY-MM-DD (default: configured)")
	fetchCmd.PersistentFlags().StringVar(&fetchTo, "to", "", "end date YYYY-MM-DD (default: today)")

	fetchCmd.AddCommand(
		&cobra.Command{
			Use:   "constituents",
			Short: "Fetch membership and change log",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runFetch(func(ctx context.Context, a *app, index contracts.Index, from, to time.Time) error {
					return a.syncer.SyncConstituents(ctx, index)
				})
			},
		},
		&cobra.Command{
			Use:   "prices",
			Short: "Fetch daily prices for every constituent",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runFetch(func(ctx context.Context, a *app, index contracts.Index, from, to time.Time) error {
					return a.syncer.SyncPrices(ctx, index, from, to)
				})
			},
		},
		&cobra.Command{
			Use:   "index",
			Short: "Fetch daily index levels",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runFetch(func(ctx context.Context, a *app, index contracts.Index, from, to time.Time) error {
					return a.syncer.SyncIndexPrices(ctx, index, from, to)
				})
			},
		},
		&cobra.Command{
			Use:   "all",
			Short: "Fetch constituents, prices, and index levels",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runFetch(func(ctx context.Context, a *app, index contracts.Index, from, to time.Time) error {
					if err := a.syncer.SyncConstituents(ctx, index); err != nil {
						return err
					}
					if err := a.syncer.SyncPrices(ctx, index, from, to); err != nil {
						return err
					}
					return a.syncer.SyncIndexPrices(ctx, index, from, to)
				})
			},
		},
	)
}

func runFetch(fn func(ctx context.Context, a *app, index contracts.Index, from, to time.Time) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	index, err := contracts.ParseIndex(fetchIndex)
	if err != nil {
		return err
	}

	from, err := time.Parse("2006-01-02", a.cfg.FMP.FromDate)
	if err != nil {
		return fmt.Errorf("invalid FMP_FROM_DATE %q", a.cfg.FMP.FromDate)
	}
	if fetchFrom != "" {
		if from, err = time.Parse("2006-01-02", fetchFrom); err != nil {
			return fmt.Errorf("invalid --from date %q", fetchFrom)
		}
	}

	to := time.Now().UTC()
	if fetchTo != "" {
		if to, err = time.Parse("2006-01-02", fetchTo); err != nil {
			return fmt.Errorf("invalid --to date %q", fetchTo)
		}
	}

	start := time.Now()
	if err := fn(context.Background(), a, index, from, to); err != nil {
		return err
	}
	fmt.Printf("Fetch completed in %.1fs\n", time.Since(start).Seconds())
	return nil
}
