package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stockpick/internal/backtest"
	"stockpick/internal/contracts"
)

// simulateCmd runs a full backtest.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Backtest a selection rule over a date range",
	Long: `Runs the rebalance simulation: every interval the rule re-selects an
equal-weight portfolio from the index constituents of that date, and the
realized profit compounds into the balance. A buy-and-hold position in the
baseline index is tracked alongside for comparison.

Example:
  go run ./cmd/stockpick simulate \
    --from 2022-01-01 --to 2023-01-01 \
    --rule "log_slope > 0.1 AND log_r_squared > 0.6" \
    --max 3 --interval 2`,
	RunE: runSimulate,
}

var (
	simIndex    string
	simBaseline string
	simFrom     string
	simTo       string
	simRule     string
	simMax      int
	simInterval int
	simBalance  float64
	simSave     bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simIndex, "index", "SP500", "index (SP500|DOWJONES|NASDAQ)")
	simulateCmd.Flags().StringVar(&simBaseline, "baseline", "", "baseline index (default: configured)")
	simulateCmd.Flags().StringVar(&simFrom, "from", "", "start date YYYY-MM-DD (required)")
	simulateCmd.Flags().StringVar(&simTo, "to", "", "end date YYYY-MM-DD (required)")
	simulateCmd.Flags().StringVar(&simRule, "rule", "", "selection rule (required)")
	simulateCmd.Flags().IntVar(&simMax, "max", 0, "maximum stocks per period (default: configured)")
	simulateCmd.Flags().IntVar(&simInterval, "interval", 0, "rebalance interval in weeks (default: configured)")
	simulateCmd.Flags().Float64Var(&simBalance, "balance", 0, "initial balance (default: configured)")
	simulateCmd.Flags().BoolVar(&simSave, "save", true, "persist the result")
	simulateCmd.MarkFlagRequired("from")
	simulateCmd.MarkFlagRequired("to")
	simulateCmd.MarkFlagRequired("rule")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := buildSimConfig(a)
	if err != nil {
		return err
	}

	ctx := context.Background()
	result, err := a.simulator.Run(ctx, cfg)
	if err != nil {
		return err
	}

	printSimulationResult(result)

	if simSave {
		id, err := a.simulations.Save(ctx, *result)
		if err != nil {
			return fmt.Errorf("save simulation: %w", err)
		}
		fmt.Printf("Saved as %s\n", id)
	}
	return nil
}

func buildSimConfig(a *app) (backtest.Config, error) {
	cfg := backtest.Config{
		MaxStocks:              simMax,
		RebalanceIntervalWeeks: simInterval,
		InitialBalance:         simBalance,
		Rule:                   simRule,
		LookbackWeeks:          a.cfg.Simulation.LookbackWeeks,
	}

	index, err := contracts.ParseIndex(simIndex)
	if err != nil {
		return cfg, err
	}
	cfg.Index = index

	cfg.BaselineIndex = contracts.Index(a.cfg.Simulation.BaselineIndex)
	if simBaseline != "" {
		baseline, err := contracts.ParseIndex(simBaseline)
		if err != nil {
			return cfg, err
		}
		cfg.BaselineIndex = baseline
	}

	if cfg.MaxStocks == 0 {
		cfg.MaxStocks = a.cfg.Simulation.MaxStocks
	}
	if cfg.RebalanceIntervalWeeks == 0 {
		cfg.RebalanceIntervalWeeks = a.cfg.Simulation.RebalanceIntervalWeeks
	}
	if cfg.InitialBalance == 0 {
		cfg.InitialBalance = a.cfg.Simulation.InitialBalance
	}

	if cfg.DateStart, err = time.Parse("2006-01-02", simFrom); err != nil {
		return cfg, fmt.Errorf("invalid --from date %q", simFrom)
	}
	if cfg.DateEnd, err = time.Parse("2006-01-02", simTo); err != nil {
		return cfg, fmt.Errorf("invalid --to date %q", simTo)
	}
	return cfg, nil
}
