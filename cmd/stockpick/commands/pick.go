package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"stockpick/internal/contracts"
	"stockpick/internal/rule"
)

// pickCmd filters and ranks an index universe with a rule.
var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Select stocks matching a rule, ranked by rising stability",
	Long: `Evaluates a boolean rule over each constituent's trend metrics and
prints the matches ranked by rising stability, best first.

Run "stockpick fields" to list the names a rule may reference.

Example:
  go run ./cmd/stockpick pick --rule "log_r_squared > 0.7 AND change_1m_pct > 0" --max 5`,
	RunE: runPick,
}

var (
	pickIndex string
	pickDate  string
	pickRule  string
	pickMax   int
)

func init() {
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(fieldsCmd)

	pickCmd.Flags().StringVar(&pickIndex, "index", "SP500", "index (SP500|DOWJONES|NASDAQ)")
	pickCmd.Flags().StringVar(&pickDate, "date", "", "analysis date YYYY-MM-DD (default: latest trading day)")
	pickCmd.Flags().StringVar(&pickRule, "rule", "", "selection rule (required)")
	pickCmd.Flags().IntVar(&pickMax, "max", 10, "maximum number of stocks")
	pickCmd.MarkFlagRequired("rule")
}

func runPick(cmd *cobra.Command, args []string) error {
	if pickMax <= 0 {
		return fmt.Errorf("--max must be positive, got %d", pickMax)
	}

	expr, err := rule.Parse(pickRule)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	index, date, err := resolveIndexAndDate(ctx, a, pickIndex, pickDate)
	if err != nil {
		return err
	}

	universe, err := a.constituents.At(ctx, index, date)
	if err != nil {
		return err
	}

	records, err := a.cache.GetOrCompute(ctx, date, index, universe,
		func(ctx context.Context) (map[string]contracts.MetricsRecord, error) {
			return a.metrics.ComputeBatch(ctx, universe, date)
		})
	if err != nil {
		return err
	}

	selected := a.selector.Pick(records, expr, pickMax)

	fmt.Printf("Rule: %s\n", expr.String())
	fmt.Printf("Date: %s  Index: %s  Matches: %d\n",
		date.Format("2006-01-02"), index, len(selected))
	if len(selected) == 0 {
		fmt.Println("No stocks matched the rule.")
		return nil
	}
	printMetricsTable(selected)
	return nil
}

// fieldsCmd lists the metric fields usable in rules.
var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the metric fields a rule may reference",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range rule.FieldNames() {
			fmt.Println(name)
		}
	},
}
