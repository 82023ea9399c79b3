package commands

import (
	"fmt"
	"math"

	"stockpick/internal/contracts"
)

// printMetricsTable prints records in column layout. Shown fields are the
// ones rules most often reference; the API returns the full record.
func printMetricsTable(records []contracts.MetricsRecord) {
	fmt.Println("───────────────────────────────────────────────────────────────────────")
	fmt.Printf("  %-8s %6s %12s %8s %10s %8s %10s\n",
		"SYMBOL", "WEEKS", "SLOPE%", "R2", "LOGSLOPE", "LOGR2", "CHG1M%")
	fmt.Println("───────────────────────────────────────────────────────────────────────")
	for _, rec := range records {
		fmt.Printf("  %-8s %6d %12.3f %8.3f %10.3f %8.3f %10s\n",
			rec.Symbol, rec.TotalWeeks,
			rec.LinearSlopePct, rec.LinearRSquared,
			rec.LogSlope, rec.LogRSquared,
			formatPct(rec.Change1mPct))
	}
	fmt.Println("───────────────────────────────────────────────────────────────────────")
}

// printSimulationResult prints the outcome and per-event breakdown.
func printSimulationResult(result *contracts.SimulationResult) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Simulation Result")
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Period         : %s ~ %s\n",
		result.DateStart.Format("2006-01-02"), result.DateEnd.Format("2006-01-02"))
	fmt.Printf("  Initial balance: %.2f\n", result.InitialBalance)
	fmt.Printf("  Final balance  : %.2f\n", result.FinalBalance)
	fmt.Printf("  Profit         : %.2f (%.2f%%)\n", result.Profit, result.ProfitPct)
	if result.BaselineIndex != "" {
		fmt.Printf("  Baseline (%s): %.2f (%.2f%%)\n",
			result.BaselineIndex, result.BaselineProfit, result.BaselineProfitPct)
	}
	fmt.Printf("  Rebalances     : %d\n", len(result.RebalanceHistory))
	fmt.Println("───────────────────────────────────────────────────────────")

	for _, event := range result.RebalanceHistory {
		fmt.Printf("  %s  balance %10.2f  profit %8.2f (%6.2f%%)",
			event.Date.Format("2006-01-02"), event.Balance, event.Profit, event.ProfitPct)
		if len(event.Investments) == 0 {
			fmt.Print("  [cash]")
		} else {
			fmt.Print("  [")
			for i, inv := range event.Investments {
				if i > 0 {
					fmt.Print(" ")
				}
				fmt.Print(inv.Symbol)
			}
			fmt.Print("]")
		}
		fmt.Println()
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// formatPct renders a horizon value, or a dash when unavailable.
func formatPct(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
