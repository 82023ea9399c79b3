package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// checkCmd verifies connectivity to the configured stores.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check database and redis connectivity",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, err := a.db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	fmt.Printf("database: ok (%d/%d connections, %s)\n",
		status.TotalConns, status.MaxConns, status.ResponseTime)

	if a.redis.Enabled() {
		if err := a.redis.Redis().Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		fmt.Println("redis: ok")
	} else {
		fmt.Println("redis: disabled")
	}

	latest, err := a.calendar.TradingDayOnOrBefore(ctx, time.Now().UTC())
	if err != nil {
		fmt.Println("prices: no data loaded, run fetch first")
		return nil
	}
	fmt.Printf("prices: latest trading day %s\n", latest.Format("2006-01-02"))
	return nil
}
