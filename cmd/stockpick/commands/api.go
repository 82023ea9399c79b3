package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stockpick/internal/api"
	"stockpick/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                            - Health check
  GET  /api/analysis                      - Metrics analysis, optional rule filter
  GET  /api/analysis/fields               - Rule field names
  POST /api/simulations                   - Run and persist a backtest
  GET  /api/simulations                   - List saved backtests
  GET  /api/simulations/{id}              - Saved backtest detail
  GET  /api/indexes/{index}/price         - Index level on a date
  GET  /api/indexes/{index}/constituents  - Point-in-time membership

Example:
  go run ./cmd/stockpick api
  go run ./cmd/stockpick api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: configured)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	analysisHandler := handlers.NewAnalysisHandler(
		a.constituents, a.calendar, a.cache, a.metrics, a.selector, a.log)
	simulationHandler := handlers.NewSimulationHandler(
		a.simulator, a.simulations, a.cfg.Simulation, a.log)
	indexHandler := handlers.NewIndexHandler(a.indexPrices, a.constituents, a.log)

	router := api.NewRouter(analysisHandler, simulationHandler, indexHandler, a.log)
	server := api.New(a.cfg, a.log, router)

	// Graceful shutdown on SIGINT/SIGTERM
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		fmt.Printf("\nReceived %s, shutting down\n", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
