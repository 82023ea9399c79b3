package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stockpick/internal/contracts"
	"stockpick/internal/scheduler"
	"stockpick/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the scheduler daemon",
	Long: `Starts the scheduler and registers the recurring jobs.

Registered jobs:
  data_sync        - weekdays 22:30 UTC, after the US close
  analysis_refresh - weekdays 23:30 UTC, an hour later

Example:
  go run ./cmd/stockpick scheduler
  go run ./cmd/stockpick scheduler --run data_sync`,
	RunE: runScheduler,
}

var schedulerRunNow string

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&schedulerRunNow, "run", "", "run one job immediately and exit")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	index := contracts.Index(a.cfg.Simulation.BaselineIndex)

	sched := scheduler.New(a.log)

	syncJob := jobs.NewDataSyncJob(a.syncer, index, a.log)
	refreshJob := jobs.NewAnalysisRefreshJob(
		a.constituents, a.calendar, a.cache, a.metrics, a.snapshots, index, a.log)

	if err := sched.AddJob(syncJob); err != nil {
		return err
	}
	if err := sched.AddJob(refreshJob); err != nil {
		return err
	}

	if schedulerRunNow != "" {
		// One-shot mode: blocks until the job finishes, exit code reflects
		// the outcome.
		runErr := sched.RunJob(schedulerRunNow)
		if history, err := sched.GetJobHistory(schedulerRunNow); err == nil {
			if latest := history.GetLatestResults(1); len(latest) == 1 {
				fmt.Printf("Job %s finished in %s (success=%t)\n",
					schedulerRunNow, latest[0].Duration, latest[0].Success)
			}
		}
		return runErr
	}

	sched.Start()
	fmt.Println("Scheduler running. Jobs:", sched.GetAllJobs())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
