package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/scheduler"
)

var nightlySchedule string

// schedulerCmd runs the nightly pipeline on a cron schedule
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the nightly screening scheduler",
	Long: `Starts a long-lived process that executes the screening
pipeline on a cron schedule (default: 21:30 weekdays, after the ASX
close and overnight futures open).

A run that fails is not retried; the run lock and the next night's
trigger are the retry policy.

Example:
  go run ./cmd/screener scheduler
  go run ./cmd/screener scheduler --schedule "0 0 22 * * 1-5"`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&nightlySchedule, "schedule", "", "cron expression with seconds (default: nightly weekday run)")
	schedulerCmd.Flags().StringVar(&eventsFile, "events", "config/events.json", "event calendar file (optional)")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Overnight Screener Scheduler ===")

	a, err := newPipelineApp(eventsFile)
	if err != nil {
		return err
	}
	defer a.close()

	sched := scheduler.New(a.log)
	job := scheduler.NewNightlyJob(a.orchestrator, nightlySchedule, a.log)
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("register nightly job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	fmt.Printf("Schedule: %s\n", job.Schedule())
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	a.log.Info("Scheduler stopping")
	return nil
}
