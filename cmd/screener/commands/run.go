package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/pipeline"
)

var (
	// Run flags
	runMode            string
	maxStocksPerSector int
	eventsFile         string
)

// runCmd executes one screening run end to end
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one overnight screening run",
	Long: `Executes the full screening pipeline once and exits.

Phases: sentiment + regime (concurrent), stock scanning, event-risk
check, ensemble prediction, opportunity scoring, report generation.

Exit codes:
  0  COMPLETED
  1  COMPLETED_WITH_WARNINGS (fallbacks or phase failures survived)
  2  FAILED (no eligible stocks, cancellation, or fatal error)

Example:
  go run ./cmd/screener run
  go run ./cmd/screener run --mode test --max-stocks-per-sector 3`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runMode, "mode", "full", "run mode: full | test")
	runCmd.Flags().IntVar(&maxStocksPerSector, "max-stocks-per-sector", 0, "test-mode universe cap (overrides strategy file)")
	runCmd.Flags().StringVar(&eventsFile, "events", "config/events.json", "event calendar file (optional)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if runMode != "full" && runMode != "test" {
		return fmt.Errorf("invalid --mode %q, want full or test", runMode)
	}

	fmt.Println("=== Overnight Screener ===")
	fmt.Printf("Mode: %s | Strategy: %s\n\n", runMode, strategyFile)

	a, err := newPipelineApp(eventsFile)
	if err != nil {
		return err
	}
	defer a.close()

	if maxStocksPerSector > 0 {
		a.strat.Pipeline.MaxStocksPerSector = maxStocksPerSector
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := a.orchestrator.Run(ctx, runMode)
	if errors.Is(err, pipeline.ErrLocked) {
		a.log.Warn("Another run holds the lock, exiting")
		return exitCodeError{2}
	}
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	printRunSummary(run)
	if code := run.Status.ExitCode(); code != 0 {
		return exitCodeError{code}
	}
	return nil
}
