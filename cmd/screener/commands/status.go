package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/pipeline"
)

// statusTopN caps how many ranked scores the summary prints
const statusTopN = 10

// statusCmd prints the most recent persisted run
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest screening run",
	Long: `Loads the most recent run from the database and prints its
status, phase outcomes, regime, sentiment and top-ranked scores.

Requires DATABASE_URL.

Example:
  go run ./cmd/screener status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newBaseApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.store == nil {
		return fmt.Errorf("status requires DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	run, err := a.store.LatestRun(ctx)
	if errors.Is(err, pipeline.ErrNoRuns) {
		fmt.Println("No runs recorded yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load latest run: %w", err)
	}

	printRunSummary(run)
	return nil
}

func printRunSummary(run *contracts.PipelineRun) {
	fmt.Printf("Run %s (%s) %s\n", run.ID, run.Mode, run.Status)
	fmt.Printf("Started: %s", run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.EndedAt.IsZero() {
		fmt.Printf(" | Duration: %s", run.EndedAt.Sub(run.StartedAt).Round(time.Second))
	}
	fmt.Println()

	fmt.Println("\nPhases:")
	for _, p := range contracts.AllPhases() {
		fmt.Printf("  %-22s %s\n", p, run.Phases[p])
	}

	fmt.Printf("\nRegime: %s (crash risk %.0f, annualized vol %.1f%%, model %s)\n",
		run.Regime.State, run.Regime.CrashRisk, run.Regime.AnnualizedVol*100, run.Regime.ModelUsed)
	fmt.Printf("Sentiment: bias %+.2f confidence %.2f", run.Sentiment.Bias, run.Sentiment.Confidence)
	if run.Sentiment.Fallback {
		fmt.Print(" (fallback)")
	}
	fmt.Println()

	if len(run.Scores) > 0 {
		fmt.Printf("\nTop scores (%d of %d):\n", min(statusTopN, len(run.Scores)), len(run.Scores))
		for i, s := range run.Scores {
			if i >= statusTopN {
				break
			}
			degraded := ""
			if s.Degraded {
				degraded = " *degraded"
			}
			fmt.Printf("  %2d. %-10s %-12s %5.1f  %s%s\n", i+1, s.Symbol, s.Sector, s.Composite, s.Signal, degraded)
		}
	}

	if len(run.Errors) > 0 {
		fmt.Printf("\nErrors: %d recorded\n", len(run.Errors))
		for _, e := range run.Errors {
			if e.Fatal {
				fmt.Printf("  FATAL %s %s: %s\n", e.Phase, e.Code, e.Message)
			}
		}
	}
}
