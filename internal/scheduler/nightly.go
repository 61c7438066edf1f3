package scheduler

import (
	"context"
	"fmt"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/pipeline"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// defaultNightlySchedule fires at 21:30 on weekdays, after the ASX
// close and settlement data are available
const defaultNightlySchedule = "0 30 21 * * 1-5"

// NightlyJob wraps the screening pipeline as a scheduled job
type NightlyJob struct {
	orchestrator *pipeline.Orchestrator
	schedule     string
	logger       *logger.Logger
}

// NewNightlyJob creates the overnight screening job. An empty schedule
// uses the weekday-evening default.
func NewNightlyJob(orchestrator *pipeline.Orchestrator, schedule string, log *logger.Logger) *NightlyJob {
	if schedule == "" {
		schedule = defaultNightlySchedule
	}
	return &NightlyJob{
		orchestrator: orchestrator,
		schedule:     schedule,
		logger:       log.Component("scheduler.nightly"),
	}
}

func (j *NightlyJob) Name() string { return "nightly_screen" }

func (j *NightlyJob) Schedule() string { return j.schedule }

// Run executes one full overnight screening run. A run that finishes
// with warnings is still a successful job; only a failed run (or a
// run that could not start) fails the job.
func (j *NightlyJob) Run(ctx context.Context) error {
	run, err := j.orchestrator.Run(ctx, "full")
	if err != nil {
		return fmt.Errorf("nightly run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": run.ID,
		"status": run.Status,
		"scores": len(run.Scores),
	}).Info("Nightly screen finished")

	if run.Status == contracts.RunFailed {
		return fmt.Errorf("nightly run %s failed", run.ID)
	}
	return nil
}
