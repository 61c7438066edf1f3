package pipeline

import (
	"time"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
)

// BuildReport freezes the finished (or failed) run into the structured
// payload handed to external consumers. The pipeline never renders
// HTML or sends mail; this payload is its outer boundary.
func BuildReport(run *contracts.PipelineRun, generatedAt time.Time) contracts.ReportPayload {
	return contracts.ReportPayload{
		RunID:       run.ID,
		Date:        run.Date,
		Mode:        run.Mode,
		Status:      run.Status,
		GeneratedAt: generatedAt,
		Regime:      run.Regime,
		Sentiment:   run.Sentiment,
		Scores:      run.Scores,
		Sectors:     run.Sectors,
		Errors:      run.Errors,
	}
}
