package predict

import (
	"context"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
)

// RunContext carries the per-run signals every source may consult
type RunContext struct {
	Regime    contracts.RegimeAssessment
	Sentiment contracts.IndexSentiment
}

// Source is one leg of the prediction ensemble. Implementations never
// return an error: a leg that cannot produce a real prediction degrades
// to its documented substitute and says so in the result, which is how
// partial model outages stay visible without aborting the run.
type Source interface {
	Kind() contracts.SourceKind
	Predict(ctx context.Context, candidate contracts.StockCandidate, run RunContext) contracts.SourcePrediction
}

func clampDirection(d float64) float64 {
	if d > 1 {
		return 1
	}
	if d < -1 {
		return -1
	}
	return d
}
