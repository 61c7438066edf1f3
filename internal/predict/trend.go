package predict

import (
	"context"
	"math"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
)

// trendSaturationPct is the N-day return magnitude at which the trend
// direction saturates at ±1
const trendSaturationPct = 0.05

// maxTrendConfidence keeps the trend leg below the model legs: a raw
// momentum extrapolation is never as trustworthy as a fitted model
const maxTrendConfidence = 0.6

// TrendSource extrapolates the trailing N-day return. It is the one
// leg that is always computable from scan data alone, which is why the
// LSTM leg substitutes it on outage.
type TrendSource struct {
	days int
}

// NewTrendSource creates the momentum-extrapolation leg
func NewTrendSource(days int) *TrendSource {
	return &TrendSource{days: days}
}

func (s *TrendSource) Kind() contracts.SourceKind {
	return contracts.SourceTrend
}

func (s *TrendSource) Predict(_ context.Context, candidate contracts.StockCandidate, _ RunContext) contracts.SourcePrediction {
	history := candidate.History
	if len(history) < s.days+1 {
		return contracts.SourcePrediction{
			Source:     contracts.SourceTrend,
			Direction:  0,
			Confidence: 0.1,
			Fallback:   true,
			Reason:     contracts.FallbackInsufficientDa,
		}
	}

	base := history[len(history)-1-s.days].Close
	if base == 0 {
		return contracts.SourcePrediction{
			Source:     contracts.SourceTrend,
			Direction:  0,
			Confidence: 0.1,
			Fallback:   true,
			Reason:     contracts.FallbackInsufficientDa,
		}
	}

	ret := history[len(history)-1].Close/base - 1
	direction := clampDirection(ret / trendSaturationPct)

	// Stronger moves earn more confidence, up to the trend ceiling
	confidence := math.Min(maxTrendConfidence, 0.2+0.4*math.Abs(direction))

	return contracts.SourcePrediction{
		Source:     contracts.SourceTrend,
		Direction:  direction,
		Confidence: confidence,
	}
}
