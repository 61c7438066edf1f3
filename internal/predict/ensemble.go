package predict

import (
	"context"
	"math"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/strategy"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/httputil"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// fallbackDampening is applied once per degraded leg, so a fully
// substituted prediction always scores strictly below the same
// prediction from live models
const fallbackDampening = 0.85

// Ensemble combines the four prediction legs under configured weights.
// ⭐ SSOT: 방향 예측 결합은 여기서만
type Ensemble struct {
	sources []Source
	weights strategy.EnsembleWeights
	logger  *logger.Logger
}

// NewEnsemble wires the legs in combination order. The sources slice
// is what varies between full runs and tests; the combination itself
// never branches on a leg's concrete type.
func NewEnsemble(sources []Source, weights strategy.EnsembleWeights, log *logger.Logger) *Ensemble {
	return &Ensemble{
		sources: sources,
		weights: weights,
		logger:  log.Component("predict.ensemble"),
	}
}

// Predict produces the combined directional call for one candidate.
// Every leg always contributes; degraded legs contribute with reduced
// confidence rather than dropping out.
func (e *Ensemble) Predict(ctx context.Context, candidate contracts.StockCandidate, run RunContext) contracts.PredictionResult {
	result := contracts.PredictionResult{
		Symbol:  candidate.Symbol,
		Sources: make(map[contracts.SourceKind]contracts.SourcePrediction, len(e.sources)),
	}

	var direction, confidence float64
	for _, source := range e.sources {
		p := source.Predict(ctx, candidate, run)
		result.Sources[source.Kind()] = p

		w := e.weight(source.Kind())
		direction += w * p.Direction * p.Confidence
		confidence += w * p.Confidence
	}

	// Each degraded leg discounts the whole: substitutes must read
	// weaker than the live models they replaced
	confidence *= math.Pow(fallbackDampening, float64(result.FallbackCount()))

	result.Direction = clampDirection(direction)
	result.Confidence = clamp01(confidence)

	e.logger.WithFields(map[string]interface{}{
		"symbol":     candidate.Symbol,
		"direction":  result.Direction,
		"confidence": result.Confidence,
		"fallbacks":  result.FallbackCount(),
	}).Debug("Ensemble prediction")

	return result
}

// PredictAll runs the ensemble over the candidate list, honoring
// cancellation between symbols. Prediction is per-symbol independent,
// so a partial result set on cancellation is still coherent.
func (e *Ensemble) PredictAll(ctx context.Context, candidates []contracts.StockCandidate, run RunContext) ([]contracts.PredictionResult, error) {
	results := make([]contracts.PredictionResult, 0, len(candidates))
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, e.Predict(ctx, candidate, run))
	}
	return results, nil
}

func (e *Ensemble) weight(kind contracts.SourceKind) float64 {
	switch kind {
	case contracts.SourceLSTM:
		return e.weights.LSTM
	case contracts.SourceTrend:
		return e.weights.Trend
	case contracts.SourceTechnical:
		return e.weights.Technical
	case contracts.SourceSentiment:
		return e.weights.Sentiment
	default:
		return 0
	}
}

// BuildSources assembles the production leg set from config. The
// lstm_fallback / sentiment_fallback toggles pick between the local
// substitute and a neutral leg when a service degrades.
func BuildSources(client *httputil.Client, cfg strategy.Ensemble, log *logger.Logger) []Source {
	trend := NewTrendSource(cfg.TrendDays)

	lstm := NewLSTMSource(client, cfg.LSTMServiceURL, cfg.ModelTimeout(), trend, log)
	if !cfg.LSTMFallback {
		lstm.DisableFallback()
	}
	sent := NewSentimentSource(client, cfg.SentimentURL, cfg.ModelTimeout(), log)
	if !cfg.SentimentFallback {
		sent.DisableFallback()
	}

	return []Source{lstm, trend, NewTechnicalSource(), sent}
}
