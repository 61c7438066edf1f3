package regime

import (
	"context"
	"fmt"
	"time"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/marketdata"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/strategy"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/volatility"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// Engine orchestrates the volatility forecaster and regime detector
// into a single per-run assessment.
type Engine struct {
	provider   marketdata.Provider
	forecaster *volatility.Forecaster
	detector   *Detector
	benchmark  string
	windowDays int
	logger     *logger.Logger
	now        func() time.Time
}

// NewEngine wires the engine's dependencies explicitly
func NewEngine(
	provider marketdata.Provider,
	forecaster *volatility.Forecaster,
	detector *Detector,
	cfg *strategy.Config,
	log *logger.Logger,
) *Engine {
	return &Engine{
		provider:   provider,
		forecaster: forecaster,
		detector:   detector,
		benchmark:  cfg.Universe.BenchmarkIndex,
		windowDays: cfg.Regime.WindowDays,
		logger:     log.Component("regime.engine"),
		now:        time.Now,
	}
}

// Assess computes the run's regime assessment from benchmark history.
// When the data fetch itself fails it returns the UNKNOWN assessment
// together with the error; UNKNOWN is never produced by a successful
// classification.
func (e *Engine) Assess(ctx context.Context) (contracts.RegimeAssessment, error) {
	candles, err := e.provider.History(ctx, e.benchmark, e.windowDays)
	if err != nil {
		e.logger.WithError(err).Error("Benchmark fetch failed, regime UNKNOWN")
		return contracts.UnknownRegime(e.now()), fmt.Errorf("benchmark history fetch: %w", err)
	}

	returns := contracts.Returns(candles)
	forecast := e.forecaster.Forecast(returns)
	classification := e.detector.Classify(candles)

	assessment := contracts.RegimeAssessment{
		State:         classification.State,
		CrashRisk:     crashRisk(classification.StateProbs[2], forecast.AnnualizedVol),
		DailyVol:      forecast.DailyVol,
		AnnualizedVol: forecast.AnnualizedVol,
		StateProbs:    classification.StateProbs,
		ModelUsed:     classification.ModelUsed,
		LowConfData:   forecast.LowConfidence,
		AssessedAt:    e.now(),
	}

	e.logger.WithFields(map[string]interface{}{
		"state":          assessment.State,
		"crash_risk":     assessment.CrashRisk,
		"annualized_vol": assessment.AnnualizedVol,
		"model":          assessment.ModelUsed,
	}).Info("Regime assessed")

	return assessment, nil
}
