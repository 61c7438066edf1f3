package volatility

import (
	"math"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/strategy"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// tradingDaysPerYear annualizes daily volatility
const tradingDaysPerYear = 252.0

// Forecast is a forward daily volatility estimate. Never an error: on
// thin data the forecaster returns the configured conservative default
// and flags LowConfidence instead.
type Forecast struct {
	DailyVol      float64 `json:"daily_vol"`
	AnnualizedVol float64 `json:"annualized_vol"`
	Method        string  `json:"method"` // "garch", "ewma", "default"
	LowConfidence bool    `json:"low_confidence"`
}

// Forecaster estimates forward volatility from a daily return series
// ⭐ SSOT: 변동성 추정은 여기서만
type Forecaster struct {
	cfg    strategy.Volatility
	logger *logger.Logger
}

// NewForecaster creates a forecaster from strategy config
func NewForecaster(cfg strategy.Volatility, log *logger.Logger) *Forecaster {
	return &Forecaster{
		cfg:    cfg,
		logger: log.Component("volatility.forecaster"),
	}
}

// Forecast estimates next-day volatility for an ordered return series
// (oldest first). A GARCH(1,1) fit is preferred when enabled and it
// converges; EWMA is the workhorse; the category default covers thin data.
func (f *Forecaster) Forecast(returns []float64) Forecast {
	if len(returns) < f.cfg.MinObservations {
		f.logger.WithFields(map[string]interface{}{
			"observations": len(returns),
			"minimum":      f.cfg.MinObservations,
		}).Warn("Insufficient returns, using default volatility")
		return Forecast{
			DailyVol:      f.cfg.DefaultDailyVol,
			AnnualizedVol: f.cfg.DefaultDailyVol * math.Sqrt(tradingDaysPerYear),
			Method:        "default",
			LowConfidence: true,
		}
	}

	if f.cfg.GARCHEnabled && len(returns) >= 60 {
		if sigma, ok := fitGARCH(returns); ok {
			return Forecast{
				DailyVol:      sigma,
				AnnualizedVol: sigma * math.Sqrt(tradingDaysPerYear),
				Method:        "garch",
				LowConfidence: false,
			}
		}
		f.logger.Debug("GARCH fit did not converge, falling back to EWMA")
	}

	sigma := ewmaVol(returns, f.cfg.EWMALambda)
	return Forecast{
		DailyVol:      sigma,
		AnnualizedVol: sigma * math.Sqrt(tradingDaysPerYear),
		Method:        "ewma",
		LowConfidence: len(returns) < 30,
	}
}

// ewmaVol is the RiskMetrics exponentially weighted volatility:
// var_t = λ·var_{t-1} + (1-λ)·r_t²
func ewmaVol(returns []float64, lambda float64) float64 {
	// Seed with the simple variance of the first observations so an
	// early outlier does not dominate the recursion.
	seedN := 10
	if len(returns) < seedN {
		seedN = len(returns)
	}
	variance := sampleVariance(returns[:seedN])

	for _, r := range returns[seedN:] {
		variance = lambda*variance + (1-lambda)*r*r
	}
	return math.Sqrt(variance)
}

// sampleVariance is the mean-adjusted variance of a return slice
func sampleVariance(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var sum float64
	for _, r := range returns {
		d := r - mean
		sum += d * d
	}
	if len(returns) < 2 {
		return sum
	}
	return sum / float64(len(returns)-1)
}
