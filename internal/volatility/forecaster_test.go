package volatility

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/strategy"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

func testForecaster(garch bool) *Forecaster {
	cfg := strategy.Default().Volatility
	cfg.GARCHEnabled = garch
	return NewForecaster(cfg, logger.NewNop())
}

// syntheticReturns builds a deterministic alternating return series with
// the given amplitude
func syntheticReturns(n int, amplitude float64) []float64 {
	returns := make([]float64, n)
	for i := range returns {
		// A deterministic pseudo-cycle, no RNG anywhere in these tests
		returns[i] = amplitude * math.Sin(float64(i)*0.7)
	}
	return returns
}

func TestForecast_InsufficientDataUsesDefault(t *testing.T) {
	f := testForecaster(true)

	fc := f.Forecast(syntheticReturns(5, 0.01))

	assert.Equal(t, "default", fc.Method)
	assert.True(t, fc.LowConfidence)
	assert.InDelta(t, 0.015, fc.DailyVol, 1e-9)
	assert.InDelta(t, 0.015*math.Sqrt(252), fc.AnnualizedVol, 1e-9)
}

func TestForecast_NeverPanicsOnEmpty(t *testing.T) {
	f := testForecaster(true)

	fc := f.Forecast(nil)
	assert.Equal(t, "default", fc.Method)
	assert.True(t, fc.LowConfidence)
}

func TestForecast_EWMA(t *testing.T) {
	f := testForecaster(false)

	fc := f.Forecast(syntheticReturns(40, 0.01))

	assert.Equal(t, "ewma", fc.Method)
	assert.False(t, fc.LowConfidence)
	assert.Greater(t, fc.DailyVol, 0.0)
	assert.Less(t, fc.DailyVol, 0.05, "vol of a 1%% amplitude series should stay small")
}

func TestForecast_EWMALowConfidenceUnder30(t *testing.T) {
	f := testForecaster(false)

	fc := f.Forecast(syntheticReturns(15, 0.01))
	assert.Equal(t, "ewma", fc.Method)
	assert.True(t, fc.LowConfidence)
}

func TestForecast_GARCHOnLongSeries(t *testing.T) {
	f := testForecaster(true)

	fc := f.Forecast(syntheticReturns(200, 0.012))

	assert.Equal(t, "garch", fc.Method)
	assert.False(t, fc.LowConfidence)
	assert.Greater(t, fc.DailyVol, 0.0)
}

func TestForecast_Deterministic(t *testing.T) {
	f := testForecaster(true)
	returns := syntheticReturns(200, 0.012)

	a := f.Forecast(returns)
	b := f.Forecast(returns)
	assert.Equal(t, a, b)
}

func TestForecast_ScalesWithAmplitude(t *testing.T) {
	f := testForecaster(false)

	low := f.Forecast(syntheticReturns(100, 0.005))
	high := f.Forecast(syntheticReturns(100, 0.03))

	assert.Greater(t, high.DailyVol, low.DailyVol)
}

func TestFitGARCH_DegenerateSeries(t *testing.T) {
	// Zero-variance input must be rejected, not produce NaN
	flat := make([]float64, 100)
	_, ok := fitGARCH(flat)
	assert.False(t, ok)
}

func TestSampleVariance(t *testing.T) {
	v := sampleVariance([]float64{0.01, -0.01, 0.01, -0.01})
	require.Greater(t, v, 0.0)
	assert.InDelta(t, 0.0001333, v, 1e-6)
}
