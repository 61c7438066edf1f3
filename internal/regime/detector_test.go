package regime

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/strategy"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/volatility"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// syntheticCandles builds a deterministic price path: drift per day plus
// a sinusoidal wiggle of the given amplitude
func syntheticCandles(n int, start, drift, amplitude float64) []contracts.Candle {
	candles := make([]contracts.Candle, n)
	price := start
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price = price * (1 + drift + amplitude*math.Sin(float64(i)*1.3))
		candles[i] = contracts.Candle{
			Date:   base.AddDate(0, 0, i),
			Open:   price,
			High:   price * 1.005,
			Low:    price * 0.995,
			Close:  price,
			Volume: 1_000_000,
		}
	}
	return candles
}

func testDetector() *Detector {
	return NewDetector(strategy.Default().Regime, logger.NewNop())
}

func TestClassify_Deterministic(t *testing.T) {
	d := testDetector()
	candles := syntheticCandles(180, 100, 0.0004, 0.012)

	a := d.Classify(candles)
	b := d.Classify(candles)

	assert.Equal(t, a, b, "identical input must yield identical classification")
}

func TestClassify_NeverUnknown(t *testing.T) {
	// UNKNOWN is reserved for fetch failures, which the detector never sees
	d := testDetector()

	for _, n := range []int{0, 10, 50, 180} {
		c := d.Classify(syntheticCandles(n, 100, 0.0002, 0.01))
		assert.True(t, c.State.Known(), "n=%d produced %s", n, c.State)
	}
}

func TestClassify_ThinHistoryUsesHeuristic(t *testing.T) {
	d := testDetector()

	c := d.Classify(syntheticCandles(40, 100, 0.0002, 0.01))
	assert.Equal(t, "heuristic", c.ModelUsed)
}

func TestHeuristic_HighVolOnDrawdown(t *testing.T) {
	d := testDetector()

	// Steady decline: ~0.4% down per day over 50 sessions is a ~18% drawdown
	c := d.Classify(syntheticCandles(50, 100, -0.004, 0.002))
	assert.Equal(t, contracts.RegimeHighVol, c.State)
}

func TestClassify_ProbsSumToOne(t *testing.T) {
	d := testDetector()

	c := d.Classify(syntheticCandles(180, 100, 0.0003, 0.015))
	sum := c.StateProbs[0] + c.StateProbs[1] + c.StateProbs[2]
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestCrashRisk_Monotonic(t *testing.T) {
	assert.Greater(t, crashRisk(0.8, 0.2), crashRisk(0.2, 0.2))
	assert.Greater(t, crashRisk(0.5, 0.35), crashRisk(0.5, 0.10))
	assert.LessOrEqual(t, crashRisk(1.0, 1.0), 100.0)
	assert.GreaterOrEqual(t, crashRisk(0, 0), 0.0)
}

func TestBuildFeatures(t *testing.T) {
	candles := syntheticCandles(60, 100, 0.0005, 0.01)
	features := buildFeatures(candles)

	require.Len(t, features, 60-featureWindow)
	for _, f := range features {
		assert.GreaterOrEqual(t, f.Drawdown, 0.0)
		assert.LessOrEqual(t, f.Drawdown, 1.0)
		assert.GreaterOrEqual(t, f.Volatility, 0.0)
	}

	assert.Nil(t, buildFeatures(candles[:featureWindow]))
}

// stubProvider lets engine tests control fetch outcomes
type stubProvider struct {
	candles []contracts.Candle
	err     error
}

func (s stubProvider) History(context.Context, string, int) ([]contracts.Candle, error) {
	return s.candles, s.err
}

func (s stubProvider) Quote(context.Context, string) (contracts.Quote, error) {
	return contracts.Quote{}, errors.New("not implemented")
}

func testEngine(p stubProvider) *Engine {
	cfg := strategy.Default()
	log := logger.NewNop()
	return NewEngine(
		p,
		volatility.NewForecaster(cfg.Volatility, log),
		NewDetector(cfg.Regime, log),
		cfg,
		log,
	)
}

func TestEngine_Assess(t *testing.T) {
	e := testEngine(stubProvider{candles: syntheticCandles(180, 7000, 0.0003, 0.008)})

	assessment, err := e.Assess(context.Background())
	require.NoError(t, err)

	assert.True(t, assessment.State.Known())
	assert.GreaterOrEqual(t, assessment.CrashRisk, 0.0)
	assert.LessOrEqual(t, assessment.CrashRisk, 100.0)
	assert.Greater(t, assessment.AnnualizedVol, 0.0)
}

func TestEngine_FetchFailureIsUnknown(t *testing.T) {
	e := testEngine(stubProvider{err: errors.New("connection refused")})

	assessment, err := e.Assess(context.Background())
	require.Error(t, err)

	// UNKNOWN must be surfaced distinctly, never as a silent CALM
	assert.Equal(t, contracts.RegimeUnknown, assessment.State)
	assert.False(t, assessment.State.Known())
	assert.InDelta(t, 50.0, assessment.CrashRisk, 1e-9)
}
