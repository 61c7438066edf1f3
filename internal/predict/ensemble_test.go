package predict

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/strategy"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/httputil"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// upCandidate is a steady riser with indicator snapshot to match
func upCandidate() contracts.StockCandidate {
	history := make([]contracts.Candle, 80)
	price := 40.0
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := range history {
		price *= 1.004
		history[i] = contracts.Candle{Date: base.AddDate(0, 0, i), Close: price, Volume: 1_000_000}
	}
	return contracts.StockCandidate{
		Symbol:  "BHP.AX",
		Sector:  "Materials",
		History: history,
		Indicators: contracts.Indicators{
			RSI14:        62,
			MACD:         0.25,
			MACDSignal:   0.10,
			BollingerUp:  price * 1.04,
			BollingerMid: price,
			BollingerLow: price * 0.96,
			LastClose:    price,
		},
	}
}

func neutralRun() RunContext {
	return RunContext{
		Regime:    contracts.RegimeAssessment{State: contracts.RegimeNormal},
		Sentiment: contracts.IndexSentiment{Bias: 0.3, Confidence: 0.7},
	}
}

// stubSource returns a fixed prediction under a chosen kind
type stubSource struct {
	kind contracts.SourceKind
	pred contracts.SourcePrediction
}

func (s stubSource) Kind() contracts.SourceKind { return s.kind }

func (s stubSource) Predict(context.Context, contracts.StockCandidate, RunContext) contracts.SourcePrediction {
	p := s.pred
	p.Source = s.kind
	return p
}

func fixedSources(lstm, trend, technical, sentiment contracts.SourcePrediction) []Source {
	return []Source{
		stubSource{contracts.SourceLSTM, lstm},
		stubSource{contracts.SourceTrend, trend},
		stubSource{contracts.SourceTechnical, technical},
		stubSource{contracts.SourceSentiment, sentiment},
	}
}

func testEnsemble(sources []Source) *Ensemble {
	return NewEnsemble(sources, strategy.Default().Ensemble.Weights, logger.NewNop())
}

func TestEnsemble_AllLegsPresent(t *testing.T) {
	e := testEnsemble(fixedSources(
		contracts.SourcePrediction{Direction: 0.8, Confidence: 0.9},
		contracts.SourcePrediction{Direction: 0.5, Confidence: 0.5},
		contracts.SourcePrediction{Direction: 0.3, Confidence: 0.6},
		contracts.SourcePrediction{Direction: 0.2, Confidence: 0.7},
	))

	r := e.Predict(context.Background(), upCandidate(), neutralRun())

	require.Len(t, r.Sources, 4)
	for _, kind := range contracts.AllSources() {
		leg, ok := r.Sources[kind]
		require.True(t, ok, "leg %s missing", kind)
		assert.Equal(t, kind, leg.Source)
	}
	assert.Greater(t, r.Direction, 0.0)
	assert.False(t, r.Degraded())
}

func TestEnsemble_FallbacksReduceConfidence(t *testing.T) {
	real := fixedSources(
		contracts.SourcePrediction{Direction: 0.6, Confidence: 0.8},
		contracts.SourcePrediction{Direction: 0.6, Confidence: 0.5},
		contracts.SourcePrediction{Direction: 0.6, Confidence: 0.6},
		contracts.SourcePrediction{Direction: 0.6, Confidence: 0.7},
	)
	degraded := fixedSources(
		contracts.SourcePrediction{Direction: 0.6, Confidence: 0.4, Fallback: true, Reason: contracts.FallbackToTrend},
		contracts.SourcePrediction{Direction: 0.6, Confidence: 0.5},
		contracts.SourcePrediction{Direction: 0.6, Confidence: 0.6},
		contracts.SourcePrediction{Direction: 0.6, Confidence: 0.56, Fallback: true, Reason: contracts.FallbackToIndexSent},
	)

	cand, run := upCandidate(), neutralRun()
	full := testEnsemble(real).Predict(context.Background(), cand, run)
	partial := testEnsemble(degraded).Predict(context.Background(), cand, run)

	assert.Less(t, partial.Confidence, full.Confidence,
		"substituted legs must read strictly weaker than live models")
	assert.Equal(t, 2, partial.FallbackCount())
	assert.False(t, partial.Degraded(), "two of four legs is not degraded")
}

func TestEnsemble_DualFallbackCapsConfidence(t *testing.T) {
	// LSTM and sentiment services both down: the substituted legs plus
	// the dampening keep the combined confidence at or below 0.5 even
	// when the surviving legs are fully confident
	e := testEnsemble(fixedSources(
		contracts.SourcePrediction{Direction: 1, Confidence: 0.4, Fallback: true, Reason: contracts.FallbackModelMissing},
		contracts.SourcePrediction{Direction: 1, Confidence: 0.6},
		contracts.SourcePrediction{Direction: 1, Confidence: 0.8},
		contracts.SourcePrediction{Direction: 1, Confidence: 0.8, Fallback: true, Reason: contracts.FallbackModelMissing},
	))

	r := e.Predict(context.Background(), upCandidate(), neutralRun())

	assert.LessOrEqual(t, r.Confidence, 0.5)
	assert.Equal(t, 2, r.FallbackCount())
}

func TestEnsemble_CancellationBetweenSymbols(t *testing.T) {
	e := testEnsemble(fixedSources(
		contracts.SourcePrediction{Direction: 0.5, Confidence: 0.5},
		contracts.SourcePrediction{Direction: 0.5, Confidence: 0.5},
		contracts.SourcePrediction{Direction: 0.5, Confidence: 0.5},
		contracts.SourcePrediction{Direction: 0.5, Confidence: 0.5},
	))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := e.PredictAll(ctx, []contracts.StockCandidate{upCandidate()}, neutralRun())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestTrendSource(t *testing.T) {
	trend := NewTrendSource(5)
	p := trend.Predict(context.Background(), upCandidate(), neutralRun())

	assert.False(t, p.Fallback)
	assert.Greater(t, p.Direction, 0.0)
	assert.LessOrEqual(t, p.Confidence, 0.6)

	short := contracts.StockCandidate{History: upCandidate().History[:3]}
	p = trend.Predict(context.Background(), short, neutralRun())
	assert.True(t, p.Fallback)
	assert.Equal(t, contracts.FallbackInsufficientDa, p.Reason)
	assert.Zero(t, p.Direction)
}

func TestTechnicalSource(t *testing.T) {
	tech := NewTechnicalSource()

	oversold := upCandidate()
	oversold.Indicators.RSI14 = 20
	oversold.Indicators.LastClose = oversold.Indicators.BollingerLow
	oversold.Indicators.MACD = 0.3
	oversold.Indicators.MACDSignal = 0.1
	p := tech.Predict(context.Background(), oversold, neutralRun())
	assert.Greater(t, p.Direction, 0.0, "oversold near lower band is a bullish read")

	empty := contracts.StockCandidate{}
	p = tech.Predict(context.Background(), empty, neutralRun())
	assert.True(t, p.Fallback)
	assert.Equal(t, contracts.FallbackInsufficientDa, p.Reason)
}

func TestLSTMSource_ServiceRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req lstmRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "BHP.AX", req.Symbol)
		assert.NotEmpty(t, req.Closes)
		json.NewEncoder(w).Encode(lstmResponse{Direction: 0.7, Confidence: 0.85})
	}))
	defer server.Close()

	src := NewLSTMSource(testClient(), server.URL, 5*time.Second, NewTrendSource(5), logger.NewNop())
	p := src.Predict(context.Background(), upCandidate(), neutralRun())

	assert.False(t, p.Fallback)
	assert.InDelta(t, 0.7, p.Direction, 1e-9)
	assert.InDelta(t, 0.85, p.Confidence, 1e-9)
}

func TestLSTMSource_MissingServiceDegradesToTrend(t *testing.T) {
	src := NewLSTMSource(testClient(), "", 5*time.Second, NewTrendSource(5), logger.NewNop())
	p := src.Predict(context.Background(), upCandidate(), neutralRun())

	assert.True(t, p.Fallback)
	assert.Equal(t, contracts.FallbackModelMissing, p.Reason)
	assert.Greater(t, p.Direction, 0.0, "trend substitute keeps the direction")
	assert.LessOrEqual(t, p.Confidence, 0.4, "substitute confidence is capped")
}

func TestLSTMSource_BrokenServiceDegradesToTrend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := NewLSTMSource(testClient(), server.URL, 5*time.Second, NewTrendSource(5), logger.NewNop())
	p := src.Predict(context.Background(), upCandidate(), neutralRun())

	assert.True(t, p.Fallback)
	assert.Equal(t, contracts.FallbackToTrend, p.Reason)
	assert.LessOrEqual(t, p.Confidence, 0.4)
}

func TestSentimentSource_FallbackUsesIndexBias(t *testing.T) {
	src := NewSentimentSource(testClient(), "", 5*time.Second, logger.NewNop())

	run := neutralRun() // bias 0.3, confidence 0.7
	p := src.Predict(context.Background(), upCandidate(), run)

	assert.True(t, p.Fallback)
	assert.Equal(t, contracts.FallbackModelMissing, p.Reason)
	assert.InDelta(t, 0.3, p.Direction, 1e-9)
	assert.InDelta(t, 0.7*indexSentimentDiscount, p.Confidence, 1e-9)
}

func TestLSTMSource_DisabledFallbackIsNeutral(t *testing.T) {
	src := NewLSTMSource(testClient(), "", 5*time.Second, NewTrendSource(5), logger.NewNop()).DisableFallback()
	p := src.Predict(context.Background(), upCandidate(), neutralRun())

	assert.True(t, p.Fallback)
	assert.Equal(t, contracts.FallbackModelMissing, p.Reason)
	assert.Zero(t, p.Direction, "no trend substitute when disabled")
	assert.InDelta(t, neutralLegConfidence, p.Confidence, 1e-9)
}

func TestSentimentSource_DisabledFallbackIsNeutral(t *testing.T) {
	src := NewSentimentSource(testClient(), "", 5*time.Second, logger.NewNop()).DisableFallback()

	p := src.Predict(context.Background(), upCandidate(), neutralRun())

	assert.True(t, p.Fallback)
	assert.Equal(t, contracts.FallbackModelMissing, p.Reason)
	assert.Zero(t, p.Direction, "index bias is not substituted when disabled")
	assert.InDelta(t, neutralLegConfidence, p.Confidence, 1e-9)
}

func TestBuildSources_WiresFallbackToggles(t *testing.T) {
	cfg := strategy.Default().Ensemble
	cfg.LSTMFallback = false
	cfg.SentimentFallback = false

	sources := BuildSources(testClient(), cfg, logger.NewNop())
	require.Len(t, sources, 4)

	for _, src := range sources {
		p := src.Predict(context.Background(), upCandidate(), neutralRun())
		switch src.Kind() {
		case contracts.SourceLSTM, contracts.SourceSentiment:
			assert.True(t, p.Fallback, "%s degrades with no service url", src.Kind())
			assert.Zero(t, p.Direction, "%s stays neutral with its fallback disabled", src.Kind())
		}
	}
}

func TestSentimentSource_ServiceRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sentimentResponse{Score: -0.4, Confidence: 0.6})
	}))
	defer server.Close()

	src := NewSentimentSource(testClient(), server.URL, 5*time.Second, logger.NewNop())
	p := src.Predict(context.Background(), upCandidate(), neutralRun())

	assert.False(t, p.Fallback)
	assert.InDelta(t, -0.4, p.Direction, 1e-9)
}

func testClient() *httputil.Client {
	return httputil.New(logger.NewNop(), 5*time.Second).DisableRetry()
}
