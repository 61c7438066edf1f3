package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/httputil"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// lstmFallbackCap bounds the confidence of a trend substitute standing
// in for the model leg
const lstmFallbackCap = 0.4

// lstmHistoryDays is how much close history the model service receives
const lstmHistoryDays = 60

// LSTMSource calls the external price-direction model service. When
// the service is missing, slow or broken it degrades to the trend
// extrapolation with a capped confidence, so the ensemble keeps all
// four legs populated.
type LSTMSource struct {
	client     *httputil.Client
	url        string
	timeout    time.Duration
	trend      *TrendSource
	substitute bool
	logger     *logger.Logger
}

// NewLSTMSource creates the model leg. An empty url means the service
// is not deployed; every call then degrades immediately.
func NewLSTMSource(client *httputil.Client, url string, timeout time.Duration, trend *TrendSource, log *logger.Logger) *LSTMSource {
	return &LSTMSource{
		client:     client,
		url:        url,
		timeout:    timeout,
		trend:      trend,
		substitute: true,
		logger:     log.Component("predict.lstm"),
	}
}

// DisableFallback makes a degraded leg neutral instead of the trend
// substitute (the lstm_fallback strategy toggle)
func (s *LSTMSource) DisableFallback() *LSTMSource {
	s.substitute = false
	return s
}

func (s *LSTMSource) Kind() contracts.SourceKind {
	return contracts.SourceLSTM
}

type lstmRequest struct {
	Symbol string    `json:"symbol"`
	Closes []float64 `json:"closes"`
}

type lstmResponse struct {
	Direction  float64 `json:"direction"`
	Confidence float64 `json:"confidence"`
}

func (s *LSTMSource) Predict(ctx context.Context, candidate contracts.StockCandidate, run RunContext) contracts.SourcePrediction {
	if s.url == "" {
		return s.degrade(ctx, candidate, run, contracts.FallbackModelMissing)
	}

	resp, err := s.call(ctx, candidate)
	if err != nil {
		reason := contracts.FallbackToTrend
		if errors.Is(err, context.DeadlineExceeded) {
			reason = contracts.FallbackModelTimeout
		}
		s.logger.WithError(err).WithField("symbol", candidate.Symbol).Warn("Model call failed, trend substitute")
		return s.degrade(ctx, candidate, run, reason)
	}

	return contracts.SourcePrediction{
		Source:     contracts.SourceLSTM,
		Direction:  clampDirection(resp.Direction),
		Confidence: clamp01(resp.Confidence),
	}
}

// call runs one model request under the per-symbol timeout budget
func (s *LSTMSource) call(ctx context.Context, candidate contracts.StockCandidate) (*lstmResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	history := candidate.History
	if len(history) > lstmHistoryDays {
		history = history[len(history)-lstmHistoryDays:]
	}
	closes := make([]float64, len(history))
	for i, c := range history {
		closes[i] = c.Close
	}

	httpResp, err := s.client.PostJSON(ctx, s.url, lstmRequest{Symbol: candidate.Symbol, Closes: closes})
	if err != nil {
		return nil, fmt.Errorf("model service call: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model service status %d", httpResp.StatusCode)
	}

	var resp lstmResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	return &resp, nil
}

// degrade substitutes the trend leg's call under the model's identity,
// with confidence capped well below a real model answer. With the
// substitute disabled the leg stays populated but neutral.
func (s *LSTMSource) degrade(ctx context.Context, candidate contracts.StockCandidate, run RunContext, reason contracts.FallbackReason) contracts.SourcePrediction {
	if !s.substitute {
		return neutralLeg(contracts.SourceLSTM, reason)
	}

	trend := s.trend.Predict(ctx, candidate, run)

	confidence := trend.Confidence
	if confidence > lstmFallbackCap {
		confidence = lstmFallbackCap
	}

	return contracts.SourcePrediction{
		Source:     contracts.SourceLSTM,
		Direction:  trend.Direction,
		Confidence: confidence,
		Fallback:   true,
		Reason:     reason,
	}
}

// neutralLegConfidence is the floor a leg carries when it has nothing
// real to say
const neutralLegConfidence = 0.1

// neutralLeg is a no-opinion stand-in for a source whose substitute is
// disabled by strategy config; the leg is still populated, never nil
func neutralLeg(source contracts.SourceKind, reason contracts.FallbackReason) contracts.SourcePrediction {
	return contracts.SourcePrediction{
		Source:     source,
		Direction:  0,
		Confidence: neutralLegConfidence,
		Fallback:   true,
		Reason:     reason,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
