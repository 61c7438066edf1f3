package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/httputil"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// indexSentimentDiscount haircuts the market-wide gap signal when it
// stands in for per-stock sentiment
const indexSentimentDiscount = 0.8

// SentimentSource calls the per-stock news-sentiment service. On
// outage it substitutes the run's index-level futures-gap bias at a
// discount: a market-wide signal is a weaker statement about one stock.
type SentimentSource struct {
	client     *httputil.Client
	url        string
	timeout    time.Duration
	substitute bool
	logger     *logger.Logger
}

// NewSentimentSource creates the sentiment leg. An empty url degrades
// every call to the index substitute.
func NewSentimentSource(client *httputil.Client, url string, timeout time.Duration, log *logger.Logger) *SentimentSource {
	return &SentimentSource{
		client:     client,
		url:        url,
		timeout:    timeout,
		substitute: true,
		logger:     log.Component("predict.sentiment"),
	}
}

// DisableFallback makes a degraded leg neutral instead of the index
// substitute (the sentiment_fallback strategy toggle)
func (s *SentimentSource) DisableFallback() *SentimentSource {
	s.substitute = false
	return s
}

func (s *SentimentSource) Kind() contracts.SourceKind {
	return contracts.SourceSentiment
}

type sentimentRequest struct {
	Symbol string `json:"symbol"`
}

type sentimentResponse struct {
	Score      float64 `json:"score"` // -1..1
	Confidence float64 `json:"confidence"`
}

func (s *SentimentSource) Predict(ctx context.Context, candidate contracts.StockCandidate, run RunContext) contracts.SourcePrediction {
	if s.url == "" {
		return s.degrade(run, contracts.FallbackModelMissing)
	}

	resp, err := s.call(ctx, candidate.Symbol)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", candidate.Symbol).Warn("Sentiment call failed, index substitute")
		return s.degrade(run, contracts.FallbackToIndexSent)
	}

	return contracts.SourcePrediction{
		Source:     contracts.SourceSentiment,
		Direction:  clampDirection(resp.Score),
		Confidence: clamp01(resp.Confidence),
	}
}

func (s *SentimentSource) call(ctx context.Context, symbol string) (*sentimentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	httpResp, err := s.client.PostJSON(ctx, s.url, sentimentRequest{Symbol: symbol})
	if err != nil {
		return nil, fmt.Errorf("sentiment service call: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sentiment service status %d", httpResp.StatusCode)
	}

	var resp sentimentResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode sentiment response: %w", err)
	}
	return &resp, nil
}

// degrade reuses the run's index sentiment for this stock. With the
// substitute disabled the leg stays populated but neutral.
func (s *SentimentSource) degrade(run RunContext, reason contracts.FallbackReason) contracts.SourcePrediction {
	if !s.substitute {
		return neutralLeg(contracts.SourceSentiment, reason)
	}

	return contracts.SourcePrediction{
		Source:     contracts.SourceSentiment,
		Direction:  clampDirection(run.Sentiment.Bias),
		Confidence: clamp01(run.Sentiment.Confidence * indexSentimentDiscount),
		Fallback:   true,
		Reason:     reason,
	}
}
