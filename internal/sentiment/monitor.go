package sentiment

import (
	"context"
	"math"
	"time"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/marketdata"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/strategy"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// Monitor derives the overnight directional bias from the gap between
// the index futures price and the prior cash-index close.
// ⭐ SSOT: 야간 선물 갭 센티먼트는 여기서만 계산
type Monitor struct {
	provider marketdata.Provider
	futures  string
	cash     string
	cfg      strategy.Sentiment
	logger   *logger.Logger
	now      func() time.Time
}

// NewMonitor creates the futures-gap monitor
func NewMonitor(provider marketdata.Provider, cfg *strategy.Config, log *logger.Logger) *Monitor {
	return &Monitor{
		provider: provider,
		futures:  cfg.Universe.FuturesSymbol,
		cash:     cfg.Universe.BenchmarkIndex,
		cfg:      cfg.Sentiment,
		logger:   log.Component("sentiment.monitor"),
		now:      time.Now,
	}
}

// Observe computes the run's index sentiment. It never returns an
// error: when futures data is missing or stale the result carries a
// neutral bias with Fallback set, so downstream consumers can see the
// degradation instead of a fabricated signal.
func (m *Monitor) Observe(ctx context.Context) contracts.IndexSentiment {
	now := m.now()

	futures, err := m.provider.Quote(ctx, m.futures)
	if err != nil {
		m.logger.WithError(err).Warn("Futures quote unavailable, neutral sentiment fallback")
		return m.fallback(now)
	}
	if age := futures.Age(now); age > m.cfg.StaleAfter() {
		m.logger.WithFields(map[string]interface{}{
			"symbol": m.futures,
			"age":    age.String(),
		}).Warn("Futures quote stale, neutral sentiment fallback")
		return m.fallback(now)
	}

	cash, err := m.provider.Quote(ctx, m.cash)
	if err != nil || cash.PrevClose <= 0 {
		m.logger.WithError(err).Warn("Cash index close unavailable, neutral sentiment fallback")
		return m.fallback(now)
	}

	gap := futures.Price/cash.PrevClose - 1

	// Bias scales linearly inside ±MaxGapPct and saturates outside it
	bias := gap / m.cfg.MaxGapPct
	if bias > 1 {
		bias = 1
	} else if bias < -1 {
		bias = -1
	}

	// Fresh data is trusted more; confidence decays toward the floor
	// as the quote ages toward the staleness cutoff. A more extreme
	// gap is a stronger statement than a flat one, so magnitude scales
	// confidence between half weight and full weight.
	freshness := 1 - futures.Age(now).Seconds()/m.cfg.StaleAfter().Seconds()
	strength := 0.5 + 0.5*math.Abs(bias)
	confidence := math.Max(m.cfg.MinConfidence, freshness*strength)

	result := contracts.IndexSentiment{
		Bias:       bias,
		Confidence: confidence,
		GapPct:     gap,
		Fallback:   false,
		ObservedAt: now,
	}

	m.logger.WithFields(map[string]interface{}{
		"gap_pct":    gap,
		"bias":       bias,
		"confidence": confidence,
	}).Info("Index sentiment observed")

	return result
}

func (m *Monitor) fallback(now time.Time) contracts.IndexSentiment {
	return contracts.IndexSentiment{
		Bias:       0,
		Confidence: m.cfg.MinConfidence,
		GapPct:     0,
		Fallback:   true,
		ObservedAt: now,
	}
}
