package scoring

import (
	"context"
	"time"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/marketdata"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/strategy"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// BetaCalculator computes rolling OLS sensitivities against the broad
// benchmark and the commodity proxy. Betas are attribution fields on
// the report; they never feed the composite score.
type BetaCalculator struct {
	provider   marketdata.Provider
	benchmark  string
	commodity  string
	windowDays int
	logger     *logger.Logger

	benchReturns []float64
	commReturns  []float64
	benchDates   []time.Time
	commDates    []time.Time
}

// NewBetaCalculator creates the calculator; Prime must run once per
// run before Betas is called per stock.
func NewBetaCalculator(provider marketdata.Provider, cfg *strategy.Config, log *logger.Logger) *BetaCalculator {
	return &BetaCalculator{
		provider:   provider,
		benchmark:  cfg.Universe.BenchmarkIndex,
		commodity:  cfg.Universe.CommodityProxy,
		windowDays: cfg.Scoring.BetaWindowDays,
		logger:     log.Component("scoring.beta"),
	}
}

// Prime fetches the two reference series once for the whole run.
// A failed fetch leaves the corresponding beta at zero for every
// stock; the run carries on.
func (b *BetaCalculator) Prime(ctx context.Context) error {
	bench, err := b.provider.History(ctx, b.benchmark, b.windowDays+1)
	if err != nil {
		b.logger.WithError(err).Warn("Benchmark series unavailable, benchmark betas zeroed")
	} else {
		b.benchDates, b.benchReturns = datedReturns(bench)
	}

	comm, err := b.provider.History(ctx, b.commodity, b.windowDays+1)
	if err != nil {
		b.logger.WithError(err).Warn("Commodity series unavailable, commodity betas zeroed")
	} else {
		b.commDates, b.commReturns = datedReturns(comm)
	}

	if b.benchReturns == nil && b.commReturns == nil {
		return err
	}
	return nil
}

// Betas computes both sensitivities for one candidate from its scan
// history, aligned to the reference series by date
func (b *BetaCalculator) Betas(candidate contracts.StockCandidate) contracts.Betas {
	dates, returns := datedReturns(candidate.History)
	if len(returns) > b.windowDays {
		dates = dates[len(dates)-b.windowDays:]
		returns = returns[len(returns)-b.windowDays:]
	}

	return contracts.Betas{
		Benchmark: olsBeta(dates, returns, b.benchDates, b.benchReturns),
		Commodity: olsBeta(dates, returns, b.commDates, b.commReturns),
	}
}

// datedReturns converts candles to day-stamped close-to-close returns
func datedReturns(candles []contracts.Candle) ([]time.Time, []float64) {
	if len(candles) < 2 {
		return nil, nil
	}
	dates := make([]time.Time, 0, len(candles)-1)
	returns := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			continue
		}
		dates = append(dates, candles[i].Date.Truncate(24*time.Hour))
		returns = append(returns, candles[i].Close/prev-1)
	}
	return dates, returns
}

// olsBeta is cov(stock, ref) / var(ref) over the date-aligned overlap.
// Returns 0 when the overlap is too thin or the reference is flat.
func olsBeta(stockDates []time.Time, stockReturns []float64, refDates []time.Time, refReturns []float64) float64 {
	if len(refReturns) == 0 || len(stockReturns) == 0 {
		return 0
	}

	refByDate := make(map[time.Time]float64, len(refReturns))
	for i, d := range refDates {
		refByDate[d] = refReturns[i]
	}

	var xs, ys []float64
	for i, d := range stockDates {
		if r, ok := refByDate[d]; ok {
			xs = append(xs, r)
			ys = append(ys, stockReturns[i])
		}
	}

	const minOverlap = 20
	if len(xs) < minOverlap {
		return 0
	}

	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(len(xs))
	meanY /= float64(len(ys))

	var cov, varX float64
	for i := range xs {
		dx := xs[i] - meanX
		cov += dx * (ys[i] - meanY)
		varX += dx * dx
	}
	if varX == 0 {
		return 0
	}
	return cov / varX
}
