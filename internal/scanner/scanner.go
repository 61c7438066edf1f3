package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/marketdata"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/strategy"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// Scanner builds the run's candidate list from the configured universe.
// ⭐ SSOT: 유니버스 → 후보 종목 필터링은 여기서만
type Scanner struct {
	provider    marketdata.Provider
	eligibility strategy.Eligibility
	chunkSize   int
	workers     int
	limiter     *rate.Limiter
	logger      *logger.Logger
	now         func() time.Time
}

// Result is the scan phase output: surviving candidates plus an audit
// trail of everything that was dropped and why.
type Result struct {
	Candidates []contracts.StockCandidate
	Excluded   map[string]contracts.ExclusionReason
	Scanned    int
}

// NewScanner creates a scanner with an in-process request limiter.
// The limiter smooths fetch bursts below the provider's ceiling; the
// Redis sliding window at the HTTP layer remains the hard cap.
func NewScanner(provider marketdata.Provider, cfg *strategy.Config, log *logger.Logger) *Scanner {
	return &Scanner{
		provider:    provider,
		eligibility: cfg.Eligibility,
		chunkSize:   cfg.Pipeline.ChunkSize,
		workers:     cfg.Pipeline.Workers,
		limiter:     rate.NewLimiter(rate.Limit(4), 4),
		logger:      log.Component("scanner"),
		now:         time.Now,
	}
}

// Scan fetches history for every universe symbol in fixed-size chunks
// and applies the eligibility filters. A failed or ineligible symbol
// never aborts the scan; it is recorded and the scan moves on.
// Cancellation is honored between chunks, so an interrupted run stops
// at a chunk boundary with the completed chunks intact.
func (s *Scanner) Scan(ctx context.Context, universe *contracts.Universe) (*Result, error) {
	symbols := universe.Symbols()

	result := &Result{
		Candidates: make([]contracts.StockCandidate, 0, len(symbols)),
		Excluded:   make(map[string]contracts.ExclusionReason),
		Scanned:    len(symbols),
	}

	s.logger.WithFields(map[string]interface{}{
		"symbols":    len(symbols),
		"chunk_size": s.chunkSize,
		"workers":    s.workers,
	}).Info("Stock scan started")

	for start := 0; start < len(symbols); start += s.chunkSize {
		if err := ctx.Err(); err != nil {
			s.logger.WithField("completed", start).Warn("Scan cancelled at chunk boundary")
			return result, err
		}

		end := start + s.chunkSize
		if end > len(symbols) {
			end = len(symbols)
		}
		s.scanChunk(ctx, universe, symbols[start:end], result)
	}

	// Map iteration above is per-chunk; sort for a stable run artifact
	sort.Slice(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].Symbol < result.Candidates[j].Symbol
	})

	s.logger.WithFields(map[string]interface{}{
		"candidates": len(result.Candidates),
		"excluded":   len(result.Excluded),
	}).Info("Stock scan finished")

	return result, nil
}

type scanOutcome struct {
	candidate *contracts.StockCandidate
	symbol    string
	reason    contracts.ExclusionReason
}

// scanChunk fans a chunk's symbols out over the worker pool and folds
// the outcomes back into the shared result
func (s *Scanner) scanChunk(ctx context.Context, universe *contracts.Universe, symbols []string, result *Result) {
	jobs := make(chan string)
	outcomes := make(chan scanOutcome, len(symbols))

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				outcomes <- s.scanSymbol(ctx, symbol, universe.SectorOf(symbol))
			}
		}()
	}

	for _, symbol := range symbols {
		jobs <- symbol
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	for o := range outcomes {
		if o.candidate != nil {
			result.Candidates = append(result.Candidates, *o.candidate)
			continue
		}
		result.Excluded[o.symbol] = o.reason
	}
}

// scanSymbol fetches one symbol's history and filters it. All failure
// modes degrade to an exclusion reason.
func (s *Scanner) scanSymbol(ctx context.Context, symbol, sector string) scanOutcome {
	if err := s.limiter.Wait(ctx); err != nil {
		return scanOutcome{symbol: symbol, reason: contracts.ExcludedFetchError}
	}

	candles, err := s.provider.History(ctx, symbol, s.eligibility.HistoryDays)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Warn("History fetch failed, symbol excluded")
		return scanOutcome{symbol: symbol, reason: contracts.ExcludedFetchError}
	}

	if len(candles) < s.eligibility.MinHistoryDays {
		s.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"days":   len(candles),
		}).Debug("Insufficient history, symbol excluded")
		return scanOutcome{symbol: symbol, reason: contracts.ExcludedHistory}
	}

	indicators := computeIndicators(candles)

	if reason, ok := s.checkEligibility(indicators); !ok {
		s.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"reason": string(reason),
		}).Debug("Symbol excluded")
		return scanOutcome{symbol: symbol, reason: reason}
	}

	return scanOutcome{candidate: &contracts.StockCandidate{
		Symbol:     symbol,
		Sector:     sector,
		History:    candles,
		Indicators: indicators,
		ScannedAt:  s.now(),
	}}
}

// checkEligibility applies the inclusion filters in priority order
func (s *Scanner) checkEligibility(ind contracts.Indicators) (contracts.ExclusionReason, bool) {
	e := s.eligibility

	if ind.LastClose < e.MinPrice || ind.LastClose > e.MaxPrice {
		return contracts.ExcludedPriceRange, false
	}

	dollarVolume := ind.LastClose * ind.AvgVolume20D
	if ind.AvgVolume20D < e.MinAvgVolume || dollarVolume < e.MinDollarVolume {
		return contracts.ExcludedLiquidity, false
	}

	if ind.Volatility20D < e.MinAnnualizedVol || ind.Volatility20D > e.MaxAnnualizedVol {
		return contracts.ExcludedVolatility, false
	}

	return "", true
}
