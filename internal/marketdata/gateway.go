package marketdata

import (
	"context"
	"time"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/config"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/httputil"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/redis"
)

// Provider is the narrow market-data interface consumed by every
// downstream component. The pipeline only ever needs daily history and
// the latest quote.
type Provider interface {
	History(ctx context.Context, symbol string, days int) ([]contracts.Candle, error)
	Quote(ctx context.Context, symbol string) (contracts.Quote, error)
}

// Gateway fetches OHLCV data with caching and retry
// ⭐ SSOT: 시세 데이터 조회는 이 게이트웨이를 통해서만
type Gateway struct {
	client  *httputil.Client
	cache   *redis.Cache
	baseURL string
	scraper *quoteScraper
	logger  *logger.Logger
	now     func() time.Time
}

var _ Provider = (*Gateway)(nil)

// New creates a gateway wired to the configured chart API
func New(cfg *config.Config, client *httputil.Client, cache *redis.Cache, log *logger.Logger) *Gateway {
	g := &Gateway{
		client:  client,
		cache:   cache,
		baseURL: cfg.Yahoo.BaseURL,
		logger:  log.Component("marketdata.gateway"),
		now:     time.Now,
	}
	if cfg.ASX.QuotePageURL != "" {
		g.scraper = newQuoteScraper(client, cfg.ASX.QuotePageURL)
	}
	return g
}

// History returns the last `days` daily candles for a symbol, oldest first
func (g *Gateway) History(ctx context.Context, symbol string, days int) ([]contracts.Candle, error) {
	cacheKey := redis.HistoryKey(symbol, days)

	var cached []contracts.Candle
	if found, err := g.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return cached, nil
	}

	candles, err := g.fetchChart(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	if err := g.cache.Set(ctx, cacheKey, candles, redis.TTLHistory); err != nil {
		g.logger.WithError(err).WithField("symbol", symbol).Warn("history cache write failed")
	}

	g.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"days":   days,
		"count":  len(candles),
	}).Debug("Fetched history")

	return candles, nil
}

// Quote returns the latest quote for a symbol, falling back to the HTML
// scrape source when the chart API cannot serve it.
func (g *Gateway) Quote(ctx context.Context, symbol string) (contracts.Quote, error) {
	cacheKey := redis.QuoteKey(symbol)

	var cached contracts.Quote
	if found, err := g.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return cached, nil
	}

	quote, err := g.fetchQuote(ctx, symbol)
	if err != nil && g.scraper != nil {
		g.logger.WithError(err).WithField("symbol", symbol).Warn("quote API failed, trying scrape fallback")
		quote, err = g.scraper.scrape(ctx, symbol, g.now())
	}
	if err != nil {
		return contracts.Quote{}, err
	}

	if err := g.cache.Set(ctx, cacheKey, quote, redis.TTLQuote); err != nil {
		g.logger.WithError(err).WithField("symbol", symbol).Warn("quote cache write failed")
	}

	return quote, nil
}
