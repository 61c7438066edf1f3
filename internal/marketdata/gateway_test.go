package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/config"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/httputil"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/redis"
)

const chartBody = `{
	"chart": {
		"result": [{
			"meta": {"symbol": "BHP.AX", "regularMarketPrice": 45.10, "chartPreviousClose": 44.80, "regularMarketTime": 1756368000},
			"timestamp": [1756108800, 1756195200, 1756281600],
			"indicators": {"quote": [{
				"open": [44.0, 44.5, null],
				"high": [44.8, 45.2, 45.4],
				"low": [43.9, 44.3, 44.9],
				"close": [44.5, 45.0, 45.1],
				"volume": [1000000, 1200000, 900000]
			}]}
		}],
		"error": null
	}
}`

func testGateway(t *testing.T, handler http.Handler) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Env: "development",
		Yahoo: config.YahooConfig{
			BaseURL: server.URL,
			Timeout: 5 * time.Second,
		},
		Redis: config.RedisConfig{Enabled: false},
	}

	rdb, err := redis.New(cfg)
	require.NoError(t, err)

	log := logger.NewNop()
	client := httputil.New(log, cfg.Yahoo.Timeout).DisableRetry()

	return New(cfg, client, redis.NewCache(rdb, "screener"), log)
}

func TestGateway_History(t *testing.T) {
	g := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v8/finance/chart/BHP.AX")
		fmt.Fprint(w, chartBody)
	}))

	candles, err := g.History(context.Background(), "BHP.AX", 90)
	require.NoError(t, err)

	// Third row has a null open and is skipped
	require.Len(t, candles, 2)
	assert.InDelta(t, 44.5, candles[0].Close, 1e-9)
	assert.InDelta(t, 45.0, candles[1].Close, 1e-9)
	assert.Equal(t, int64(1200000), candles[1].Volume)
	assert.True(t, candles[0].Date.Before(candles[1].Date), "candles must be oldest first")
}

func TestGateway_Quote(t *testing.T) {
	g := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody)
	}))

	quote, err := g.Quote(context.Background(), "BHP.AX")
	require.NoError(t, err)
	assert.InDelta(t, 45.10, quote.Price, 1e-9)
	assert.InDelta(t, 44.80, quote.PrevClose, 1e-9)
}

func TestGateway_HistoryAPIError(t *testing.T) {
	g := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": [], "error": {"code": "Not Found", "description": "No data found"}}}`)
	}))

	_, err := g.History(context.Background(), "NOPE.AX", 90)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestGateway_HistoryHTTPFailure(t *testing.T) {
	g := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := g.History(context.Background(), "BHP.AX", 90)
	require.Error(t, err)
}

func TestRangeParam(t *testing.T) {
	assert.Equal(t, "5d", rangeParam(5))
	assert.Equal(t, "3mo", rangeParam(60))
	assert.Equal(t, "6mo", rangeParam(180))
	assert.Equal(t, "1y", rangeParam(252))
	assert.Equal(t, "2y", rangeParam(500))
}
