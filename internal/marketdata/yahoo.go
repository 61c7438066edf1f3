package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
)

// chartResponse mirrors the chart API JSON envelope
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// fetchChart pulls daily candles from the chart API
func (g *Gateway) fetchChart(ctx context.Context, symbol string, days int) ([]contracts.Candle, error) {
	fullURL := fmt.Sprintf(
		"%s/v8/finance/chart/%s?range=%s&interval=1d",
		g.baseURL, url.PathEscape(symbol), rangeParam(days),
	)

	var resp chartResponse
	if err := g.client.GetJSON(ctx, fullURL, &resp); err != nil {
		return nil, fmt.Errorf("chart request failed for %s: %w", symbol, err)
	}

	candles, err := parseChart(resp)
	if err != nil {
		return nil, fmt.Errorf("parse chart for %s: %w", symbol, err)
	}

	if len(candles) > days {
		candles = candles[len(candles)-days:]
	}
	return candles, nil
}

// fetchQuote reads the latest quote out of a 5-day chart request
func (g *Gateway) fetchQuote(ctx context.Context, symbol string) (contracts.Quote, error) {
	fullURL := fmt.Sprintf(
		"%s/v8/finance/chart/%s?range=5d&interval=1d",
		g.baseURL, url.PathEscape(symbol),
	)

	var resp chartResponse
	if err := g.client.GetJSON(ctx, fullURL, &resp); err != nil {
		return contracts.Quote{}, fmt.Errorf("quote request failed for %s: %w", symbol, err)
	}

	if len(resp.Chart.Result) == 0 {
		return contracts.Quote{}, fmt.Errorf("empty quote result for %s", symbol)
	}

	meta := resp.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return contracts.Quote{}, fmt.Errorf("no market price for %s", symbol)
	}

	return contracts.Quote{
		Symbol:    symbol,
		Price:     meta.RegularMarketPrice,
		PrevClose: meta.ChartPreviousClose,
		Timestamp: time.Unix(meta.RegularMarketTime, 0).UTC(),
	}, nil
}

// parseChart converts the API envelope into candles, skipping the null
// rows the API emits for halted sessions.
func parseChart(resp chartResponse) ([]contracts.Candle, error) {
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result")
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart result has no quote block")
	}
	quote := result.Indicators.Quote[0]

	candles := make([]contracts.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil || quote.Open[i] == nil {
			continue
		}
		candle := contracts.Candle{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:  *quote.Open[i],
			Close: *quote.Close[i],
		}
		if i < len(quote.High) && quote.High[i] != nil {
			candle.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			candle.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			candle.Volume = *quote.Volume[i]
		}
		candles = append(candles, candle)
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("chart result had no usable rows")
	}
	return candles, nil
}

// rangeParam maps a day count to the chart API's coarse range buckets
func rangeParam(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 186:
		return "6mo"
	case days <= 366:
		return "1y"
	default:
		return "2y"
	}
}
