package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/httputil"
)

// quoteScraper is the HTML fallback for quotes the chart API cannot
// serve, mainly the SPI futures contract outside its listed hours.
type quoteScraper struct {
	client  *httputil.Client
	pageURL string // must contain %s for the symbol
}

func newQuoteScraper(client *httputil.Client, pageURL string) *quoteScraper {
	return &quoteScraper{
		client:  client,
		pageURL: pageURL,
	}
}

func (s *quoteScraper) scrape(ctx context.Context, symbol string, now time.Time) (contracts.Quote, error) {
	fullURL := fmt.Sprintf(s.pageURL, symbol)

	resp, err := s.client.Get(ctx, fullURL)
	if err != nil {
		return contracts.Quote{}, fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return contracts.Quote{}, fmt.Errorf("parse quote page: %w", err)
	}

	price, err := parseQuoteCell(doc, "[data-field=last], .quote-price, td.last")
	if err != nil {
		return contracts.Quote{}, fmt.Errorf("quote page missing last price: %w", err)
	}

	prevClose, err := parseQuoteCell(doc, "[data-field=prev-close], .quote-prev-close, td.prev-close")
	if err != nil {
		// Bias computation needs prev close; a page without it is unusable
		return contracts.Quote{}, fmt.Errorf("quote page missing prev close: %w", err)
	}

	return contracts.Quote{
		Symbol:    symbol,
		Price:     price,
		PrevClose: prevClose,
		Timestamp: now,
	}, nil
}

func parseQuoteCell(doc *goquery.Document, selector string) (float64, error) {
	text := strings.TrimSpace(doc.Find(selector).First().Text())
	if text == "" {
		return 0, fmt.Errorf("selector %q matched nothing", selector)
	}

	text = strings.ReplaceAll(text, ",", "")
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", text, err)
	}
	return value, nil
}
