package contracts

import "time"

// Candle is one day of OHLCV history for a symbol
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Quote is the most recent trade/settlement for a symbol
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	PrevClose float64   `json:"prev_close"`
	Timestamp time.Time `json:"timestamp"`
}

// Age returns how stale the quote is relative to now
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.Timestamp)
}

// Returns converts a candle series (oldest first) to daily close-to-close returns
func Returns(candles []Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, candles[i].Close/prev-1)
	}
	return returns
}
