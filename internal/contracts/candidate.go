package contracts

import "time"

// StockCandidate is a symbol that passed eligibility filters during scanning.
// ⭐ SSOT: 스캔 → 예측/스코어링 전달 데이터
// Built once per run and read-only afterwards.
type StockCandidate struct {
	Symbol  string   `json:"symbol"`
	Sector  string   `json:"sector"`
	History []Candle `json:"history"` // oldest first

	Indicators Indicators `json:"indicators"`

	ScannedAt time.Time `json:"scanned_at"`
}

// Indicators holds the technical indicators computed during scanning
type Indicators struct {
	RSI14         float64 `json:"rsi_14"`
	SMA20         float64 `json:"sma_20"`
	SMA50         float64 `json:"sma_50"`
	EMA12         float64 `json:"ema_12"`
	EMA26         float64 `json:"ema_26"`
	MACD          float64 `json:"macd"`
	MACDSignal    float64 `json:"macd_signal"`
	BollingerUp   float64 `json:"bollinger_up"`
	BollingerMid  float64 `json:"bollinger_mid"`
	BollingerLow  float64 `json:"bollinger_low"`
	Volatility20D float64 `json:"volatility_20d"` // annualized
	AvgVolume20D  float64 `json:"avg_volume_20d"`
	VolumeRatio   float64 `json:"volume_ratio"` // last volume / 20d average
	Momentum10D   float64 `json:"momentum_10d"` // 10-day return
	LastClose     float64 `json:"last_close"`
}

// ExclusionReason explains why a scanned symbol was dropped from the run
type ExclusionReason string

const (
	ExcludedPriceRange ExclusionReason = "PRICE_OUT_OF_RANGE"
	ExcludedLiquidity  ExclusionReason = "INSUFFICIENT_LIQUIDITY"
	ExcludedVolatility ExclusionReason = "VOLATILITY_OUT_OF_BOUNDS"
	ExcludedHistory    ExclusionReason = "INSUFFICIENT_HISTORY"
	ExcludedFetchError ExclusionReason = "FETCH_ERROR"
)
