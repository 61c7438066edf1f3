package strategy

import "time"

// Config는 야간 스크리닝 전략의 전체 설정
// Loaded once at startup, validated fail-fast, read-only afterwards.
type Config struct {
	Meta        Meta        `json:"meta" yaml:"meta"`
	Universe    Universe    `json:"universe" yaml:"universe"`
	Eligibility Eligibility `json:"eligibility" yaml:"eligibility"`
	Volatility  Volatility  `json:"volatility" yaml:"volatility"`
	Regime      Regime      `json:"regime" yaml:"regime"`
	Sentiment   Sentiment   `json:"sentiment" yaml:"sentiment"`
	Ensemble    Ensemble    `json:"ensemble" yaml:"ensemble"`
	Scoring     Scoring     `json:"scoring" yaml:"scoring"`
	Pipeline    Pipeline    `json:"pipeline" yaml:"pipeline"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `json:"strategy_id" yaml:"strategy_id"`
	Version    string `json:"version" yaml:"version"`
	Timezone   string `json:"timezone" yaml:"timezone"`
}

// Universe points at the sector → symbols file and its proxies
type Universe struct {
	File           string `json:"file" yaml:"file"`
	BenchmarkIndex string `json:"benchmark_index" yaml:"benchmark_index"` // e.g. ^AXJO
	CommodityProxy string `json:"commodity_proxy" yaml:"commodity_proxy"` // e.g. ^AXMM materials
	FuturesSymbol  string `json:"futures_symbol" yaml:"futures_symbol"`   // SPI 200 proxy
}

// Eligibility are the scanner's inclusion filters
type Eligibility struct {
	MinPrice         float64 `json:"min_price" yaml:"min_price"`
	MaxPrice         float64 `json:"max_price" yaml:"max_price"`
	MinAvgVolume     float64 `json:"min_avg_volume" yaml:"min_avg_volume"`
	MinDollarVolume  float64 `json:"min_dollar_volume" yaml:"min_dollar_volume"` // price*volume market-cap proxy
	MaxAnnualizedVol float64 `json:"max_annualized_vol" yaml:"max_annualized_vol"`
	MinAnnualizedVol float64 `json:"min_annualized_vol" yaml:"min_annualized_vol"`
	MinHistoryDays   int     `json:"min_history_days" yaml:"min_history_days"`
	HistoryDays      int     `json:"history_days" yaml:"history_days"`
}

// Volatility configures the forward-vol estimator
type Volatility struct {
	EWMALambda      float64 `json:"ewma_lambda" yaml:"ewma_lambda"`           // default 0.94
	MinObservations int     `json:"min_observations" yaml:"min_observations"` // below this, conservative default
	DefaultDailyVol float64 `json:"default_daily_vol" yaml:"default_daily_vol"`
	GARCHEnabled    bool    `json:"garch_enabled" yaml:"garch_enabled"`
}

// Regime configures the regime detector and its heuristic fallback
type Regime struct {
	WindowDays        int     `json:"window_days" yaml:"window_days"` // trailing feature window
	MinObservations   int     `json:"min_observations" yaml:"min_observations"`
	HighVolMultiplier float64 `json:"high_vol_multiplier" yaml:"high_vol_multiplier"` // vs trailing median vol
	CalmVolMultiplier float64 `json:"calm_vol_multiplier" yaml:"calm_vol_multiplier"`
	DrawdownHighVol   float64 `json:"drawdown_high_vol" yaml:"drawdown_high_vol"` // drawdown tripping HIGH_VOL
}

// Sentiment configures the futures-gap monitor
type Sentiment struct {
	MaxGapPct     float64 `json:"max_gap_pct" yaml:"max_gap_pct"` // bias clamps at ±this
	StaleAfterMin int     `json:"stale_after_min" yaml:"stale_after_min"`
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"` // fallback floor, never zero
}

// StaleAfter returns the staleness cutoff as a duration
func (s Sentiment) StaleAfter() time.Duration {
	return time.Duration(s.StaleAfterMin) * time.Minute
}

// Ensemble configures the four-leg predictor
type Ensemble struct {
	Weights           EnsembleWeights `json:"weights" yaml:"weights"`
	LSTMServiceURL    string          `json:"lstm_service_url" yaml:"lstm_service_url"`
	SentimentURL      string          `json:"sentiment_service_url" yaml:"sentiment_service_url"`
	ModelTimeoutSec   int             `json:"model_timeout_sec" yaml:"model_timeout_sec"` // per-symbol call budget
	TrendDays         int             `json:"trend_days" yaml:"trend_days"`
	LSTMFallback      bool            `json:"lstm_fallback" yaml:"lstm_fallback"`           // fall back to trend
	SentimentFallback bool            `json:"sentiment_fallback" yaml:"sentiment_fallback"` // fall back to index gap
}

// ModelTimeout returns the per-symbol model call budget
func (e Ensemble) ModelTimeout() time.Duration {
	return time.Duration(e.ModelTimeoutSec) * time.Second
}

// EnsembleWeights must sum to 1.0; never silently renormalized
type EnsembleWeights struct {
	LSTM      float64 `json:"lstm" yaml:"lstm"`
	Trend     float64 `json:"trend" yaml:"trend"`
	Technical float64 `json:"technical" yaml:"technical"`
	Sentiment float64 `json:"sentiment" yaml:"sentiment"`
}

// Sum returns the weight total
func (w EnsembleWeights) Sum() float64 {
	return w.LSTM + w.Trend + w.Technical + w.Sentiment
}

// Scoring configures the opportunity scorer
type Scoring struct {
	Weights          FactorWeights `json:"weights" yaml:"weights"`
	BuyThreshold     float64       `json:"buy_threshold" yaml:"buy_threshold"`           // >= is BUY
	SellThreshold    float64       `json:"sell_threshold" yaml:"sell_threshold"`         // < is SELL
	HighVolDampening float64       `json:"high_vol_dampening" yaml:"high_vol_dampening"` // multiplier in HIGH_VOL
	EventRiskPenalty float64       `json:"event_risk_penalty" yaml:"event_risk_penalty"` // additive, bounded
	BetaWindowDays   int           `json:"beta_window_days" yaml:"beta_window_days"`
}

// FactorWeights must sum to 1.0; never silently renormalized
type FactorWeights struct {
	Prediction     float64 `json:"prediction" yaml:"prediction"`
	Technical      float64 `json:"technical" yaml:"technical"`
	Sentiment      float64 `json:"sentiment" yaml:"sentiment"`
	Liquidity      float64 `json:"liquidity" yaml:"liquidity"`
	Volatility     float64 `json:"volatility" yaml:"volatility"`
	SectorMomentum float64 `json:"sector_momentum" yaml:"sector_momentum"`
}

// Sum returns the weight total
func (w FactorWeights) Sum() float64 {
	return w.Prediction + w.Technical + w.Sentiment + w.Liquidity + w.Volatility + w.SectorMomentum
}

// Pipeline configures batching and concurrency
type Pipeline struct {
	ChunkSize          int `json:"chunk_size" yaml:"chunk_size"` // symbols per batch
	Workers            int `json:"workers" yaml:"workers"`
	MaxStocksPerSector int `json:"max_stocks_per_sector" yaml:"max_stocks_per_sector"` // test mode cap
}

// Default returns the shipped configuration, used as the documentation
// of reasonable values and by tests.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "asx_overnight_v1",
			Version:    "1.0.0",
			Timezone:   "Australia/Sydney",
		},
		Universe: Universe{
			File:           "config/universe.json",
			BenchmarkIndex: "^AXJO",
			CommodityProxy: "^AXMM",
			FuturesSymbol:  "YAP=F",
		},
		Eligibility: Eligibility{
			MinPrice:         0.50,
			MaxPrice:         500,
			MinAvgVolume:     100_000,
			MinDollarVolume:  500_000,
			MaxAnnualizedVol: 1.20,
			MinAnnualizedVol: 0.05,
			MinHistoryDays:   60,
			HistoryDays:      180,
		},
		Volatility: Volatility{
			EWMALambda:      0.94,
			MinObservations: 10,
			DefaultDailyVol: 0.015,
			GARCHEnabled:    true,
		},
		Regime: Regime{
			WindowDays:        126,
			MinObservations:   60,
			HighVolMultiplier: 1.5,
			CalmVolMultiplier: 0.7,
			DrawdownHighVol:   0.10,
		},
		Sentiment: Sentiment{
			MaxGapPct:     0.02,
			StaleAfterMin: 720,
			MinConfidence: 0.10,
		},
		Ensemble: Ensemble{
			Weights: EnsembleWeights{
				LSTM:      0.45,
				Trend:     0.25,
				Technical: 0.15,
				Sentiment: 0.15,
			},
			ModelTimeoutSec:   20,
			TrendDays:         5,
			LSTMFallback:      true,
			SentimentFallback: true,
		},
		Scoring: Scoring{
			Weights: FactorWeights{
				Prediction:     0.35,
				Technical:      0.20,
				Sentiment:      0.10,
				Liquidity:      0.10,
				Volatility:     0.15,
				SectorMomentum: 0.10,
			},
			BuyThreshold:     70,
			SellThreshold:    40,
			HighVolDampening: 0.85,
			EventRiskPenalty: 10,
			BetaWindowDays:   60,
		},
		Pipeline: Pipeline{
			ChunkSize: 10,
			Workers:   4,
		},
	}
}
