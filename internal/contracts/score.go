package contracts

// Signal is the trade suggestion derived from the composite score
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalHold Signal = "HOLD"
	SignalSell Signal = "SELL"
)

// FactorScores are the individually normalized sub-scores, each 0-100
type FactorScores struct {
	Prediction     float64 `json:"prediction"`
	Technical      float64 `json:"technical"`
	Sentiment      float64 `json:"sentiment"` // index-gap alignment
	Liquidity      float64 `json:"liquidity"`
	Volatility     float64 `json:"volatility"` // inverse: low vol scores high
	SectorMomentum float64 `json:"sector_momentum"`
}

// Betas are rolling OLS sensitivities, attribution only (not score inputs)
type Betas struct {
	Benchmark float64 `json:"benchmark"` // vs broad cash index
	Commodity float64 `json:"commodity"` // vs materials/commodity proxy
}

// OpportunityScore is the final per-stock ranking entry
type OpportunityScore struct {
	Symbol    string       `json:"symbol"`
	Sector    string       `json:"sector"`
	Composite float64      `json:"composite"` // 0-100 after clamping
	Factors   FactorScores `json:"factors"`
	Betas     Betas        `json:"betas"`
	Signal    Signal       `json:"signal"`

	// Degraded marks scores built on a fallback-heavy prediction so report
	// consumers can tell real conviction from best-effort output
	Degraded bool `json:"degraded"`
}

// SectorSummary aggregates member scores once the whole run is scored
type SectorSummary struct {
	Sector       string  `json:"sector"`
	StockCount   int     `json:"stock_count"`
	AvgComposite float64 `json:"avg_composite"`
	AvgBenchBeta float64 `json:"avg_bench_beta"`
	AvgCommBeta  float64 `json:"avg_comm_beta"`
}
