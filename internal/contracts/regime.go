package contracts

import "time"

// RegimeState is a discrete market-volatility state
type RegimeState string

const (
	RegimeCalm    RegimeState = "CALM"
	RegimeNormal  RegimeState = "NORMAL"
	RegimeHighVol RegimeState = "HIGH_VOL"
	// RegimeUnknown means the assessment itself failed. Downstream scoring
	// must treat it as neutral, never as CALM.
	RegimeUnknown RegimeState = "UNKNOWN"
)

// Known reports whether the state carries information
func (s RegimeState) Known() bool {
	return s == RegimeCalm || s == RegimeNormal || s == RegimeHighVol
}

// RegimeAssessment is the market state computed once per run and shared
// read-only by every downstream stock.
// ⭐ SSOT: 레짐 평가 결과 전달
type RegimeAssessment struct {
	State         RegimeState `json:"state"`
	CrashRisk     float64     `json:"crash_risk"` // 0-100
	DailyVol      float64     `json:"daily_vol"`
	AnnualizedVol float64     `json:"annualized_vol"`
	// Probability over [CALM, NORMAL, HIGH_VOL]; zeroed when State is UNKNOWN
	StateProbs  [3]float64 `json:"state_probs"`
	ModelUsed   string     `json:"model_used"` // "gmm" or "heuristic"
	LowConfData bool       `json:"low_conf_data"`
	AssessedAt  time.Time  `json:"assessed_at"`
}

// UnknownRegime is the substitute used when regime assessment fails entirely
func UnknownRegime(at time.Time) RegimeAssessment {
	return RegimeAssessment{
		State:      RegimeUnknown,
		CrashRisk:  50, // no information, neither calm nor stressed
		AssessedAt: at,
	}
}

// IndexSentiment is the overnight futures-gap directional signal,
// computed once per run.
type IndexSentiment struct {
	Bias       float64   `json:"bias"`       // -1..1
	Confidence float64   `json:"confidence"` // 0..1
	GapPct     float64   `json:"gap_pct"`    // futures vs prior cash close
	Fallback   bool      `json:"fallback"`   // stale/missing futures data
	ObservedAt time.Time `json:"observed_at"`
}
