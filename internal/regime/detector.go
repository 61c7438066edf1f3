package regime

import (
	"math"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/strategy"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// Detector classifies the market state from feature history
// ⭐ SSOT: 레짐 분류는 여기서만
type Detector struct {
	cfg    strategy.Regime
	logger *logger.Logger
}

// Classification is the detector's output, before volatility metrics
// are merged in by the engine
type Classification struct {
	State      contracts.RegimeState
	StateProbs [3]float64 // [CALM, NORMAL, HIGH_VOL]
	ModelUsed  string     // "gmm" or "heuristic"
}

// NewDetector creates a detector from strategy config
func NewDetector(cfg strategy.Regime, log *logger.Logger) *Detector {
	return &Detector{
		cfg:    cfg,
		logger: log.Component("regime.detector"),
	}
}

// Classify maps a benchmark candle history (oldest first) to a market
// state. Deterministic: identical input always yields the identical
// state and probabilities. Returns the heuristic result when the
// mixture model cannot be fitted.
func (d *Detector) Classify(candles []contracts.Candle) Classification {
	features := buildFeatures(candles)

	if len(features) >= d.cfg.MinObservations {
		if model, ok := fitGMM(features); ok {
			latest := features[len(features)-1]
			probs := model.posterior(latest)
			state := stateFromProbs(probs)

			d.logger.WithFields(map[string]interface{}{
				"state":  state,
				"p_calm": probs[0],
				"p_high": probs[2],
			}).Debug("GMM regime classification")

			return Classification{
				State:      state,
				StateProbs: probs,
				ModelUsed:  "gmm",
			}
		}
		d.logger.Debug("GMM fit failed, using heuristic thresholds")
	}

	return d.heuristic(features)
}

// heuristic is the rule-based fallback on realized volatility and
// drawdown, used when the statistical model is unavailable
func (d *Detector) heuristic(features []feature) Classification {
	if len(features) == 0 {
		// No features at all: the caller decides whether this is
		// UNKNOWN (fetch failed) or default NORMAL (thin history)
		return Classification{
			State:      contracts.RegimeNormal,
			StateProbs: [3]float64{0.2, 0.6, 0.2},
			ModelUsed:  "heuristic",
		}
	}

	latest := features[len(features)-1]
	med := medianVol(features)

	var state contracts.RegimeState
	var probs [3]float64

	switch {
	case med > 0 && latest.Volatility > d.cfg.HighVolMultiplier*med,
		latest.Drawdown > d.cfg.DrawdownHighVol:
		state = contracts.RegimeHighVol
		probs = [3]float64{0.05, 0.15, 0.80}
	case med > 0 && latest.Volatility < d.cfg.CalmVolMultiplier*med && latest.Drawdown < d.cfg.DrawdownHighVol/2:
		state = contracts.RegimeCalm
		probs = [3]float64{0.80, 0.15, 0.05}
	default:
		state = contracts.RegimeNormal
		probs = [3]float64{0.15, 0.70, 0.15}
	}

	return Classification{
		State:      state,
		StateProbs: probs,
		ModelUsed:  "heuristic",
	}
}

// stateFromProbs picks the maximum-posterior state
func stateFromProbs(probs [3]float64) contracts.RegimeState {
	best := 0
	for k := 1; k < len(probs); k++ {
		if probs[k] > probs[best] {
			best = k
		}
	}
	switch best {
	case 0:
		return contracts.RegimeCalm
	case 2:
		return contracts.RegimeHighVol
	default:
		return contracts.RegimeNormal
	}
}

// crashRisk maps HIGH_VOL probability mass and the volatility level to
// a 0-100 score, monotonic in both inputs
func crashRisk(pHighVol, annualizedVol float64) float64 {
	// 40% annualized is treated as full stress for the vol leg
	volLeg := annualizedVol / 0.40
	if volLeg > 1 {
		volLeg = 1
	}
	score := 100 * (0.65*pHighVol + 0.35*volLeg)
	return math.Min(100, math.Max(0, score))
}
