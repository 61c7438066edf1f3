package scoring

import (
	"math"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/strategy"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// Scorer maps a candidate's prediction, indicators and the run's
// shared signals into the 0-100 composite.
// ⭐ SSOT: 기회 점수 산출은 여기서만
type Scorer struct {
	cfg    strategy.Scoring
	logger *logger.Logger
}

// Inputs bundles the run-level read-only signals the scorer consumes
type Inputs struct {
	Regime         contracts.RegimeAssessment
	Sentiment      contracts.IndexSentiment
	SectorMomentum map[string]float64 // sector → avg 10d momentum
	EventRisk      map[string]string  // symbol → event label
}

// NewScorer creates a scorer from strategy config. The config must
// have passed Validate(); weights are applied as-is.
func NewScorer(cfg strategy.Scoring, log *logger.Logger) *Scorer {
	return &Scorer{
		cfg:    cfg,
		logger: log.Component("scoring"),
	}
}

// Score computes one candidate's opportunity score. Deterministic:
// identical inputs always produce the identical score.
func (s *Scorer) Score(
	candidate contracts.StockCandidate,
	prediction contracts.PredictionResult,
	betas contracts.Betas,
	in Inputs,
) contracts.OpportunityScore {
	factors := contracts.FactorScores{
		Prediction:     directionScore(prediction.Direction, prediction.Confidence),
		Technical:      s.technicalScore(candidate.Indicators),
		Sentiment:      sentimentScore(prediction, in.Sentiment),
		Liquidity:      s.liquidityScore(candidate.Indicators),
		Volatility:     s.volatilityScore(candidate.Indicators.Volatility20D),
		SectorMomentum: sectorMomentumScore(in.SectorMomentum[candidate.Sector]),
	}

	w := s.cfg.Weights
	composite := w.Prediction*factors.Prediction +
		w.Technical*factors.Technical +
		w.Sentiment*factors.Sentiment +
		w.Liquidity*factors.Liquidity +
		w.Volatility*factors.Volatility +
		w.SectorMomentum*factors.SectorMomentum

	// Regime dampening: HIGH_VOL shrinks conviction, UNKNOWN stays
	// neutral so a failed regime fetch never masquerades as CALM
	if in.Regime.State == contracts.RegimeHighVol {
		composite *= s.cfg.HighVolDampening
	}

	if label, ok := in.EventRisk[candidate.Symbol]; ok {
		composite -= s.cfg.EventRiskPenalty
		s.logger.WithFields(map[string]interface{}{
			"symbol": candidate.Symbol,
			"event":  label,
		}).Debug("Event risk penalty applied")
	}

	composite = clampScore(composite)

	return contracts.OpportunityScore{
		Symbol:    candidate.Symbol,
		Sector:    candidate.Sector,
		Composite: composite,
		Factors:   factors,
		Betas:     betas,
		Signal:    s.signal(composite),
		Degraded:  prediction.Degraded(),
	}
}

// signal applies the threshold bands to the post-adjustment composite
func (s *Scorer) signal(composite float64) contracts.Signal {
	switch {
	case composite >= s.cfg.BuyThreshold:
		return contracts.SignalBuy
	case composite < s.cfg.SellThreshold:
		return contracts.SignalSell
	default:
		return contracts.SignalHold
	}
}

// directionScore maps a signed direction weighted by confidence onto
// 0-100, neutral at 50
func directionScore(direction, confidence float64) float64 {
	return clampScore(50 + 50*direction*confidence)
}

// technicalScore reads trend alignment off the scan-time indicators
func (s *Scorer) technicalScore(ind contracts.Indicators) float64 {
	if ind.LastClose == 0 {
		return 50
	}

	score := 50.0

	// Moving-average alignment
	if ind.SMA20 > ind.SMA50 {
		score += 10
	} else if ind.SMA20 < ind.SMA50 {
		score -= 10
	}
	if ind.LastClose > ind.SMA20 {
		score += 10
	} else {
		score -= 10
	}

	// MACD histogram sign
	if ind.MACD > ind.MACDSignal {
		score += 10
	} else {
		score -= 10
	}

	// RSI extremes cap the trend reading
	switch {
	case ind.RSI14 >= 70:
		score -= 15
	case ind.RSI14 <= 30:
		score += 15
	}

	// Momentum contribution, ±10 saturating at ±5% over 10 days
	score += 10 * clampUnit(ind.Momentum10D/0.05)

	return clampScore(score)
}

// sentimentScore measures index-gap alignment with the stock's own
// predicted direction: tailwind scores high, headwind low
func sentimentScore(prediction contracts.PredictionResult, sentiment contracts.IndexSentiment) float64 {
	alignment := sentiment.Bias * sign(prediction.Direction)
	return clampScore(50 + 50*alignment*sentiment.Confidence)
}

// liquidityScore is log-scaled dollar volume above the eligibility
// floor: the floor scores 0, a thousand times the floor scores 100
func (s *Scorer) liquidityScore(ind contracts.Indicators) float64 {
	dollarVolume := ind.LastClose * ind.AvgVolume20D
	if dollarVolume <= 0 {
		return 0
	}
	const floor = 500_000.0
	return clampScore(100 * math.Log10(dollarVolume/floor) / 3)
}

// volatilityScore is inverse: the calm end of the eligible band scores
// 100, the wild end 0
func (s *Scorer) volatilityScore(annualizedVol float64) float64 {
	const lo, hi = 0.05, 1.20
	if annualizedVol <= lo {
		return 100
	}
	if annualizedVol >= hi {
		return 0
	}
	return 100 * (hi - annualizedVol) / (hi - lo)
}

// sectorMomentumScore maps the sector's average 10d momentum onto
// 0-100, saturating at ±5%
func sectorMomentumScore(avgMomentum float64) float64 {
	return clampScore(50 + 50*clampUnit(avgMomentum/0.05))
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
