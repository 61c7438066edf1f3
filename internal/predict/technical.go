package predict

import (
	"context"
	"math"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
)

// TechnicalSource votes on RSI, MACD and Bollinger position computed
// during scanning. Deterministic: same indicators, same call.
type TechnicalSource struct{}

// NewTechnicalSource creates the indicator-vote leg
func NewTechnicalSource() *TechnicalSource {
	return &TechnicalSource{}
}

func (s *TechnicalSource) Kind() contracts.SourceKind {
	return contracts.SourceTechnical
}

func (s *TechnicalSource) Predict(_ context.Context, candidate contracts.StockCandidate, _ RunContext) contracts.SourcePrediction {
	ind := candidate.Indicators
	if ind.LastClose == 0 || ind.BollingerUp == ind.BollingerLow {
		return contracts.SourcePrediction{
			Source:     contracts.SourceTechnical,
			Direction:  0,
			Confidence: 0.1,
			Fallback:   true,
			Reason:     contracts.FallbackInsufficientDa,
		}
	}

	votes := []float64{
		rsiVote(ind.RSI14),
		macdVote(ind),
		bollingerVote(ind),
	}

	var sum float64
	for _, v := range votes {
		sum += v
	}
	direction := clampDirection(sum / float64(len(votes)))

	// Agreement between indicators drives confidence: three aligned
	// votes read stronger than one strong and two flat
	agreement := 1 - spread(votes)/2
	confidence := 0.3 + 0.5*math.Abs(direction)*agreement

	return contracts.SourcePrediction{
		Source:     contracts.SourceTechnical,
		Direction:  direction,
		Confidence: confidence,
	}
}

// rsiVote maps RSI to a mean-reversion vote: oversold is bullish
func rsiVote(rsi float64) float64 {
	switch {
	case rsi <= 30:
		return 1
	case rsi >= 70:
		return -1
	default:
		// Linear between the bands, neutral at 50
		return (50 - rsi) / 20
	}
}

// macdVote reads the MACD histogram sign, scaled by its magnitude
// relative to price
func macdVote(ind contracts.Indicators) float64 {
	if ind.LastClose == 0 {
		return 0
	}
	histogram := ind.MACD - ind.MACDSignal
	// 0.5% of price saturates the vote
	return clampDirection(histogram / (0.005 * ind.LastClose))
}

// bollingerVote positions the close inside the band: near the lower
// band is bullish mean reversion
func bollingerVote(ind contracts.Indicators) float64 {
	width := ind.BollingerUp - ind.BollingerLow
	if width <= 0 {
		return 0
	}
	// 0 at upper band, 1 at lower band, rescaled to -1..1
	pos := (ind.BollingerUp - ind.LastClose) / width
	return clampDirection(2*pos - 1)
}

// spread is max(votes) - min(votes), a cheap disagreement measure
func spread(votes []float64) float64 {
	lo, hi := votes[0], votes[0]
	for _, v := range votes[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}
