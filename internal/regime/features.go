package regime

import (
	"math"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
)

// featureWindow is the rolling span for per-day return/volatility features
const featureWindow = 20

// feature is one day's observation for the state model:
// [rolling return, rolling volatility, drawdown from running high]
type feature struct {
	Return     float64
	Volatility float64
	Drawdown   float64
}

// buildFeatures converts a candle history (oldest first) into the daily
// feature rows the detector is fitted on. The first featureWindow days
// burn in the rolling stats and produce no rows.
func buildFeatures(candles []contracts.Candle) []feature {
	if len(candles) <= featureWindow {
		return nil
	}

	returns := contracts.Returns(candles)
	features := make([]feature, 0, len(candles)-featureWindow)

	// Running high tracks the full history including the burn-in prefix
	runningHigh := 0.0
	for _, c := range candles[:featureWindow] {
		if c.Close > runningHigh {
			runningHigh = c.Close
		}
	}

	for i := featureWindow; i < len(candles); i++ {
		if candles[i].Close > runningHigh {
			runningHigh = candles[i].Close
		}

		// Rolling window over the returns ending at day i
		window := returns[i-featureWindow : i]

		var sum float64
		for _, r := range window {
			sum += r
		}
		rollingReturn := sum / float64(len(window))

		var varSum float64
		for _, r := range window {
			d := r - rollingReturn
			varSum += d * d
		}
		rollingVol := math.Sqrt(varSum / float64(len(window)-1))

		drawdown := 0.0
		if runningHigh > 0 {
			drawdown = 1 - candles[i].Close/runningHigh
		}

		features = append(features, feature{
			Return:     rollingReturn,
			Volatility: rollingVol,
			Drawdown:   drawdown,
		})
	}

	return features
}

// medianVol returns the median of the volatility column
func medianVol(features []feature) float64 {
	if len(features) == 0 {
		return 0
	}
	vols := make([]float64, len(features))
	for i, f := range features {
		vols[i] = f.Volatility
	}
	return median(vols)
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
