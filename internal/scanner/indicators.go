package scanner

import (
	"math"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
)

const (
	rsiPeriod       = 14
	bollingerPeriod = 20
	bollingerWidth  = 2.0
	volPeriod       = 20
	volumePeriod    = 20
	momentumPeriod  = 10
	macdSignalSpan  = 9

	tradingDaysPerYear = 252
)

// computeIndicators derives the full technical snapshot from a candle
// history (oldest first). Callers must have verified the history is
// long enough for the slowest indicator (50-day SMA).
func computeIndicators(candles []contracts.Candle) contracts.Indicators {
	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = float64(c.Volume)
	}

	macdLine := macdSeries(closes)

	ind := contracts.Indicators{
		RSI14:         rsi(closes, rsiPeriod),
		SMA20:         sma(closes, 20),
		SMA50:         sma(closes, 50),
		EMA12:         last(emaSeries(closes, 12)),
		EMA26:         last(emaSeries(closes, 26)),
		Volatility20D: realizedVol(closes, volPeriod),
		AvgVolume20D:  sma(volumes, volumePeriod),
		Momentum10D:   momentum(closes, momentumPeriod),
		LastClose:     last(closes),
	}

	ind.MACD = last(macdLine)
	ind.MACDSignal = last(emaSeries(macdLine, macdSignalSpan))
	ind.BollingerMid, ind.BollingerUp, ind.BollingerLow = bollinger(closes, bollingerPeriod, bollingerWidth)

	if ind.AvgVolume20D > 0 {
		ind.VolumeRatio = last(volumes) / ind.AvgVolume20D
	}

	return ind
}

func last(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// sma is the simple moving average over the trailing period
func sma(series []float64, period int) float64 {
	if len(series) < period || period <= 0 {
		return 0
	}
	var sum float64
	for _, v := range series[len(series)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// emaSeries returns the exponential moving average at each point,
// seeded with the SMA of the first period values
func emaSeries(series []float64, period int) []float64 {
	if len(series) < period || period <= 0 {
		return nil
	}

	out := make([]float64, 0, len(series)-period+1)

	var seed float64
	for _, v := range series[:period] {
		seed += v
	}
	ema := seed / float64(period)
	out = append(out, ema)

	k := 2.0 / float64(period+1)
	for _, v := range series[period:] {
		ema = v*k + ema*(1-k)
		out = append(out, ema)
	}
	return out
}

// macdSeries is EMA12 - EMA26 at each overlapping point
func macdSeries(closes []float64) []float64 {
	fast := emaSeries(closes, 12)
	slow := emaSeries(closes, 26)
	if len(slow) == 0 {
		return nil
	}

	// fast is longer; align both series on their tails
	offset := len(fast) - len(slow)
	out := make([]float64, len(slow))
	for i := range slow {
		out[i] = fast[i+offset] - slow[i]
	}
	return out
}

// rsi is Wilder's Relative Strength Index with smoothed averages
func rsi(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50.0 // neutral
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// bollinger returns the mid band (SMA) and the ±width·σ envelopes
func bollinger(closes []float64, period int, width float64) (mid, up, low float64) {
	if len(closes) < period {
		return 0, 0, 0
	}

	mid = sma(closes, period)

	var sq float64
	for _, v := range closes[len(closes)-period:] {
		d := v - mid
		sq += d * d
	}
	sigma := math.Sqrt(sq / float64(period))

	return mid, mid + width*sigma, mid - width*sigma
}

// realizedVol is the annualized standard deviation of the trailing
// close-to-close returns
func realizedVol(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 0
	}

	window := closes[len(closes)-period-1:]
	returns := make([]float64, period)
	var mean float64
	for i := 1; i < len(window); i++ {
		if window[i-1] == 0 {
			continue
		}
		returns[i-1] = window[i]/window[i-1] - 1
		mean += returns[i-1]
	}
	mean /= float64(period)

	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}
	daily := math.Sqrt(sq / float64(period-1))

	return daily * math.Sqrt(tradingDaysPerYear)
}

// momentum is the trailing N-day simple return
func momentum(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 0
	}
	base := closes[len(closes)-period-1]
	if base == 0 {
		return 0
	}
	return closes[len(closes)-1]/base - 1
}
