package volatility

import "math"

// =============================================================================
// GARCH(1,1) one-step forecast
// =============================================================================
//
// Model:  h_t = ω + α·r²_{t-1} + β·h_{t-1}
// ω is tied to the sample variance via variance targeting, so only
// (α, β) are fitted — a deterministic coordinate grid search over the
// Gaussian quasi-likelihood. No RNG: identical inputs give identical
// forecasts, which the nightly idempotence contract depends on.

// fitGARCH fits GARCH(1,1) and returns the one-step-ahead volatility.
// ok is false when the search fails to find a stationary, improving fit.
func fitGARCH(returns []float64) (sigma float64, ok bool) {
	longRunVar := sampleVariance(returns)
	if longRunVar <= 0 {
		return 0, false
	}

	bestLL := math.Inf(-1)
	var bestAlpha, bestBeta float64
	found := false

	for alpha := 0.02; alpha <= 0.20+1e-12; alpha += 0.01 {
		for beta := 0.70; beta <= 0.97+1e-12; beta += 0.01 {
			if alpha+beta >= 0.999 {
				continue
			}
			ll, valid := garchLogLikelihood(returns, longRunVar, alpha, beta)
			if valid && ll > bestLL {
				bestLL = ll
				bestAlpha = alpha
				bestBeta = beta
				found = true
			}
		}
	}

	if !found {
		return 0, false
	}

	omega := longRunVar * (1 - bestAlpha - bestBeta)

	// Filter once more with the winning parameters to get h_T, then
	// project one step ahead.
	h := longRunVar
	for i := 1; i < len(returns); i++ {
		h = omega + bestAlpha*returns[i-1]*returns[i-1] + bestBeta*h
	}
	last := returns[len(returns)-1]
	hNext := omega + bestAlpha*last*last + bestBeta*h

	if hNext <= 0 || math.IsNaN(hNext) {
		return 0, false
	}
	return math.Sqrt(hNext), true
}

// garchLogLikelihood evaluates the Gaussian quasi-likelihood for fixed
// (α, β) with variance targeting
func garchLogLikelihood(returns []float64, longRunVar, alpha, beta float64) (float64, bool) {
	omega := longRunVar * (1 - alpha - beta)
	if omega <= 0 {
		return 0, false
	}

	h := longRunVar
	var ll float64
	for i := 1; i < len(returns); i++ {
		h = omega + alpha*returns[i-1]*returns[i-1] + beta*h
		if h <= 0 || math.IsNaN(h) {
			return 0, false
		}
		r := returns[i]
		ll -= math.Log(h) + r*r/h
	}
	return ll, true
}
