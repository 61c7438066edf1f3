package regime

import "math"

// =============================================================================
// 3-state Gaussian mixture over [return, volatility, drawdown]
// =============================================================================
//
// EM with diagonal covariances. Initialization is volatility-tertile
// based instead of random, so the fit — and therefore the classified
// state — is a pure function of the input features.

const (
	gmmStates  = 3
	gmmMaxIter = 100
	gmmTol     = 1e-8
	// varFloor keeps a near-degenerate feature column from collapsing
	// a component's variance to zero
	varFloor = 1e-10
)

type gmmComponent struct {
	Weight   float64
	Mean     [3]float64
	Variance [3]float64
}

type gmmModel struct {
	Components [gmmStates]gmmComponent
}

// fitGMM fits the mixture. ok is false on degenerate input.
func fitGMM(features []feature) (gmmModel, bool) {
	n := len(features)
	if n < gmmStates*4 {
		return gmmModel{}, false
	}

	rows := make([][3]float64, n)
	for i, f := range features {
		rows[i] = [3]float64{f.Return, f.Volatility, f.Drawdown}
	}

	model := initByVolTertiles(rows)

	resp := make([][gmmStates]float64, n)
	prevLL := math.Inf(-1)

	for iter := 0; iter < gmmMaxIter; iter++ {
		// E-step
		ll := 0.0
		for i, row := range rows {
			var total float64
			var probs [gmmStates]float64
			for k := 0; k < gmmStates; k++ {
				p := model.Components[k].Weight * gaussianPDF(row, model.Components[k])
				probs[k] = p
				total += p
			}
			if total <= 0 || math.IsNaN(total) {
				return gmmModel{}, false
			}
			for k := 0; k < gmmStates; k++ {
				resp[i][k] = probs[k] / total
			}
			ll += math.Log(total)
		}

		// M-step
		for k := 0; k < gmmStates; k++ {
			var nk float64
			var mean [3]float64
			for i := range rows {
				nk += resp[i][k]
				for d := 0; d < 3; d++ {
					mean[d] += resp[i][k] * rows[i][d]
				}
			}
			if nk < 1e-6 {
				return gmmModel{}, false
			}
			for d := 0; d < 3; d++ {
				mean[d] /= nk
			}

			var variance [3]float64
			for i := range rows {
				for d := 0; d < 3; d++ {
					diff := rows[i][d] - mean[d]
					variance[d] += resp[i][k] * diff * diff
				}
			}
			for d := 0; d < 3; d++ {
				variance[d] = variance[d]/nk + varFloor
			}

			model.Components[k] = gmmComponent{
				Weight:   nk / float64(n),
				Mean:     mean,
				Variance: variance,
			}
		}

		if math.Abs(ll-prevLL) < gmmTol {
			break
		}
		prevLL = ll
	}

	// Order components by mean volatility: 0=CALM, 1=NORMAL, 2=HIGH_VOL
	sortByVolatility(&model)
	return model, true
}

// posterior returns P(state | row) for a single feature row
func (m gmmModel) posterior(f feature) [gmmStates]float64 {
	row := [3]float64{f.Return, f.Volatility, f.Drawdown}

	var probs [gmmStates]float64
	var total float64
	for k := 0; k < gmmStates; k++ {
		p := m.Components[k].Weight * gaussianPDF(row, m.Components[k])
		probs[k] = p
		total += p
	}
	if total <= 0 || math.IsNaN(total) {
		// Uninformative posterior rather than NaN propagation
		return [gmmStates]float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	}
	for k := 0; k < gmmStates; k++ {
		probs[k] /= total
	}
	return probs
}

// initByVolTertiles seeds the EM with volatility-sorted tertile groups
func initByVolTertiles(rows [][3]float64) gmmModel {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	// Insertion sort by volatility column keeps this dependency-free
	// and stable for equal keys
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && rows[idx[j]][1] < rows[idx[j-1]][1]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}

	var model gmmModel
	n := len(rows)
	for k := 0; k < gmmStates; k++ {
		lo := k * n / gmmStates
		hi := (k + 1) * n / gmmStates
		group := idx[lo:hi]

		var mean [3]float64
		for _, i := range group {
			for d := 0; d < 3; d++ {
				mean[d] += rows[i][d]
			}
		}
		for d := 0; d < 3; d++ {
			mean[d] /= float64(len(group))
		}

		var variance [3]float64
		for _, i := range group {
			for d := 0; d < 3; d++ {
				diff := rows[i][d] - mean[d]
				variance[d] += diff * diff
			}
		}
		for d := 0; d < 3; d++ {
			variance[d] = variance[d]/float64(len(group)) + varFloor
		}

		model.Components[k] = gmmComponent{
			Weight:   float64(len(group)) / float64(n),
			Mean:     mean,
			Variance: variance,
		}
	}
	return model
}

// sortByVolatility orders components ascending by mean volatility
func sortByVolatility(m *gmmModel) {
	for i := 1; i < gmmStates; i++ {
		for j := i; j > 0 && m.Components[j].Mean[1] < m.Components[j-1].Mean[1]; j-- {
			m.Components[j], m.Components[j-1] = m.Components[j-1], m.Components[j]
		}
	}
}

// gaussianPDF is the diagonal-covariance multivariate normal density
func gaussianPDF(row [3]float64, c gmmComponent) float64 {
	exponent := 0.0
	norm := 1.0
	for d := 0; d < 3; d++ {
		diff := row[d] - c.Mean[d]
		exponent += diff * diff / c.Variance[d]
		norm *= 2 * math.Pi * c.Variance[d]
	}
	return math.Exp(-0.5*exponent) / math.Sqrt(norm)
}
