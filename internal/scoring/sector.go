package scoring

import (
	"sort"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
)

// SectorMomentum averages each sector's 10-day momentum across its
// scanned members, feeding the sector-momentum factor
func SectorMomentum(candidates []contracts.StockCandidate) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, c := range candidates {
		sums[c.Sector] += c.Indicators.Momentum10D
		counts[c.Sector]++
	}

	out := make(map[string]float64, len(sums))
	for sector, sum := range sums {
		out[sector] = sum / float64(counts[sector])
	}
	return out
}

// SectorSummaries aggregates the run's scored stocks per sector,
// computed once scoring for the whole run is complete. Straight
// averages, sorted by sector name for a stable report.
func SectorSummaries(scores []contracts.OpportunityScore) []contracts.SectorSummary {
	type agg struct {
		count     int
		composite float64
		benchBeta float64
		commBeta  float64
	}

	byName := make(map[string]*agg)
	for _, s := range scores {
		a, ok := byName[s.Sector]
		if !ok {
			a = &agg{}
			byName[s.Sector] = a
		}
		a.count++
		a.composite += s.Composite
		a.benchBeta += s.Betas.Benchmark
		a.commBeta += s.Betas.Commodity
	}

	summaries := make([]contracts.SectorSummary, 0, len(byName))
	for sector, a := range byName {
		n := float64(a.count)
		summaries = append(summaries, contracts.SectorSummary{
			Sector:       sector,
			StockCount:   a.count,
			AvgComposite: a.composite / n,
			AvgBenchBeta: a.benchBeta / n,
			AvgCommBeta:  a.commBeta / n,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Sector < summaries[j].Sector
	})
	return summaries
}
