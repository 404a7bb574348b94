// Package metrics computes summary risk statistics from outcome sequences.
package metrics

import (
	"sort"

	"lombard-risk-lab/internal/domain"
)

// Compute calculates all summary statistics for one regime's net-value
// sequence. liquidations is the count of paths carrying the forced
// liquidation flag; it is used directly unless the config selects the
// terminal-threshold basis.
func Compute(netValues []float64, liquidations int, cfg domain.SimulationConfig) domain.RegimeStats {
	n := len(netValues)
	if n == 0 {
		return domain.RegimeStats{Confidence: cfg.Confidence()}
	}

	// Sort a copy for percentile calculations; the caller's generation
	// order must stay intact.
	sorted := make([]float64, n)
	copy(sorted, netValues)
	sort.Float64s(sorted)

	confidence := cfg.Confidence()

	return domain.RegimeStats{
		ProfitProbability: profitProbability(netValues, cfg.BreakEven()),
		ExpectedValue:     computeMean(netValues),
		ValueAtRisk:       computePercentile(sorted, 1-confidence),
		LiquidationRate:   liquidationRate(netValues, liquidations, cfg),
		Confidence:        confidence,
	}
}

// profitProbability returns the fraction of outcomes strictly greater than
// the break-even value.
func profitProbability(netValues []float64, breakEven float64) float64 {
	profitable := 0
	for _, v := range netValues {
		if v > breakEven {
			profitable++
		}
	}
	return float64(profitable) / float64(len(netValues))
}

// liquidationRate counts per the configured basis. The flag basis uses the
// liquidation count carried by the outcomes; the terminal-threshold basis
// re-derives it from net values below the liquidation threshold.
func liquidationRate(netValues []float64, liquidations int, cfg domain.SimulationConfig) float64 {
	if cfg.LiquidationBasisOrDefault() == domain.LiquidationBasisTerminalThreshold {
		below := 0
		threshold := cfg.LiquidationThreshold()
		for _, v := range netValues {
			if v < threshold {
				below++
			}
		}
		return float64(below) / float64(len(netValues))
	}
	return float64(liquidations) / float64(len(netValues))
}

// computeMean calculates arithmetic mean of values.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.05 = 5th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	// Index for percentile (0-based, continuous)
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	// Linear interpolation
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
