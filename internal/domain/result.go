package domain

// RegimeStats holds summary risk statistics derived from one regime's
// outcome sequence.
type RegimeStats struct {
	ProfitProbability float64 // fraction of outcomes strictly above break-even, [0, 1]
	ExpectedValue     float64 // arithmetic mean of net values
	ValueAtRisk       float64 // (1 - Confidence) percentile of net values
	LiquidationRate   float64 // fraction of liquidated paths, [0, 1]
	Confidence        float64 // VaR confidence level, e.g. 0.95
}

// RegimeResult accumulates all outcomes of one regime's repeats.
// Corresponds to the regime_results table.
type RegimeResult struct {
	RunID      string  // deterministic run hash
	RegimeName string  // unique per run
	MeanReturn float64 // regime expected annual return

	// NetValues holds one terminal net value per repeat, in generation
	// order. Order is not semantically meaningful but is stable for a
	// fixed seed.
	NetValues []float64

	// Liquidations counts paths flagged as forcibly liquidated.
	Liquidations int

	Stats RegimeStats
}
