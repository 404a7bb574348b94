// Package reporting renders stored simulation results for human consumption.
// All display formatting lives here; the simulation core only ever produces
// structured values.
package reporting

import "time"

// Report is the presentation-ready view of one or more simulation runs.
type Report struct {
	GeneratedAt time.Time
	RunCount    int
	RegimeRows  []RegimeRow
}

// RegimeRow represents one regime's result in the report tables.
type RegimeRow struct {
	RunID             string
	RegimeName        string
	MeanReturn        float64
	Repeats           int
	Liquidations      int
	ProfitProbability float64
	ExpectedValue     float64
	ValueAtRisk       float64
	LiquidationRate   float64
	Confidence        float64
}
