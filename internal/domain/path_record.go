package domain

// PathRecord is a persisted PathOutcome keyed by run, regime and generation
// index. Corresponds to the path_outcomes table.
type PathRecord struct {
	RunID      string
	RegimeName string
	PathIndex  int // 0-based generation order within the regime
	NetValue   float64
	Liquidated bool
	ExitYear   int
}
