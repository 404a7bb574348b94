package reporting

import (
	"context"
	"time"

	"lombard-risk-lab/internal/domain"
	"lombard-risk-lab/internal/storage"
)

// Generator produces reports from stored results.
type Generator struct {
	resultStore storage.RegimeResultStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(resultStore storage.RegimeResultStore) *Generator {
	return &Generator{
		resultStore: resultStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report covering every stored result.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	results, err := g.resultStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return g.build(results), nil
}

// GenerateForRun produces a report covering a single run.
func (g *Generator) GenerateForRun(ctx context.Context, runID string) (*Report, error) {
	results, err := g.resultStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return g.build(results), nil
}

// FromResults builds a report directly from in-memory results, preserving
// their order. Used when a run is rendered without being persisted.
func (g *Generator) FromResults(results []*domain.RegimeResult) *Report {
	return g.build(results)
}

// build converts results into report rows.
func (g *Generator) build(results []*domain.RegimeResult) *Report {
	rows := make([]RegimeRow, len(results))
	runs := make(map[string]struct{})

	for i, r := range results {
		runs[r.RunID] = struct{}{}
		rows[i] = RegimeRow{
			RunID:             r.RunID,
			RegimeName:        r.RegimeName,
			MeanReturn:        r.MeanReturn,
			Repeats:           len(r.NetValues),
			Liquidations:      r.Liquidations,
			ProfitProbability: r.Stats.ProfitProbability,
			ExpectedValue:     r.Stats.ExpectedValue,
			ValueAtRisk:       r.Stats.ValueAtRisk,
			LiquidationRate:   r.Stats.LiquidationRate,
			Confidence:        r.Stats.Confidence,
		}
	}

	return &Report{
		GeneratedAt: g.now(),
		RunCount:    len(runs),
		RegimeRows:  rows,
	}
}
