package simulation

import (
	"context"

	"lombard-risk-lab/internal/domain"
	"lombard-risk-lab/internal/idhash"
	"lombard-risk-lab/internal/metrics"
	"lombard-risk-lab/internal/storage"
)

// Runner executes simulation runs: for each regime it repeats independent
// path simulations, collects the outcome distribution and computes summary
// statistics.
type Runner struct {
	resultStore  storage.RegimeResultStore
	outcomeStore storage.PathOutcomeStore
	onResult     func(*domain.RegimeResult)
}

// RunnerOptions contains configuration for creating a Runner.
// All fields are optional; a zero-value Runner simulates without persisting.
type RunnerOptions struct {
	// ResultStore persists one RegimeResult per regime when set.
	ResultStore storage.RegimeResultStore

	// OutcomeStore persists per-path records when set.
	OutcomeStore storage.PathOutcomeStore

	// OnRegimeResult is invoked after each regime's statistics are frozen,
	// before the next regime starts. Used for progress streaming.
	OnRegimeResult func(*domain.RegimeResult)
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	return &Runner{
		resultStore:  opts.ResultStore,
		outcomeStore: opts.OutcomeStore,
		onResult:     opts.OnRegimeResult,
	}
}

// Run executes the full simulation for every regime in declaration order.
// Steps:
//  1. Validate config and regime set (fail fast, before any draw)
//  2. Seed the random source per the configured seed policy
//  3. Per regime: simulate cfg.Repeats paths sequentially
//  4. Compute per-regime statistics from the frozen outcome sequence
//  5. Persist results and per-path records when stores are configured
//
// With a fixed seed two runs over the same (config, regimes) are
// bit-identical. Under SeedPolicyPerRegime every regime restarts the stream,
// so regimes sharing a seed consume identical raw draw sequences; under the
// default SeedPolicyPerRun regimes share one stream and results depend on
// declaration order.
func (r *Runner) Run(ctx context.Context, cfg domain.SimulationConfig, regimes domain.RegimeSet) ([]*domain.RegimeResult, error) {
	// 1. Validate before any simulation work
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := regimes.Validate(); err != nil {
		return nil, err
	}

	runID := idhash.ComputeRunID(cfg, regimes)

	newSource := func() Source {
		if cfg.Seed != nil {
			return NewSeededSource(*cfg.Seed)
		}
		return NewTimeSource()
	}

	// 2. One stream for the whole run unless reseeding per regime
	perRegime := cfg.SeedPolicyOrDefault() == domain.SeedPolicyPerRegime
	var src Source
	if !perRegime {
		src = newSource()
	}

	results := make([]*domain.RegimeResult, 0, len(regimes))
	for _, regime := range regimes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if perRegime {
			src = newSource()
		}

		result, err := r.runRegime(ctx, runID, cfg, regime, src)
		if err != nil {
			return nil, err
		}

		results = append(results, result)
		if r.onResult != nil {
			r.onResult(result)
		}
	}

	return results, nil
}

// runRegime simulates all repeats for one regime and freezes its result.
func (r *Runner) runRegime(ctx context.Context, runID string, cfg domain.SimulationConfig, regime domain.Regime, src Source) (*domain.RegimeResult, error) {
	netValues := make([]float64, 0, cfg.Repeats)
	liquidations := 0

	var records []*domain.PathRecord
	if r.outcomeStore != nil {
		records = make([]*domain.PathRecord, 0, cfg.Repeats)
	}

	// 3. Sequential paths; generation order is the persistence order
	for i := 0; i < cfg.Repeats; i++ {
		outcome := SimulatePath(cfg, regime.MeanReturn, src)

		netValues = append(netValues, outcome.NetValue)
		if outcome.Liquidated {
			liquidations++
		}

		if records != nil {
			records = append(records, &domain.PathRecord{
				RunID:      runID,
				RegimeName: regime.Name,
				PathIndex:  i,
				NetValue:   outcome.NetValue,
				Liquidated: outcome.Liquidated,
				ExitYear:   outcome.ExitYear,
			})
		}
	}

	// 4. Statistics from the frozen sequence
	result := &domain.RegimeResult{
		RunID:        runID,
		RegimeName:   regime.Name,
		MeanReturn:   regime.MeanReturn,
		NetValues:    netValues,
		Liquidations: liquidations,
		Stats:        metrics.Compute(netValues, liquidations, cfg),
	}

	// 5. Persist when stores are configured
	if r.resultStore != nil {
		if err := r.resultStore.Insert(ctx, result); err != nil {
			return nil, err
		}
	}
	if r.outcomeStore != nil {
		if err := r.outcomeStore.InsertBulk(ctx, records); err != nil {
			return nil, err
		}
	}

	return result, nil
}
