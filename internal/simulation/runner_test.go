package simulation

import (
	"context"
	"errors"
	"math"
	"testing"

	"lombard-risk-lab/internal/domain"
	"lombard-risk-lab/internal/storage"
	"lombard-risk-lab/internal/storage/memory"
)

func runnerConfig() domain.SimulationConfig {
	seed := int64(42)
	return domain.SimulationConfig{
		LoanPrincipal:  50000,
		LoanInterest:   0.04,
		DurationYears:  5,
		PortfolioValue: 50000,
		MarginFraction: 0.35,
		JobLossProb:    0.05,
		Volatility:     0.15,
		Repeats:        2500,
		Seed:           &seed,
	}
}

func defaultRegimes() domain.RegimeSet {
	return domain.RegimeSet{
		{Name: "Low Return (3%)", MeanReturn: 0.03},
		{Name: "Mid Return (5%)", MeanReturn: 0.05},
		{Name: "High Return (8%)", MeanReturn: 0.08},
	}
}

func TestRunner_Run_RepeatsAndOrder(t *testing.T) {
	runner := NewRunner(RunnerOptions{})
	cfg := runnerConfig()
	regimes := defaultRegimes()

	results, err := runner.Run(context.Background(), cfg, regimes)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != len(regimes) {
		t.Fatalf("got %d results, want %d", len(results), len(regimes))
	}

	for i, res := range results {
		// Results come back in declaration order.
		if res.RegimeName != regimes[i].Name {
			t.Errorf("result %d: regime %q, want %q", i, res.RegimeName, regimes[i].Name)
		}
		if res.MeanReturn != regimes[i].MeanReturn {
			t.Errorf("result %d: mean return %f, want %f", i, res.MeanReturn, regimes[i].MeanReturn)
		}
		if len(res.NetValues) != cfg.Repeats {
			t.Errorf("result %d: %d net values, want %d", i, len(res.NetValues), cfg.Repeats)
		}
		if res.RunID == "" {
			t.Errorf("result %d: empty run ID", i)
		}
	}
}

func TestRunner_Run_DeterministicWithFixedSeed(t *testing.T) {
	cfg := runnerConfig()
	regimes := defaultRegimes()

	first, err := NewRunner(RunnerOptions{}).Run(context.Background(), cfg, regimes)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := NewRunner(RunnerOptions{}).Run(context.Background(), cfg, regimes)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	for i := range first {
		a, b := first[i], second[i]
		if a.RunID != b.RunID {
			t.Errorf("regime %q: run IDs differ: %s vs %s", a.RegimeName, a.RunID, b.RunID)
		}
		if a.Liquidations != b.Liquidations {
			t.Errorf("regime %q: liquidations %d vs %d", a.RegimeName, a.Liquidations, b.Liquidations)
		}
		if a.Stats != b.Stats {
			t.Errorf("regime %q: stats differ: %+v vs %+v", a.RegimeName, a.Stats, b.Stats)
		}
		for j := range a.NetValues {
			if a.NetValues[j] != b.NetValues[j] {
				t.Fatalf("regime %q: path %d net value %f vs %f",
					a.RegimeName, j, a.NetValues[j], b.NetValues[j])
			}
		}
	}
}

func TestRunner_Run_PerRegimeSeedPolicy(t *testing.T) {
	// Under PER_REGIME every regime restarts the stream from the same seed,
	// so regimes with identical mean returns produce identical sequences.
	cfg := runnerConfig()
	cfg.SeedPolicy = domain.SeedPolicyPerRegime
	regimes := domain.RegimeSet{
		{Name: "first", MeanReturn: 0.05},
		{Name: "second", MeanReturn: 0.05},
	}

	results, err := NewRunner(RunnerOptions{}).Run(context.Background(), cfg, regimes)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	a, b := results[0], results[1]
	if a.Liquidations != b.Liquidations {
		t.Errorf("liquidations differ under per-regime reseeding: %d vs %d", a.Liquidations, b.Liquidations)
	}
	for j := range a.NetValues {
		if a.NetValues[j] != b.NetValues[j] {
			t.Fatalf("path %d differs under per-regime reseeding: %f vs %f",
				j, a.NetValues[j], b.NetValues[j])
		}
	}

	// Under the default PER_RUN policy the second regime continues the
	// stream, so the sequences diverge.
	cfg.SeedPolicy = domain.SeedPolicyPerRun
	results, err = NewRunner(RunnerOptions{}).Run(context.Background(), cfg, regimes)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	same := true
	for j := range results[0].NetValues {
		if results[0].NetValues[j] != results[1].NetValues[j] {
			same = false
			break
		}
	}
	if same {
		t.Error("per-run policy produced identical sequences for consecutive regimes")
	}
}

func TestRunner_Run_LiquidationRateMonotonicInJobLoss(t *testing.T) {
	cfg := runnerConfig()
	cfg.Volatility = 0.3
	cfg.Repeats = 2000

	regimes := domain.RegimeSet{{Name: "flat", MeanReturn: 0}}

	var rates []float64
	for _, prob := range []float64{0, 0.05, 0.5} {
		cfg.JobLossProb = prob
		results, err := NewRunner(RunnerOptions{}).Run(context.Background(), cfg, regimes)
		if err != nil {
			t.Fatalf("Run failed at prob %f: %v", prob, err)
		}
		rates = append(rates, results[0].Stats.LiquidationRate)
	}

	if rates[0] != 0 {
		t.Errorf("liquidation rate at zero job loss probability = %f, want 0", rates[0])
	}
	for i := 1; i < len(rates); i++ {
		if rates[i] < rates[i-1] {
			t.Errorf("liquidation rate decreased: %v", rates)
		}
	}
}

func TestRunner_Run_VaRBelowExpectedValue(t *testing.T) {
	cfg := runnerConfig()
	cfg.Repeats = 5000
	regimes := domain.RegimeSet{{Name: "mid", MeanReturn: 0.05}}

	results, err := NewRunner(RunnerOptions{}).Run(context.Background(), cfg, regimes)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	stats := results[0].Stats
	if stats.ValueAtRisk > stats.ExpectedValue {
		t.Errorf("VaR %f above expected value %f", stats.ValueAtRisk, stats.ExpectedValue)
	}
	if stats.ProfitProbability < 0 || stats.ProfitProbability > 1 {
		t.Errorf("profit probability out of range: %f", stats.ProfitProbability)
	}
	if stats.LiquidationRate < 0 || stats.LiquidationRate > 1 {
		t.Errorf("liquidation rate out of range: %f", stats.LiquidationRate)
	}
}

func TestRunner_Run_ValidationFailsFast(t *testing.T) {
	runner := NewRunner(RunnerOptions{})

	cfg := runnerConfig()
	cfg.Volatility = -1
	if _, err := runner.Run(context.Background(), cfg, defaultRegimes()); !errors.Is(err, domain.ErrNegativeVolatility) {
		t.Errorf("got %v, want %v", err, domain.ErrNegativeVolatility)
	}

	if _, err := runner.Run(context.Background(), runnerConfig(), nil); !errors.Is(err, domain.ErrEmptyRegimeSet) {
		t.Errorf("got %v, want %v", err, domain.ErrEmptyRegimeSet)
	}
}

func TestRunner_Run_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(RunnerOptions{}).Run(ctx, runnerConfig(), defaultRegimes())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want %v", err, context.Canceled)
	}
}

func TestRunner_Run_PersistsToStores(t *testing.T) {
	resultStore := memory.NewRegimeResultStore()
	outcomeStore := memory.NewPathOutcomeStore()

	var streamed []string
	runner := NewRunner(RunnerOptions{
		ResultStore:  resultStore,
		OutcomeStore: outcomeStore,
		OnRegimeResult: func(res *domain.RegimeResult) {
			streamed = append(streamed, res.RegimeName)
		},
	})

	cfg := runnerConfig()
	cfg.Repeats = 50
	regimes := defaultRegimes()

	ctx := context.Background()
	results, err := runner.Run(ctx, cfg, regimes)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Callback fires once per regime, in declaration order.
	if len(streamed) != len(regimes) {
		t.Fatalf("callback fired %d times, want %d", len(streamed), len(regimes))
	}
	for i, name := range streamed {
		if name != regimes[i].Name {
			t.Errorf("callback %d: regime %q, want %q", i, name, regimes[i].Name)
		}
	}

	runID := results[0].RunID

	stored, err := resultStore.GetByRunID(ctx, runID)
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(stored) != len(regimes) {
		t.Fatalf("stored %d results, want %d", len(stored), len(regimes))
	}

	for _, res := range results {
		got, err := resultStore.GetByKey(ctx, runID, res.RegimeName)
		if err != nil {
			t.Fatalf("GetByKey(%q) failed: %v", res.RegimeName, err)
		}
		if got.Stats != res.Stats {
			t.Errorf("regime %q: stored stats %+v, want %+v", res.RegimeName, got.Stats, res.Stats)
		}

		records, err := outcomeStore.GetByRun(ctx, runID, res.RegimeName)
		if err != nil {
			t.Fatalf("GetByRun(%q) failed: %v", res.RegimeName, err)
		}
		if len(records) != cfg.Repeats {
			t.Fatalf("regime %q: %d path records, want %d", res.RegimeName, len(records), cfg.Repeats)
		}
		for i, rec := range records {
			if rec.PathIndex != i {
				t.Fatalf("regime %q: record %d has path index %d", res.RegimeName, i, rec.PathIndex)
			}
			if rec.NetValue != res.NetValues[i] {
				t.Errorf("regime %q: record %d net value %f, want %f",
					res.RegimeName, i, rec.NetValue, res.NetValues[i])
			}
			if rec.ExitYear < 1 || rec.ExitYear > cfg.DurationYears {
				t.Errorf("regime %q: record %d exit year %d out of range", res.RegimeName, i, rec.ExitYear)
			}
			if !rec.Liquidated && rec.ExitYear != cfg.DurationYears {
				t.Errorf("regime %q: record %d exited early without liquidation", res.RegimeName, i)
			}
		}
	}

	// The same (config, regimes) hashes to the same run ID, so a repeat
	// run collides on the primary key.
	if _, err := runner.Run(ctx, cfg, regimes); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("repeat run: got %v, want %v", err, storage.ErrDuplicateKey)
	}
}

func TestRunner_Run_HigherMeanLiftsExpectedValue(t *testing.T) {
	cfg := runnerConfig()
	cfg.SeedPolicy = domain.SeedPolicyPerRegime // identical draws across regimes
	cfg.Repeats = 3000

	regimes := domain.RegimeSet{
		{Name: "low", MeanReturn: 0.03},
		{Name: "high", MeanReturn: 0.08},
	}

	results, err := NewRunner(RunnerOptions{}).Run(context.Background(), cfg, regimes)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	low, high := results[0].Stats, results[1].Stats
	if high.ExpectedValue <= low.ExpectedValue {
		t.Errorf("expected value did not rise with mean return: low %f, high %f",
			low.ExpectedValue, high.ExpectedValue)
	}
	if math.IsNaN(low.ExpectedValue) || math.IsNaN(high.ExpectedValue) {
		t.Error("NaN expected value")
	}
}
