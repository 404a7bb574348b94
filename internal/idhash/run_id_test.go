package idhash

import (
	"testing"

	"lombard-risk-lab/internal/domain"
)

func baseConfig() domain.SimulationConfig {
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

func baseRegimes() domain.RegimeSet {
	return domain.RegimeSet{
		{Name: "low", MeanReturn: 0.03},
		{Name: "mid", MeanReturn: 0.05},
	}
}

func TestComputeRunID_Stable(t *testing.T) {
	first := ComputeRunID(baseConfig(), baseRegimes())
	second := ComputeRunID(baseConfig(), baseRegimes())

	if first != second {
		t.Errorf("run ID not stable: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("run ID length %d, want 64 hex characters", len(first))
	}
}

func TestComputeRunID_SensitiveToInputs(t *testing.T) {
	base := ComputeRunID(baseConfig(), baseRegimes())

	tests := []struct {
		name    string
		config  func() domain.SimulationConfig
		regimes func() domain.RegimeSet
	}{
		{"loan principal", func() domain.SimulationConfig {
			c := baseConfig()
			c.LoanPrincipal = 60000
			return c
		}, baseRegimes},
		{"repeats", func() domain.SimulationConfig {
			c := baseConfig()
			c.Repeats = 5000
			return c
		}, baseRegimes},
		{"seed value", func() domain.SimulationConfig {
			c := baseConfig()
			seed := int64(43)
			c.Seed = &seed
			return c
		}, baseRegimes},
		{"seed absent", func() domain.SimulationConfig {
			c := baseConfig()
			c.Seed = nil
			return c
		}, baseRegimes},
		{"confidence", func() domain.SimulationConfig {
			c := baseConfig()
			c.VaRConfidence = 0.99
			return c
		}, baseRegimes},
		{"seed policy", func() domain.SimulationConfig {
			c := baseConfig()
			c.SeedPolicy = domain.SeedPolicyPerRegime
			return c
		}, baseRegimes},
		{"regime mean", baseConfig, func() domain.RegimeSet {
			r := baseRegimes()
			r[1].MeanReturn = 0.06
			return r
		}},
		{"regime name", baseConfig, func() domain.RegimeSet {
			r := baseRegimes()
			r[1].Name = "mid-alt"
			return r
		}},
		{"regime order", baseConfig, func() domain.RegimeSet {
			r := baseRegimes()
			r[0], r[1] = r[1], r[0]
			return r
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeRunID(tt.config(), tt.regimes()); got == base {
				t.Error("run ID unchanged by input change")
			}
		})
	}
}

func TestComputeRunID_DefaultsNormalized(t *testing.T) {
	// Explicit defaults hash the same as omitted fields: both runs describe
	// the same simulation.
	explicit := baseConfig()
	explicit.VaRConfidence = domain.DefaultVaRConfidence
	explicit.ProfitBasis = domain.ProfitBasisInitialEquity
	explicit.LiquidationBasis = domain.LiquidationBasisFlag
	explicit.SeedPolicy = domain.SeedPolicyPerRun

	if got, want := ComputeRunID(explicit, baseRegimes()), ComputeRunID(baseConfig(), baseRegimes()); got != want {
		t.Errorf("explicit defaults hash differently: %s vs %s", got, want)
	}
}
