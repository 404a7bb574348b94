// Package idhash computes deterministic identifiers for simulation runs.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"lombard-risk-lab/internal/domain"
)

// ComputeRunID computes a deterministic run_id using SHA256 over all
// result-affecting configuration fields and the regime set in declaration
// order. Returns hex-encoded hash (64 characters). Identical inputs always
// map to the same run_id, which makes duplicate persistence of the same run
// fail on the store's append-only constraint.
func ComputeRunID(cfg domain.SimulationConfig, regimes domain.RegimeSet) string {
	seed := "none"
	if cfg.Seed != nil {
		seed = fmt.Sprintf("%d", *cfg.Seed)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%v|%v|%d|%v|%v|%v|%v|%d|%s|%v|%s|%s|%s",
		cfg.LoanPrincipal,
		cfg.LoanInterest,
		cfg.DurationYears,
		cfg.PortfolioValue,
		cfg.MarginFraction,
		cfg.JobLossProb,
		cfg.Volatility,
		cfg.Repeats,
		seed,
		cfg.Confidence(),
		cfg.ProfitBasisOrDefault(),
		cfg.LiquidationBasisOrDefault(),
		cfg.SeedPolicyOrDefault(),
	)
	for _, r := range regimes {
		fmt.Fprintf(&sb, "|%s=%v", r.Name, r.MeanReturn)
	}

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}
