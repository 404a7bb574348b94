package domain

import (
	"errors"
	"math"
)

// Profit basis selects the break-even threshold used for profit probability.
// Both definitions appear in practice; the choice must be explicit so two
// runs over the same data cannot silently disagree.
const (
	// ProfitBasisInitialEquity counts outcomes above the investor's original
	// equity (total invested minus loan principal).
	ProfitBasisInitialEquity = "INITIAL_EQUITY"

	// ProfitBasisZero counts outcomes strictly above zero.
	ProfitBasisZero = "ZERO"
)

// Liquidation basis selects how liquidation frequency is counted.
const (
	// LiquidationBasisFlag counts paths whose outcome carries the forced
	// liquidation flag. Preferred: terminal values of liquidated and
	// full-term paths can overlap numerically.
	LiquidationBasisFlag = "FLAG"

	// LiquidationBasisTerminalThreshold counts terminal net values strictly
	// below the liquidation threshold. Kept as a named option for parity
	// with threshold-based risk reports.
	LiquidationBasisTerminalThreshold = "TERMINAL_THRESHOLD"
)

// Seed policy selects how the random stream relates to regimes.
const (
	// SeedPolicyPerRun draws one stream for the whole run; regimes consume
	// it in declaration order.
	SeedPolicyPerRun = "PER_RUN"

	// SeedPolicyPerRegime reseeds before every regime. Regimes sharing a
	// seed then consume identical raw draw sequences, which couples their
	// sampling noise.
	SeedPolicyPerRegime = "PER_REGIME"
)

// DefaultVaRConfidence is the confidence level used when the config leaves
// VaRConfidence unset.
const DefaultVaRConfidence = 0.95

// Configuration validation errors.
var (
	ErrNonPositiveLoan        = errors.New("loan principal must be positive")
	ErrNonPositiveDuration    = errors.New("loan duration must be a positive whole number of years")
	ErrNonPositivePortfolio   = errors.New("initial portfolio value must be positive")
	ErrMarginOutOfRange       = errors.New("maintenance margin fraction must be in [0, 1)")
	ErrJobLossProbOutOfRange  = errors.New("job loss probability must be in [0, 1]")
	ErrNegativeVolatility     = errors.New("volatility must be non-negative")
	ErrNonPositiveRepeats     = errors.New("repeats must be >= 1")
	ErrConfidenceOutOfRange   = errors.New("VaR confidence must be in (0, 1)")
	ErrUnknownProfitBasis     = errors.New("unknown profit basis")
	ErrUnknownLiquidationBase = errors.New("unknown liquidation basis")
	ErrUnknownSeedPolicy      = errors.New("unknown seed policy")
)

// SimulationConfig holds all parameters for one simulation run.
// Constructed once per run and read-only thereafter.
type SimulationConfig struct {
	LoanPrincipal  float64 // borrowed amount, > 0
	LoanInterest   float64 // annual rate, e.g. 0.04
	DurationYears  int     // loan term in whole years, > 0
	PortfolioValue float64 // initial portfolio excluding borrowed funds, > 0
	MarginFraction float64 // maintenance margin fraction, [0, 1)
	JobLossProb    float64 // annual job loss probability, [0, 1]
	Volatility     float64 // stddev of the annual normal return draw, >= 0
	Repeats        int     // independent paths per regime, >= 1
	Seed           *int64  // optional; nil means a time-derived seed

	VaRConfidence    float64 // 0 means DefaultVaRConfidence
	ProfitBasis      string  // "" means ProfitBasisInitialEquity
	LiquidationBasis string  // "" means LiquidationBasisFlag
	SeedPolicy       string  // "" means SeedPolicyPerRun
}

// Validate checks all fields and fails fast before any simulation work.
// Returns the sentinel error for the first violated constraint.
// Degenerate-but-valid configs (zero volatility, zero job loss probability,
// liquidation threshold at or above total invested) pass validation.
func (c SimulationConfig) Validate() error {
	if c.LoanPrincipal <= 0 {
		return ErrNonPositiveLoan
	}
	if c.DurationYears <= 0 {
		return ErrNonPositiveDuration
	}
	if c.PortfolioValue <= 0 {
		return ErrNonPositivePortfolio
	}
	if c.MarginFraction < 0 || c.MarginFraction >= 1 {
		return ErrMarginOutOfRange
	}
	if c.JobLossProb < 0 || c.JobLossProb > 1 {
		return ErrJobLossProbOutOfRange
	}
	if c.Volatility < 0 {
		return ErrNegativeVolatility
	}
	if c.Repeats < 1 {
		return ErrNonPositiveRepeats
	}
	if c.VaRConfidence != 0 && (c.VaRConfidence <= 0 || c.VaRConfidence >= 1) {
		return ErrConfidenceOutOfRange
	}

	switch c.ProfitBasis {
	case "", ProfitBasisInitialEquity, ProfitBasisZero:
	default:
		return ErrUnknownProfitBasis
	}
	switch c.LiquidationBasis {
	case "", LiquidationBasisFlag, LiquidationBasisTerminalThreshold:
	default:
		return ErrUnknownLiquidationBase
	}
	switch c.SeedPolicy {
	case "", SeedPolicyPerRun, SeedPolicyPerRegime:
	default:
		return ErrUnknownSeedPolicy
	}

	return nil
}

// TotalInvested returns the initial portfolio value including borrowed funds.
func (c SimulationConfig) TotalInvested() float64 {
	return c.PortfolioValue + c.LoanPrincipal
}

// LiquidationThreshold returns the portfolio value below which the lender
// may force liquidation: loan / (1 - margin fraction), the value at which
// the investor's equity share drops to the maintenance margin.
func (c SimulationConfig) LiquidationThreshold() float64 {
	return c.LoanPrincipal / (1 - c.MarginFraction)
}

// LoanOwedAt returns the loan amount owed after the given number of elapsed
// whole years: principal * (1+rate)^years.
func (c SimulationConfig) LoanOwedAt(years int) float64 {
	return c.LoanPrincipal * math.Pow(1+c.LoanInterest, float64(years))
}

// TotalLoanRepayment returns the amount owed if the loan runs its full term.
func (c SimulationConfig) TotalLoanRepayment() float64 {
	return c.LoanOwedAt(c.DurationYears)
}

// BreakEven returns the profit threshold implied by the configured basis.
func (c SimulationConfig) BreakEven() float64 {
	if c.ProfitBasisOrDefault() == ProfitBasisZero {
		return 0
	}
	// Original equity: total invested minus loan principal.
	return c.TotalInvested() - c.LoanPrincipal
}

// Confidence returns the effective VaR confidence level.
func (c SimulationConfig) Confidence() float64 {
	if c.VaRConfidence == 0 {
		return DefaultVaRConfidence
	}
	return c.VaRConfidence
}

// ProfitBasisOrDefault returns the effective profit basis.
func (c SimulationConfig) ProfitBasisOrDefault() string {
	if c.ProfitBasis == "" {
		return ProfitBasisInitialEquity
	}
	return c.ProfitBasis
}

// LiquidationBasisOrDefault returns the effective liquidation basis.
func (c SimulationConfig) LiquidationBasisOrDefault() string {
	if c.LiquidationBasis == "" {
		return LiquidationBasisFlag
	}
	return c.LiquidationBasis
}

// SeedPolicyOrDefault returns the effective seed policy.
func (c SimulationConfig) SeedPolicyOrDefault() string {
	if c.SeedPolicy == "" {
		return SeedPolicyPerRun
	}
	return c.SeedPolicy
}
