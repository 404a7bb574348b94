package simulation

import "lombard-risk-lab/internal/domain"

// SimulatePath runs one independent realization of the leveraged portfolio
// over the loan term, year by year:
//  1. Draw an annual return ~ N(meanReturn, volatility) and apply it
//     multiplicatively (discrete annual compounding, i.i.d. across years).
//  2. Draw an independent Bernoulli job-loss event.
//  3. Force liquidation only when both the job was lost and the portfolio
//     value is below the liquidation threshold in the same year; the loan
//     owed at that point accrues for the elapsed whole years only.
//  4. A path surviving the full term repays the full-term loan accrual.
//
// The source is consumed in a fixed order per year (return draw, then
// job-loss draw) so that fixed-seed runs are bit-reproducible. The job-loss
// draw is consumed even when the probability is zero, keeping stream
// alignment independent of parameter values.
func SimulatePath(cfg domain.SimulationConfig, meanReturn float64, src Source) domain.PathOutcome {
	value := cfg.TotalInvested()
	threshold := cfg.LiquidationThreshold()

	for year := 1; year <= cfg.DurationYears; year++ {
		yearlyReturn := meanReturn + cfg.Volatility*src.NormFloat64()
		value *= 1 + yearlyReturn

		jobLost := src.Float64() < cfg.JobLossProb

		if jobLost && value < threshold {
			return domain.PathOutcome{
				NetValue:   value - cfg.LoanOwedAt(year),
				Liquidated: true,
				ExitYear:   year,
			}
		}
	}

	return domain.PathOutcome{
		NetValue: value - cfg.TotalLoanRepayment(),
		ExitYear: cfg.DurationYears,
	}
}
