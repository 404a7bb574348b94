// Command simulate runs the Lombard credit Monte Carlo simulation once and
// prints per-regime risk statistics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"lombard-risk-lab/internal/domain"
	"lombard-risk-lab/internal/simulation"
	"lombard-risk-lab/internal/storage"
	chstore "lombard-risk-lab/internal/storage/clickhouse"
	"lombard-risk-lab/internal/storage/migrations"
	"lombard-risk-lab/internal/storage/postgres"
)

const defaultRegimes = "Low Return (3%)=0.03,Mid Return (5%)=0.05,High Return (8%)=0.08"

func main() {
	// Loan and portfolio parameters
	loan := flag.Float64("loan", 50000, "Loan principal")
	rate := flag.Float64("rate", 0.04, "Annual loan interest rate")
	duration := flag.Int("duration", 5, "Loan duration in whole years")
	portfolio := flag.Float64("portfolio", 390000, "Initial portfolio value excluding borrowed funds")
	margin := flag.Float64("margin", 0.6, "Maintenance margin fraction [0,1)")
	jobLossProb := flag.Float64("job-loss-prob", 0.05, "Annual job loss probability [0,1]")
	volatility := flag.Float64("volatility", 0.15, "Annual return volatility (stddev)")
	repeats := flag.Int("repeats", 10000, "Independent paths per regime")
	seed := flag.Int64("seed", 0, "Pseudo-random seed (omit for a time-derived seed)")

	// Statistics options
	confidence := flag.Float64("var-confidence", domain.DefaultVaRConfidence, "VaR confidence level (0,1)")
	profitBasis := flag.String("profit-basis", domain.ProfitBasisInitialEquity, "Profit break-even basis: INITIAL_EQUITY or ZERO")
	liquidationBasis := flag.String("liquidation-basis", domain.LiquidationBasisFlag, "Liquidation counting basis: FLAG or TERMINAL_THRESHOLD")
	seedPolicy := flag.String("seed-policy", domain.SeedPolicyPerRun, "Seed policy: PER_RUN or PER_REGIME")

	// Regimes
	regimesFlag := flag.String("regimes", defaultRegimes, "Comma-separated name=meanReturn pairs")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (regime results)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (per-path outcomes)")
	persist := flag.Bool("persist", false, "Persist results to storage")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)

	cfg := domain.SimulationConfig{
		LoanPrincipal:    *loan,
		LoanInterest:     *rate,
		DurationYears:    *duration,
		PortfolioValue:   *portfolio,
		MarginFraction:   *margin,
		JobLossProb:      *jobLossProb,
		Volatility:       *volatility,
		Repeats:          *repeats,
		VaRConfidence:    *confidence,
		ProfitBasis:      strings.ToUpper(*profitBasis),
		LiquidationBasis: strings.ToUpper(*liquidationBasis),
		SeedPolicy:       strings.ToUpper(*seedPolicy),
	}

	// Seed is optional: only honored when explicitly set
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.Seed = seed
		}
	})

	regimes, err := parseRegimes(*regimesFlag)
	if err != nil {
		logger.Fatalf("invalid --regimes: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Create stores when persisting
	var resultStore storage.RegimeResultStore
	var outcomeStore storage.PathOutcomeStore

	if *persist {
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required with --persist (regime results)")
		}

		pool, err := postgres.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("postgres migrations: %v", err)
		}
		resultStore = postgres.NewRegimeResultStore(pool)

		if *clickhouseDSN != "" {
			conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
			if err != nil {
				logger.Fatalf("clickhouse migrations: %v", err)
			}
			defer conn.Close()

			outcomeStore = chstore.NewPathOutcomeStore(conn)
		}
	}

	runner := simulation.NewRunner(simulation.RunnerOptions{
		ResultStore:  resultStore,
		OutcomeStore: outcomeStore,
	})

	logger.Printf("Running simulation: %d regimes x %d repeats x %d years",
		len(regimes), cfg.Repeats, cfg.DurationYears)

	results, err := runner.Run(ctx, cfg, regimes)
	if err != nil {
		logger.Fatalf("simulation failed: %v", err)
	}

	if *outputJSON {
		printJSON(results)
	} else {
		printSummary(cfg, results)
	}
}

// parseRegimes parses "name=meanReturn,..." into an ordered regime set.
func parseRegimes(s string) (domain.RegimeSet, error) {
	var regimes domain.RegimeSet
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected name=meanReturn, got %q", pair)
		}
		mean, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("parse mean return for %q: %w", name, err)
		}
		regimes = append(regimes, domain.Regime{Name: strings.TrimSpace(name), MeanReturn: mean})
	}
	return regimes, nil
}

// printJSON outputs results as indented JSON without per-path sequences.
func printJSON(results []*domain.RegimeResult) {
	type statsJSON struct {
		ProfitProbability float64 `json:"profit_probability"`
		ExpectedValue     float64 `json:"expected_value"`
		ValueAtRisk       float64 `json:"value_at_risk"`
		LiquidationRate   float64 `json:"liquidation_rate"`
		Confidence        float64 `json:"confidence"`
	}
	type regimeJSON struct {
		RunID      string    `json:"run_id"`
		RegimeName string    `json:"regime_name"`
		MeanReturn float64   `json:"mean_return"`
		Repeats    int       `json:"repeats"`
		Stats      statsJSON `json:"stats"`
	}

	out := make([]regimeJSON, len(results))
	for i, r := range results {
		out[i] = regimeJSON{
			RunID:      r.RunID,
			RegimeName: r.RegimeName,
			MeanReturn: r.MeanReturn,
			Repeats:    len(r.NetValues),
			Stats: statsJSON{
				ProfitProbability: r.Stats.ProfitProbability,
				ExpectedValue:     r.Stats.ExpectedValue,
				ValueAtRisk:       r.Stats.ValueAtRisk,
				LiquidationRate:   r.Stats.LiquidationRate,
				Confidence:        r.Stats.Confidence,
			},
		}
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

// printSummary outputs a human-readable statistics table.
func printSummary(cfg domain.SimulationConfig, results []*domain.RegimeResult) {
	fmt.Println()
	fmt.Println("=== Simulation Summary Statistics ===")
	fmt.Printf("Total invested:        %.0f\n", cfg.TotalInvested())
	fmt.Printf("Liquidation threshold: %.0f\n", cfg.LiquidationThreshold())
	fmt.Printf("Full-term repayment:   %.0f\n", cfg.TotalLoanRepayment())
	fmt.Println()

	fmt.Printf("%-22s %12s %16s %14s %16s\n",
		"Regime", "Profit Prob.", "Expected Value",
		fmt.Sprintf("VaR %.0f%%", cfg.Confidence()*100), "Liquidation Risk")
	for _, r := range results {
		fmt.Printf("%-22s %11.2f%% %16.0f %14.0f %15.2f%%\n",
			r.RegimeName,
			r.Stats.ProfitProbability*100,
			r.Stats.ExpectedValue,
			r.Stats.ValueAtRisk,
			r.Stats.LiquidationRate*100,
		)
	}
}
