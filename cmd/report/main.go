// Command report renders stored simulation results as Markdown and CSV.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"lombard-risk-lab/internal/reporting"
	"lombard-risk-lab/internal/storage/migrations"
	"lombard-risk-lab/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")
	runID := flag.String("run-id", "", "Restrict the report to one run (optional)")
	outputDir := flag.String("output-dir", ".", "Directory for REPORT.md and regime_stats.csv")

	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("postgres migrations: %v", err)
	}

	generator := reporting.NewGenerator(postgres.NewRegimeResultStore(pool))

	var report *reporting.Report
	if *runID != "" {
		report, err = generator.GenerateForRun(ctx, *runID)
	} else {
		report, err = generator.Generate(ctx)
	}
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("create output dir: %v", err)
	}

	mdPath := filepath.Join(*outputDir, "REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		logger.Fatalf("write %s: %v", mdPath, err)
	}

	csvPath := filepath.Join(*outputDir, "regime_stats.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.RegimeRows)), 0o644); err != nil {
		logger.Fatalf("write %s: %v", csvPath, err)
	}

	logger.Printf("Wrote %s and %s (%d regime rows)", mdPath, csvPath, len(report.RegimeRows))
}
