// Command server exposes the simulation engine as a long-running service:
// POST /api/run triggers a simulation, /api/results lists stored results,
// /api/report renders them as Markdown, /ws streams per-regime results as
// they complete, /metrics exposes Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"lombard-risk-lab/internal/domain"
	"lombard-risk-lab/internal/observability"
	"lombard-risk-lab/internal/reporting"
	"lombard-risk-lab/internal/simulation"
	"lombard-risk-lab/internal/storage"
	chstore "lombard-risk-lab/internal/storage/clickhouse"
	"lombard-risk-lab/internal/storage/memory"
	"lombard-risk-lab/internal/storage/migrations"
	pgstore "lombard-risk-lab/internal/storage/postgres"
)

// Server holds all components of the service.
type Server struct {
	logger       *log.Logger
	metrics      *observability.Metrics
	resultStore  storage.RegimeResultStore
	outcomeStore storage.PathOutcomeStore
	hub          *hub
	upgrader     websocket.Upgrader
}

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (regime results)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (per-path outcomes)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")

	flag.Parse()

	logger := log.New(os.Stderr, "[server] ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Stores
	var resultStore storage.RegimeResultStore = memory.NewRegimeResultStore()
	var outcomeStore storage.PathOutcomeStore = memory.NewPathOutcomeStore()

	if !*useMemory {
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required when not using --use-memory")
		}

		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("postgres migrations: %v", err)
		}
		resultStore = pgstore.NewRegimeResultStore(pool)

		if *clickhouseDSN != "" {
			conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
			if err != nil {
				logger.Fatalf("clickhouse migrations: %v", err)
			}
			defer conn.Close()

			outcomeStore = chstore.NewPathOutcomeStore(conn)
		} else {
			outcomeStore = nil
		}
	}

	srv := &Server{
		logger:       logger,
		metrics:      observability.NewMetrics(""),
		resultStore:  resultStore,
		outcomeStore: outcomeStore,
		hub:          newHub(),
		upgrader:     websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/run", srv.handleRun)
	mux.HandleFunc("GET /api/results", srv.handleResults)
	mux.HandleFunc("GET /api/report", srv.handleReport)
	mux.HandleFunc("GET /ws", srv.handleWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	httpServer := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
		cancel()
	}()

	logger.Printf("Listening on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("http server: %v", err)
	}
}

// runRequest is the POST /api/run body.
type runRequest struct {
	LoanPrincipal    float64 `json:"loan_principal"`
	LoanInterest     float64 `json:"loan_interest"`
	DurationYears    int     `json:"duration_years"`
	PortfolioValue   float64 `json:"portfolio_value"`
	MarginFraction   float64 `json:"margin_fraction"`
	JobLossProb      float64 `json:"job_loss_prob"`
	Volatility       float64 `json:"volatility"`
	Repeats          int     `json:"repeats"`
	Seed             *int64  `json:"seed,omitempty"`
	VaRConfidence    float64 `json:"var_confidence,omitempty"`
	ProfitBasis      string  `json:"profit_basis,omitempty"`
	LiquidationBasis string  `json:"liquidation_basis,omitempty"`
	SeedPolicy       string  `json:"seed_policy,omitempty"`

	Regimes []struct {
		Name       string  `json:"name"`
		MeanReturn float64 `json:"mean_return"`
	} `json:"regimes"`
}

// regimeSummary is the per-regime response and websocket payload.
type regimeSummary struct {
	RunID      string       `json:"run_id"`
	RegimeName string       `json:"regime_name"`
	MeanReturn float64      `json:"mean_return"`
	Repeats    int          `json:"repeats"`
	Stats      regimeStatus `json:"stats"`
}

// regimeStatus mirrors domain.RegimeStats with wire field names.
type regimeStatus struct {
	ProfitProbability float64 `json:"profit_probability"`
	ExpectedValue     float64 `json:"expected_value"`
	ValueAtRisk       float64 `json:"value_at_risk"`
	LiquidationRate   float64 `json:"liquidation_rate"`
	Confidence        float64 `json:"confidence"`
}

// handleRun triggers one simulation run and responds with per-regime stats.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	cfg := domain.SimulationConfig{
		LoanPrincipal:    req.LoanPrincipal,
		LoanInterest:     req.LoanInterest,
		DurationYears:    req.DurationYears,
		PortfolioValue:   req.PortfolioValue,
		MarginFraction:   req.MarginFraction,
		JobLossProb:      req.JobLossProb,
		Volatility:       req.Volatility,
		Repeats:          req.Repeats,
		Seed:             req.Seed,
		VaRConfidence:    req.VaRConfidence,
		ProfitBasis:      req.ProfitBasis,
		LiquidationBasis: req.LiquidationBasis,
		SeedPolicy:       req.SeedPolicy,
	}

	regimes := make(domain.RegimeSet, len(req.Regimes))
	for i, reg := range req.Regimes {
		regimes[i] = domain.Regime{Name: reg.Name, MeanReturn: reg.MeanReturn}
	}

	runner := simulation.NewRunner(simulation.RunnerOptions{
		ResultStore:  s.resultStore,
		OutcomeStore: s.outcomeStore,
		OnRegimeResult: func(res *domain.RegimeResult) {
			s.metrics.PathsSimulated.Add(float64(len(res.NetValues)))
			s.metrics.LiquidationsObserved.Add(float64(res.Liquidations))
			s.hub.broadcast(toSummary(res))
		},
	})

	start := time.Now()
	results, err := runner.Run(r.Context(), cfg, regimes)
	s.metrics.RunDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.RunsTotal.WithLabelValues("error").Inc()
		status := http.StatusBadRequest
		if errors.Is(err, storage.ErrDuplicateKey) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}
	s.metrics.RunsTotal.WithLabelValues("ok").Inc()

	summaries := make([]regimeSummary, len(results))
	for i, res := range results {
		summaries[i] = toSummary(res)
	}

	s.logger.Printf("Run complete: %d regimes x %d repeats", len(regimes), cfg.Repeats)
	writeJSON(w, summaries)
}

// handleResults lists all stored regime results as summaries.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.resultStore.GetAll(r.Context())
	if err != nil {
		s.metrics.StoreErrors.WithLabelValues("regime_results").Inc()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	summaries := make([]regimeSummary, len(results))
	for i, res := range results {
		summaries[i] = toSummary(res)
	}
	writeJSON(w, summaries)
}

// handleReport renders all stored results as a Markdown report.
// An optional ?run_id= query restricts the report to one run.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	generator := reporting.NewGenerator(s.resultStore)

	var (
		report *reporting.Report
		err    error
	)
	if runID := r.URL.Query().Get("run_id"); runID != "" {
		report, err = generator.GenerateForRun(r.Context(), runID)
	} else {
		report, err = generator.Generate(r.Context())
	}
	if err != nil {
		s.metrics.StoreErrors.WithLabelValues("regime_results").Inc()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.metrics.ReportsGenerated.Inc()

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(reporting.RenderMarkdown(report)))
}

// handleWS upgrades the connection and streams regime results.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade: %v", err)
		return
	}
	s.hub.add(conn)

	// Reader loop only to detect close; the hub writes.
	go func() {
		defer s.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func toSummary(res *domain.RegimeResult) regimeSummary {
	return regimeSummary{
		RunID:      res.RunID,
		RegimeName: res.RegimeName,
		MeanReturn: res.MeanReturn,
		Repeats:    len(res.NetValues),
		Stats: regimeStatus{
			ProfitProbability: res.Stats.ProfitProbability,
			ExpectedValue:     res.Stats.ExpectedValue,
			ValueAtRisk:       res.Stats.ValueAtRisk,
			LiquidationRate:   res.Stats.LiquidationRate,
			Confidence:        res.Stats.Confidence,
		},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
