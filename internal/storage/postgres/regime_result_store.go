package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lombard-risk-lab/internal/domain"
	"lombard-risk-lab/internal/storage"
)

// RegimeResultStore implements storage.RegimeResultStore using PostgreSQL.
// Net value sequences are stored as double precision arrays alongside the
// frozen statistics.
type RegimeResultStore struct {
	pool *Pool
}

// NewRegimeResultStore creates a new RegimeResultStore.
func NewRegimeResultStore(pool *Pool) *RegimeResultStore {
	return &RegimeResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RegimeResultStore = (*RegimeResultStore)(nil)

const insertResultQuery = `
	INSERT INTO regime_results (
		run_id, regime_name, mean_return,
		net_values, liquidations,
		profit_probability, expected_value, value_at_risk, liquidation_rate, confidence
	) VALUES (
		$1, $2, $3,
		$4, $5,
		$6, $7, $8, $9, $10
	)
`

const selectResultColumns = `
	run_id, regime_name, mean_return,
	net_values, liquidations,
	profit_probability, expected_value, value_at_risk, liquidation_rate, confidence
`

// Insert adds a new result. Returns ErrDuplicateKey if (run_id, regime_name) exists.
func (s *RegimeResultStore) Insert(ctx context.Context, r *domain.RegimeResult) error {
	_, err := s.pool.Exec(ctx, insertResultQuery,
		r.RunID, r.RegimeName, r.MeanReturn,
		r.NetValues, r.Liquidations,
		r.Stats.ProfitProbability, r.Stats.ExpectedValue, r.Stats.ValueAtRisk,
		r.Stats.LiquidationRate, r.Stats.Confidence,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert regime result: %w", err)
	}
	return nil
}

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *RegimeResultStore) InsertBulk(ctx context.Context, results []*domain.RegimeResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range results {
		_, err := tx.Exec(ctx, insertResultQuery,
			r.RunID, r.RegimeName, r.MeanReturn,
			r.NetValues, r.Liquidations,
			r.Stats.ProfitProbability, r.Stats.ExpectedValue, r.Stats.ValueAtRisk,
			r.Stats.LiquidationRate, r.Stats.Confidence,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert regime result in batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByKey retrieves a result by (run_id, regime_name). Returns ErrNotFound if not exists.
func (s *RegimeResultStore) GetByKey(ctx context.Context, runID, regimeName string) (*domain.RegimeResult, error) {
	query := `SELECT ` + selectResultColumns + `
		FROM regime_results
		WHERE run_id = $1 AND regime_name = $2
	`

	row := s.pool.QueryRow(ctx, query, runID, regimeName)
	r, err := scanResult(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get regime result by key: %w", err)
	}
	return r, nil
}

// GetByRunID retrieves all results for a run, ordered by regime name.
func (s *RegimeResultStore) GetByRunID(ctx context.Context, runID string) ([]*domain.RegimeResult, error) {
	query := `SELECT ` + selectResultColumns + `
		FROM regime_results
		WHERE run_id = $1
		ORDER BY regime_name ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query regime results by run: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// GetAll retrieves all results, ordered by run then regime name.
func (s *RegimeResultStore) GetAll(ctx context.Context) ([]*domain.RegimeResult, error) {
	query := `SELECT ` + selectResultColumns + `
		FROM regime_results
		ORDER BY run_id ASC, regime_name ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all regime results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// scanResult scans one row into a RegimeResult.
func scanResult(row pgx.Row) (*domain.RegimeResult, error) {
	var r domain.RegimeResult
	err := row.Scan(
		&r.RunID, &r.RegimeName, &r.MeanReturn,
		&r.NetValues, &r.Liquidations,
		&r.Stats.ProfitProbability, &r.Stats.ExpectedValue, &r.Stats.ValueAtRisk,
		&r.Stats.LiquidationRate, &r.Stats.Confidence,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// scanResults scans all rows into RegimeResults.
func scanResults(rows pgx.Rows) ([]*domain.RegimeResult, error) {
	var results []*domain.RegimeResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan regime result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regime results: %w", err)
	}
	return results, nil
}
