package storage

import (
	"context"

	"lombard-risk-lab/internal/domain"
)

// RegimeResultStore provides access to regime_results storage.
type RegimeResultStore interface {
	// Insert adds a new result. Returns ErrDuplicateKey if (run_id, regime_name) exists.
	Insert(ctx context.Context, r *domain.RegimeResult) error

	// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, results []*domain.RegimeResult) error

	// GetByKey retrieves a result by (run_id, regime_name). Returns ErrNotFound if not exists.
	GetByKey(ctx context.Context, runID, regimeName string) (*domain.RegimeResult, error)

	// GetByRunID retrieves all results for a run, in regime name order.
	GetByRunID(ctx context.Context, runID string) ([]*domain.RegimeResult, error)

	// GetAll retrieves all results.
	GetAll(ctx context.Context) ([]*domain.RegimeResult, error)
}

// PathOutcomeStore provides access to path_outcomes storage.
// Per-path rows are high volume (repeats x regimes per run).
type PathOutcomeStore interface {
	// InsertBulk adds multiple records. Fails entire batch on duplicate
	// (run_id, regime_name, path_index).
	InsertBulk(ctx context.Context, records []*domain.PathRecord) error

	// GetByRun retrieves all records for a (run_id, regime_name), ordered by path_index ASC.
	GetByRun(ctx context.Context, runID, regimeName string) ([]*domain.PathRecord, error)
}
