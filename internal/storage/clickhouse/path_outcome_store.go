package clickhouse

import (
	"context"
	"fmt"

	"lombard-risk-lab/internal/domain"
	"lombard-risk-lab/internal/storage"
)

// PathOutcomeStore implements storage.PathOutcomeStore using ClickHouse.
// Per-path rows are high volume (repeats x regimes per run), which is the
// MergeTree sweet spot; regime-level results stay in Postgres.
type PathOutcomeStore struct {
	conn *Conn
}

// NewPathOutcomeStore creates a new PathOutcomeStore.
func NewPathOutcomeStore(conn *Conn) *PathOutcomeStore {
	return &PathOutcomeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PathOutcomeStore = (*PathOutcomeStore)(nil)

// InsertBulk adds multiple records. Fails entire batch on duplicate
// (run_id, regime_name, path_index). MergeTree does not enforce uniqueness
// at insert time, so duplicates are checked explicitly per (run, regime):
// a run_id is a content hash, so re-running the same configuration is the
// only way to collide.
func (s *PathOutcomeStore) InsertBulk(ctx context.Context, records []*domain.PathRecord) error {
	if len(records) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		runID      string
		regimeName string
		pathIndex  int
	}
	seen := make(map[key]struct{}, len(records))
	groups := make(map[[2]string]struct{})
	for _, r := range records {
		k := key{r.RunID, r.RegimeName, r.PathIndex}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		groups[[2]string{r.RunID, r.RegimeName}] = struct{}{}
	}

	// Check for duplicates against existing DB rows, one probe per group
	for g := range groups {
		exists, err := s.exists(ctx, g[0], g[1])
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO path_outcomes (
			run_id, regime_name, path_index, net_value, liquidated, exit_year
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		liquidated := uint8(0)
		if r.Liquidated {
			liquidated = 1
		}
		err = batch.Append(
			r.RunID, r.RegimeName, uint32(r.PathIndex),
			r.NetValue, liquidated, uint16(r.ExitYear),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRun retrieves all records for a (run_id, regime_name), ordered by path_index ASC.
func (s *PathOutcomeStore) GetByRun(ctx context.Context, runID, regimeName string) ([]*domain.PathRecord, error) {
	query := `
		SELECT run_id, regime_name, path_index, net_value, liquidated, exit_year
		FROM path_outcomes
		WHERE run_id = ? AND regime_name = ?
		ORDER BY path_index ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, regimeName)
	if err != nil {
		return nil, fmt.Errorf("query path outcomes: %w", err)
	}
	defer rows.Close()

	var records []*domain.PathRecord
	for rows.Next() {
		var (
			r          domain.PathRecord
			pathIndex  uint32
			liquidated uint8
			exitYear   uint16
		)
		if err := rows.Scan(&r.RunID, &r.RegimeName, &pathIndex, &r.NetValue, &liquidated, &exitYear); err != nil {
			return nil, fmt.Errorf("scan path outcome: %w", err)
		}
		r.PathIndex = int(pathIndex)
		r.Liquidated = liquidated != 0
		r.ExitYear = int(exitYear)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate path outcomes: %w", err)
	}

	return records, nil
}

// exists checks whether any row is stored for (run_id, regime_name).
func (s *PathOutcomeStore) exists(ctx context.Context, runID, regimeName string) (bool, error) {
	query := `
		SELECT count() FROM path_outcomes
		WHERE run_id = ? AND regime_name = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID, regimeName).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
