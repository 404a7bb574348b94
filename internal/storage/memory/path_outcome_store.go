package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"lombard-risk-lab/internal/domain"
	"lombard-risk-lab/internal/storage"
)

// PathOutcomeStore is an in-memory implementation of storage.PathOutcomeStore.
type PathOutcomeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PathRecord // keyed by (run_id, regime_name, path_index)
}

// NewPathOutcomeStore creates a new in-memory path outcome store.
func NewPathOutcomeStore() *PathOutcomeStore {
	return &PathOutcomeStore{
		data: make(map[string]*domain.PathRecord),
	}
}

// recordKey generates a unique key for a path record.
func recordKey(runID, regimeName string, pathIndex int) string {
	return fmt.Sprintf("%s|%s|%d", runID, regimeName, pathIndex)
}

// InsertBulk adds multiple records. Fails entire batch on any duplicate.
func (s *PathOutcomeStore) InsertBulk(_ context.Context, records []*domain.PathRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(records))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range records {
		if r == nil || r.RunID == "" || r.RegimeName == "" || r.PathIndex < 0 {
			return storage.ErrInvalidInput
		}
		key := recordKey(r.RunID, r.RegimeName, r.PathIndex)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range records {
		recCopy := *r
		s.data[recordKey(r.RunID, r.RegimeName, r.PathIndex)] = &recCopy
	}

	return nil
}

// GetByRun retrieves all records for a (run_id, regime_name), ordered by path_index ASC.
func (s *PathOutcomeStore) GetByRun(_ context.Context, runID, regimeName string) ([]*domain.PathRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PathRecord
	for _, r := range s.data {
		if r.RunID == runID && r.RegimeName == regimeName {
			recCopy := *r
			result = append(result, &recCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PathIndex < result[j].PathIndex
	})

	return result, nil
}

var _ storage.PathOutcomeStore = (*PathOutcomeStore)(nil)
