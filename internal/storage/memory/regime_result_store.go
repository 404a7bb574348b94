package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"lombard-risk-lab/internal/domain"
	"lombard-risk-lab/internal/storage"
)

// RegimeResultStore is an in-memory implementation of storage.RegimeResultStore.
type RegimeResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RegimeResult // keyed by composite key
}

// NewRegimeResultStore creates a new in-memory regime result store.
func NewRegimeResultStore() *RegimeResultStore {
	return &RegimeResultStore{
		data: make(map[string]*domain.RegimeResult),
	}
}

// resultKey generates a unique key for a result.
func resultKey(runID, regimeName string) string {
	return fmt.Sprintf("%s|%s", runID, regimeName)
}

// cloneResult copies a result including its net value sequence.
func cloneResult(r *domain.RegimeResult) *domain.RegimeResult {
	resCopy := *r
	resCopy.NetValues = make([]float64, len(r.NetValues))
	copy(resCopy.NetValues, r.NetValues)
	return &resCopy
}

// Insert adds a new result. Returns ErrDuplicateKey if (run_id, regime_name) exists.
func (s *RegimeResultStore) Insert(_ context.Context, r *domain.RegimeResult) error {
	if r == nil || r.RunID == "" || r.RegimeName == "" {
		return storage.ErrInvalidInput
	}

	key := resultKey(r.RunID, r.RegimeName)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = cloneResult(r)
	return nil
}

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *RegimeResultStore) InsertBulk(_ context.Context, results []*domain.RegimeResult) error {
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(results))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range results {
		if r == nil || r.RunID == "" || r.RegimeName == "" {
			return storage.ErrInvalidInput
		}
		key := resultKey(r.RunID, r.RegimeName)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range results {
		s.data[resultKey(r.RunID, r.RegimeName)] = cloneResult(r)
	}

	return nil
}

// GetByKey retrieves a result by (run_id, regime_name). Returns ErrNotFound if not exists.
func (s *RegimeResultStore) GetByKey(_ context.Context, runID, regimeName string) (*domain.RegimeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[resultKey(runID, regimeName)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return cloneResult(r), nil
}

// GetByRunID retrieves all results for a run, sorted by regime name.
func (s *RegimeResultStore) GetByRunID(_ context.Context, runID string) ([]*domain.RegimeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RegimeResult
	for _, r := range s.data {
		if r.RunID == runID {
			result = append(result, cloneResult(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RegimeName < result[j].RegimeName
	})

	return result, nil
}

// GetAll retrieves all results, sorted by run then regime name.
func (s *RegimeResultStore) GetAll(_ context.Context) ([]*domain.RegimeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RegimeResult
	for _, r := range s.data {
		result = append(result, cloneResult(r))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RunID != result[j].RunID {
			return result[i].RunID < result[j].RunID
		}
		return result[i].RegimeName < result[j].RegimeName
	})

	return result, nil
}

var _ storage.RegimeResultStore = (*RegimeResultStore)(nil)
