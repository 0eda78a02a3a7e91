package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/libklein/pypi-dependency-analysis/pkg/errors"
)

// MemoryStore is an in-process run archive for tests and single-shot use.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]Run)}
}

// Put archives a run.
func (s *MemoryStore) Put(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.RunID]; exists {
		return errors.New(errors.ErrCodeDuplicateRecord, "run already archived: %s", run.RunID)
	}
	s.runs[run.RunID] = run
	return nil
}

// Get retrieves a run by ID.
func (s *MemoryStore) Get(ctx context.Context, runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "run not found: %s", runID)
	}
	return &run, nil
}

// List returns runs newest first, summary tables stripped.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		run.Summaries = nil
		runs = append(runs, run)
	}
	slices.SortFunc(runs, func(a, b Run) int {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if a.CreatedAt.After(b.CreatedAt) {
				return -1
			}
			return 1
		}
		return strings.Compare(a.RunID, b.RunID)
	})
	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}
	return runs, nil
}

// Delete removes a run.
func (s *MemoryStore) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return errors.New(errors.ErrCodeNotFound, "run not found: %s", runID)
	}
	delete(s.runs, runID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
