package eligibility

import (
	"context"
	"sync"

	domain "raisegate/pkg/domain"
	"raisegate/pkg/platform/sentinel"
)

// InMemoryResultStore keeps evaluation results in process. It intentionally
// favors clarity over performance.
type InMemoryResultStore struct {
	mu      sync.RWMutex
	byID    map[domain.ResultID]Result
	byRound map[domain.RoundID][]domain.ResultID
}

func NewInMemoryResultStore() *InMemoryResultStore {
	return &InMemoryResultStore{
		byID:    make(map[domain.ResultID]Result),
		byRound: make(map[domain.RoundID][]domain.ResultID),
	}
}

func (s *InMemoryResultStore) Append(_ context.Context, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[result.ID]; exists {
		return sentinel.ErrConflict
	}
	s.byID[result.ID] = result
	s.byRound[result.RoundID] = append(s.byRound[result.RoundID], result.ID)
	return nil
}

func (s *InMemoryResultStore) FindByID(_ context.Context, id domain.ResultID) (Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if result, ok := s.byID[id]; ok {
		return result, nil
	}
	return Result{}, sentinel.ErrNotFound
}

func (s *InMemoryResultStore) ListByRound(_ context.Context, roundID domain.RoundID) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byRound[roundID]
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		results = append(results, s.byID[id])
	}
	return results, nil
}
