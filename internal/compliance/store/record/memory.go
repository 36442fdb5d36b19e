package record

import (
	"context"
	"sync"

	"raisegate/internal/compliance/models"
	domain "raisegate/pkg/domain"
	"raisegate/pkg/platform/sentinel"
)

// InMemory keeps compliance records in process. Save enforces the same
// optimistic versioning contract as the postgres store so service tests
// exercise the conflict path.
type InMemory struct {
	mu      sync.RWMutex
	records map[domain.RoundID]*models.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[domain.RoundID]*models.Record)}
}

func (s *InMemory) FindByRound(_ context.Context, roundID domain.RoundID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[roundID]; ok {
		return record.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Save(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[record.RoundID]
	if ok && existing.Version != record.Version {
		return sentinel.ErrConflict
	}
	stored := record.Clone()
	stored.Version++
	s.records[record.RoundID] = stored
	record.Version = stored.Version
	return nil
}

func (s *InMemory) ListAwaiting(_ context.Context) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, record := range s.records {
		if record.State() == models.StateAwaitingSubmission {
			out = append(out, record.Clone())
		}
	}
	return out, nil
}
