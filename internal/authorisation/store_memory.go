package authorisation

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "raisegate/pkg/domain"
	"raisegate/pkg/platform/sentinel"
)

// InMemoryStore keeps authorisations in process, for tests and DSN-less
// deployments.
type InMemoryStore struct {
	mu   sync.RWMutex
	byID map[domain.AuthorisationID]Authorisation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[domain.AuthorisationID]Authorisation)}
}

func (s *InMemoryStore) Create(_ context.Context, auth Authorisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[auth.ID]; exists {
		return sentinel.ErrConflict
	}
	s.byID[auth.ID] = auth
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.AuthorisationID) (*Authorisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if auth, ok := s.byID[id]; ok {
		copied := auth
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByCompany(_ context.Context, companyID domain.CompanyID) ([]Authorisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Authorisation
	for _, auth := range s.byID {
		if auth.CompanyID == companyID {
			out = append(out, auth)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemoryStore) ListExpiring(_ context.Context, now time.Time) ([]Authorisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Authorisation
	for _, auth := range s.byID {
		if auth.Valid && auth.Expired(now) {
			out = append(out, auth)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemoryStore) MarkInvalid(_ context.Context, id domain.AuthorisationID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	auth, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !auth.Valid {
		return sentinel.ErrInvalidState
	}
	auth.Valid = false
	auth.InvalidatedAt = &at
	s.byID[id] = auth
	return nil
}

// sortByCreation keeps listings deterministic regardless of map order.
func sortByCreation(auths []Authorisation) {
	sort.Slice(auths, func(i, j int) bool {
		if auths[i].CreatedAt.Equal(auths[j].CreatedAt) {
			return auths[i].ID.String() < auths[j].ID.String()
		}
		return auths[i].CreatedAt.Before(auths[j].CreatedAt)
	})
}
