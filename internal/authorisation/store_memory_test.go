package authorisation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	domain "raisegate/pkg/domain"
	"raisegate/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newAuth(valid bool, expiresAt time.Time) Authorisation {
	return Authorisation{
		ID:          domain.NewAuthorisationID(),
		CompanyID:   domain.NewCompanyID(),
		CompanyName: "Wintermute Ltd",
		AgentName:   "J. Marlowe",
		Scope:       "compliance",
		Valid:       valid,
		ExpiresAt:   expiresAt,
		CreatedAt:   s.now.Add(-24 * time.Hour),
	}
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	auth := s.newAuth(true, s.now.Add(time.Hour))
	s.Require().NoError(s.store.Create(context.Background(), auth))

	found, err := s.store.FindByID(context.Background(), auth.ID)
	s.Require().NoError(err)
	s.Equal(auth.CompanyName, found.CompanyName)
	s.True(found.Valid)
}

func (s *InMemoryStoreSuite) TestCreateDuplicateConflicts() {
	auth := s.newAuth(true, s.now.Add(time.Hour))
	s.Require().NoError(s.store.Create(context.Background(), auth))
	s.ErrorIs(s.store.Create(context.Background(), auth), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), domain.NewAuthorisationID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListExpiringSkipsValidAndAlreadyInvalid() {
	expired := s.newAuth(true, s.now.Add(-time.Hour))
	current := s.newAuth(true, s.now.Add(time.Hour))
	alreadyInvalid := s.newAuth(false, s.now.Add(-time.Hour))

	for _, a := range []Authorisation{expired, current, alreadyInvalid} {
		s.Require().NoError(s.store.Create(context.Background(), a))
	}

	expiring, err := s.store.ListExpiring(context.Background(), s.now)
	s.Require().NoError(err)
	s.Require().Len(expiring, 1)
	s.Equal(expired.ID, expiring[0].ID)
}

func (s *InMemoryStoreSuite) TestListExpiringIncludesExpiryAtExactInstant() {
	onTheDot := s.newAuth(true, s.now)
	s.Require().NoError(s.store.Create(context.Background(), onTheDot))

	expiring, err := s.store.ListExpiring(context.Background(), s.now)
	s.Require().NoError(err)
	s.Require().Len(expiring, 1)
	s.Equal(onTheDot.ID, expiring[0].ID)
}

func (s *InMemoryStoreSuite) TestMarkInvalidExactlyOnce() {
	auth := s.newAuth(true, s.now.Add(-time.Hour))
	s.Require().NoError(s.store.Create(context.Background(), auth))

	s.Require().NoError(s.store.MarkInvalid(context.Background(), auth.ID, s.now))

	found, err := s.store.FindByID(context.Background(), auth.ID)
	s.Require().NoError(err)
	s.False(found.Valid)
	s.Require().NotNil(found.InvalidatedAt)
	s.Equal(s.now, *found.InvalidatedAt)

	s.ErrorIs(s.store.MarkInvalid(context.Background(), auth.ID, s.now.Add(time.Minute)), sentinel.ErrInvalidState)
}

func (s *InMemoryStoreSuite) TestMarkInvalidMissing() {
	s.ErrorIs(s.store.MarkInvalid(context.Background(), domain.NewAuthorisationID(), s.now), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListByCompanyOrderedByCreation() {
	companyID := domain.NewCompanyID()
	older := s.newAuth(true, s.now.Add(time.Hour))
	older.CompanyID = companyID
	older.CreatedAt = s.now.Add(-48 * time.Hour)
	newer := s.newAuth(true, s.now.Add(time.Hour))
	newer.CompanyID = companyID
	other := s.newAuth(true, s.now.Add(time.Hour))

	for _, a := range []Authorisation{newer, older, other} {
		s.Require().NoError(s.store.Create(context.Background(), a))
	}

	auths, err := s.store.ListByCompany(context.Background(), companyID)
	s.Require().NoError(err)
	s.Require().Len(auths, 2)
	s.Equal(older.ID, auths[0].ID)
	s.Equal(newer.ID, auths[1].ID)
}
