package authorisation

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raisegate/internal/audit"
	domain "raisegate/pkg/domain"
	dErrors "raisegate/pkg/domain-errors"
	"raisegate/pkg/requestcontext"
)

func newTestService() (*Service, *audit.InMemoryStore) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditStore := audit.NewInMemoryStore()
	return NewService(NewInMemoryStore(), audit.NewPublisher(auditStore, logger), logger), auditStore
}

func TestGrant(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	t.Run("creates a valid authorisation and audits it", func(t *testing.T) {
		svc, auditStore := newTestService()
		companyID := domain.NewCompanyID()

		auth, err := svc.Grant(ctx, GrantRequest{
			CompanyID:   companyID,
			CompanyName: "Tessier Ltd",
			AgentName:   "A. Pauley",
			Scope:       "compliance",
			ExpiresAt:   now.AddDate(1, 0, 0),
		})
		require.NoError(t, err)
		assert.True(t, auth.Valid)
		assert.False(t, auth.ID.IsNil())
		assert.Equal(t, now, auth.CreatedAt)

		events, err := auditStore.ListByCompany(context.Background(), companyID.String())
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionAuthorisationGranted, events[0].Action)
	})

	t.Run("rejects expiry in the past", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Grant(ctx, GrantRequest{
			CompanyID:   domain.NewCompanyID(),
			CompanyName: "Tessier Ltd",
			AgentName:   "A. Pauley",
			ExpiresAt:   now.Add(-time.Hour),
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Grant(ctx, GrantRequest{
			CompanyID: domain.NewCompanyID(),
			ExpiresAt: now.Add(time.Hour),
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestGetAndList(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	svc, _ := newTestService()
	companyID := domain.NewCompanyID()

	granted, err := svc.Grant(ctx, GrantRequest{
		CompanyID:   companyID,
		CompanyName: "Tessier Ltd",
		AgentName:   "A. Pauley",
		Scope:       "compliance",
		ExpiresAt:   now.AddDate(1, 0, 0),
	})
	require.NoError(t, err)

	fetched, err := svc.Get(ctx, granted.ID)
	require.NoError(t, err)
	assert.Equal(t, granted.ID, fetched.ID)

	_, err = svc.Get(ctx, domain.NewAuthorisationID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	auths, err := svc.ListByCompany(ctx, companyID)
	require.NoError(t, err)
	assert.Len(t, auths, 1)
}
