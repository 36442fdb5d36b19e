package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raisegate/internal/audit"
	"raisegate/internal/compliance/models"
	"raisegate/internal/compliance/store/record"
	domain "raisegate/pkg/domain"
	dErrors "raisegate/pkg/domain-errors"
	"raisegate/pkg/requestcontext"
)

var (
	now      = time.Date(2024, 4, 5, 9, 0, 0, 0, time.UTC)
	issuedOn = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager() (*Manager, *record.InMemory, *audit.InMemoryStore) {
	store := record.NewInMemory()
	auditStore := audit.NewInMemoryStore()
	publisher := audit.NewPublisher(auditStore, testLogger())
	return NewManager(store, publisher, testLogger(), nil), store, auditStore
}

func testCtx() context.Context {
	return requestcontext.WithTime(context.Background(), now)
}

func TestIssueShares(t *testing.T) {
	t.Run("creates record and starts the clock", func(t *testing.T) {
		mgr, _, auditStore := newTestManager()
		companyID, roundID := domain.NewCompanyID(), domain.NewRoundID()

		out, err := mgr.IssueShares(testCtx(), IssueSharesCommand{
			CompanyID: companyID, RoundID: roundID, IssuedOn: issuedOn,
		})
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.Equal(t, models.StateAwaitingSubmission, out.Record.State())
		require.NotNil(t, out.Record.ReminderDueAt)
		assert.Equal(t, issuedOn.Add(models.SubmissionWindow), *out.Record.ReminderDueAt)

		events, err := auditStore.ListByCompany(context.Background(), companyID.String())
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionSharesIssued, events[0].Action)
	})

	t.Run("re-issue is a signalled no-op preserving the original clock", func(t *testing.T) {
		mgr, _, _ := newTestManager()
		companyID, roundID := domain.NewCompanyID(), domain.NewRoundID()

		first, err := mgr.IssueShares(testCtx(), IssueSharesCommand{
			CompanyID: companyID, RoundID: roundID, IssuedOn: issuedOn,
		})
		require.NoError(t, err)

		second, err := mgr.IssueShares(testCtx(), IssueSharesCommand{
			CompanyID: companyID, RoundID: roundID, IssuedOn: issuedOn.AddDate(0, 1, 0),
		})
		require.NoError(t, err)
		assert.False(t, second.Changed)
		assert.Equal(t, *first.Record.ReminderDueAt, *second.Record.ReminderDueAt)
	})

	t.Run("rejects zero issue date", func(t *testing.T) {
		mgr, _, _ := newTestManager()
		_, err := mgr.IssueShares(testCtx(), IssueSharesCommand{
			CompanyID: domain.NewCompanyID(), RoundID: domain.NewRoundID(),
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestRecordSubmission(t *testing.T) {
	t.Run("completes an awaiting record and clears the due date", func(t *testing.T) {
		mgr, _, _ := newTestManager()
		companyID, roundID := domain.NewCompanyID(), domain.NewRoundID()

		_, err := mgr.IssueShares(testCtx(), IssueSharesCommand{
			CompanyID: companyID, RoundID: roundID, IssuedOn: issuedOn,
		})
		require.NoError(t, err)

		out, err := mgr.RecordSubmission(testCtx(), RecordSubmissionCommand{
			CompanyID: companyID, RoundID: roundID, SubmittedAt: now,
		})
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.Equal(t, models.StateComplete, out.Record.State())
		assert.Nil(t, out.Record.ReminderDueAt)
	})

	t.Run("is idempotent", func(t *testing.T) {
		mgr, store, _ := newTestManager()
		companyID, roundID := domain.NewCompanyID(), domain.NewRoundID()

		_, err := mgr.IssueShares(testCtx(), IssueSharesCommand{
			CompanyID: companyID, RoundID: roundID, IssuedOn: issuedOn,
		})
		require.NoError(t, err)

		first, err := mgr.RecordSubmission(testCtx(), RecordSubmissionCommand{
			CompanyID: companyID, RoundID: roundID, SubmittedAt: now,
		})
		require.NoError(t, err)

		second, err := mgr.RecordSubmission(testCtx(), RecordSubmissionCommand{
			CompanyID: companyID, RoundID: roundID, SubmittedAt: now.Add(time.Hour),
		})
		require.NoError(t, err)
		assert.False(t, second.Changed)
		assert.Equal(t, *first.Record.SubmittedAt, *second.Record.SubmittedAt)

		stored, err := store.FindByRound(context.Background(), roundID)
		require.NoError(t, err)
		assert.Equal(t, *first.Record.SubmittedAt, *stored.SubmittedAt)
	})

	t.Run("before issuance is an invalid transition", func(t *testing.T) {
		mgr, _, _ := newTestManager()
		_, err := mgr.RecordSubmission(testCtx(), RecordSubmissionCommand{
			CompanyID: domain.NewCompanyID(), RoundID: domain.NewRoundID(), SubmittedAt: now,
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("issue and submission reported atomically complete directly", func(t *testing.T) {
		mgr, _, _ := newTestManager()
		companyID, roundID := domain.NewCompanyID(), domain.NewRoundID()
		issued := issuedOn

		out, err := mgr.RecordSubmission(testCtx(), RecordSubmissionCommand{
			CompanyID: companyID, RoundID: roundID, SubmittedAt: now, IssuedOn: &issued,
		})
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.Equal(t, models.StateComplete, out.Record.State())
		assert.Nil(t, out.Record.ReminderDueAt, "atomic issue+submit must not leave a dangling due date")
		require.NotNil(t, out.Record.SharesIssuedOn)
		assert.Equal(t, issued, *out.Record.SharesIssuedOn)
	})
}

func TestConcurrentEventsSerialize(t *testing.T) {
	mgr, store, _ := newTestManager()
	companyID, roundID := domain.NewCompanyID(), domain.NewRoundID()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = mgr.IssueShares(testCtx(), IssueSharesCommand{
					CompanyID: companyID, RoundID: roundID, IssuedOn: issuedOn,
				})
			} else {
				_, _ = mgr.RecordSubmission(testCtx(), RecordSubmissionCommand{
					CompanyID: companyID, RoundID: roundID, SubmittedAt: now,
				})
			}
		}(i)
	}
	wg.Wait()

	stored, err := store.FindByRound(context.Background(), roundID)
	require.NoError(t, err)
	// Whatever the interleaving, the invariants hold.
	if stored.SubmittedAt != nil {
		assert.Nil(t, stored.ReminderDueAt)
	}
	if stored.ReminderDueAt != nil {
		require.NotNil(t, stored.SharesIssuedOn)
		assert.Equal(t, stored.SharesIssuedOn.Add(models.SubmissionWindow), *stored.ReminderDueAt)
	}
}
