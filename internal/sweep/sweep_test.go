package sweep_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"raisegate/internal/audit"
	"raisegate/internal/authorisation"
	"raisegate/internal/compliance/models"
	"raisegate/internal/compliance/store/record"
	"raisegate/internal/sweep"
	"raisegate/internal/sweep/mocks"
	domain "raisegate/pkg/domain"
	"raisegate/pkg/requestcontext"
)

var sweepNow = time.Date(2024, 4, 5, 10, 0, 0, 0, time.UTC)

type fixture struct {
	records  *record.InMemory
	auths    *authorisation.InMemoryStore
	notifier *mocks.MockNotifier
	sweeper  *sweep.Sweeper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	records := record.NewInMemory()
	auths := authorisation.NewInMemoryStore()
	notifier := mocks.NewMockNotifier(gomock.NewController(t))
	sweeper := sweep.New(
		records,
		auths,
		sweep.NewAuthorisationDirectory(auths),
		notifier,
		sweep.NewLocalLock(),
		audit.NewPublisher(audit.NewInMemoryStore(), logger),
		logger,
		nil,
	)
	return &fixture{records: records, auths: auths, notifier: notifier, sweeper: sweeper}
}

func (f *fixture) addAwaitingRecord(t *testing.T, issuedOn time.Time) *models.Record {
	t.Helper()
	rec := models.NewRecord(domain.NewCompanyID(), domain.NewRoundID(), issuedOn)
	rec.ApplyIssue(issuedOn, issuedOn)
	require.NoError(t, f.records.Save(context.Background(), rec))
	return rec
}

func (f *fixture) addAuthorisation(t *testing.T, name string, valid bool, expiresAt time.Time) authorisation.Authorisation {
	t.Helper()
	auth := authorisation.Authorisation{
		ID:          domain.NewAuthorisationID(),
		CompanyID:   domain.NewCompanyID(),
		CompanyName: name,
		AgentName:   "B. Case",
		Scope:       "compliance",
		Valid:       valid,
		ExpiresAt:   expiresAt,
		CreatedAt:   expiresAt.AddDate(-1, 0, 0),
	}
	require.NoError(t, f.auths.Create(context.Background(), auth))
	return auth
}

func runCtx() context.Context {
	return requestcontext.WithTime(context.Background(), sweepNow)
}

func TestRunReportsOverdueSubmission(t *testing.T) {
	f := newFixture(t)
	// Issued 2024-01-01, so the 90-day window ends 2024-03-31.
	f.addAwaitingRecord(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	report, err := f.sweeper.Run(runCtx())
	require.NoError(t, err)
	assert.Equal(t, 1, report.RemindersSent)
	assert.Zero(t, report.RemindersFailed)
	require.Len(t, report.Items, 1)
	item := report.Items[0]
	assert.Equal(t, sweep.TypeComplianceSubmissionDue, item.Type)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), item.DueAt)
	assert.Equal(t, 5, item.OverdueDays)
}

func TestRunSkipsRecordsNotYetDue(t *testing.T) {
	f := newFixture(t)
	f.addAwaitingRecord(t, sweepNow.AddDate(0, 0, -10))

	report, err := f.sweeper.Run(runCtx())
	require.NoError(t, err)
	assert.Empty(t, report.Items)
	assert.Zero(t, report.RemindersSent)
}

func TestRunClampsOverdueDays(t *testing.T) {
	f := newFixture(t)
	// Due exactly at the sweep time: included, zero days overdue.
	issued := sweepNow.Add(-models.SubmissionWindow)
	f.addAwaitingRecord(t, issued)
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	report, err := f.sweeper.Run(runCtx())
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, 0, report.Items[0].OverdueDays)
}

func TestExpiryPassFlipsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	yesterday := sweepNow.AddDate(0, 0, -1)
	auth := f.addAuthorisation(t, "Straylight Ltd", true, yesterday)
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	report, err := f.sweeper.Run(runCtx())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ExpiredAuthorisationsMarked)
	require.Len(t, report.Items, 1)
	assert.Equal(t, sweep.TypeAuthorisationExpired, report.Items[0].Type)
	assert.Equal(t, "Straylight Ltd", report.Items[0].CompanyName)
	assert.Equal(t, 1, report.Items[0].OverdueDays)

	stored, err := f.auths.FindByID(context.Background(), auth.ID)
	require.NoError(t, err)
	assert.False(t, stored.Valid)

	// Second run the same day: already flipped, nothing to report.
	rerun, err := f.sweeper.Run(runCtx())
	require.NoError(t, err)
	assert.Zero(t, rerun.ExpiredAuthorisationsMarked)
	assert.Empty(t, rerun.Items)
}

func TestExpiryPassFlipsAtExactExpiryInstant(t *testing.T) {
	f := newFixture(t)
	// Expires exactly at the sweep time: validity holds strictly before
	// expiry, so this grant must flip now rather than on tomorrow's run.
	auth := f.addAuthorisation(t, "Tessier Ltd", true, sweepNow)
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	report, err := f.sweeper.Run(runCtx())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ExpiredAuthorisationsMarked)
	require.Len(t, report.Items, 1)
	assert.Equal(t, sweep.TypeAuthorisationExpired, report.Items[0].Type)
	assert.Equal(t, 0, report.Items[0].OverdueDays)

	stored, err := f.auths.FindByID(context.Background(), auth.ID)
	require.NoError(t, err)
	assert.False(t, stored.Valid)
}

func TestMalformedRecordSkippedNotMerged(t *testing.T) {
	f := newFixture(t)
	broken := models.NewRecord(domain.NewCompanyID(), domain.NewRoundID(), sweepNow.AddDate(0, -4, 0))
	broken.ApplyIssue(sweepNow.AddDate(0, -4, 0), sweepNow.AddDate(0, -4, 0))
	broken.ReminderDueAt = nil
	require.NoError(t, f.records.Save(context.Background(), broken))
	f.addAwaitingRecord(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	report, err := f.sweeper.Run(runCtx())
	require.NoError(t, err)
	assert.Equal(t, 1, report.MalformedSkipped)
	assert.Len(t, report.Items, 1, "malformed record must not appear in the overdue list")
}

func TestNotifierFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t)
	f.addAwaitingRecord(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	f.addAwaitingRecord(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	f.addAuthorisation(t, "Freeside Ltd", true, sweepNow.AddDate(0, 0, -3))

	gomock.InOrder(
		f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down")),
		f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil),
		f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil),
	)

	report, err := f.sweeper.Run(runCtx())
	require.NoError(t, err)
	assert.Equal(t, 2, report.RemindersSent)
	assert.Equal(t, 1, report.RemindersFailed)
	assert.Len(t, report.Items, 3)
}

func TestRunReturnsErrSweepInProgressWhenLocked(t *testing.T) {
	f := newFixture(t)
	lock := sweep.NewLocalLock()
	held, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	defer held()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := sweep.New(
		f.records,
		f.auths,
		sweep.NewAuthorisationDirectory(f.auths),
		f.notifier,
		lock,
		audit.NewPublisher(audit.NewInMemoryStore(), logger),
		logger,
		nil,
	)

	_, err = sweeper.Run(runCtx())
	assert.ErrorIs(t, err, sweep.ErrSweepInProgress)
}

func TestCompanyNameResolvedFromAuthorisations(t *testing.T) {
	f := newFixture(t)
	rec := f.addAwaitingRecord(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, f.auths.Create(context.Background(), authorisation.Authorisation{
		ID:          domain.NewAuthorisationID(),
		CompanyID:   rec.CompanyID,
		CompanyName: "Maas Biolabs Ltd",
		AgentName:   "B. Case",
		Valid:       true,
		ExpiresAt:   sweepNow.AddDate(1, 0, 0),
		CreatedAt:   sweepNow.AddDate(-1, 0, 0),
	}))
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	report, err := f.sweeper.Run(runCtx())
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, "Maas Biolabs Ltd", report.Items[0].CompanyName)
}
