package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "raisegate/pkg/domain"
	dErrors "raisegate/pkg/domain-errors"
)

var now = time.Date(2024, 4, 5, 9, 0, 0, 0, time.UTC)

func newRecord() *Record {
	return NewRecord(domain.NewCompanyID(), domain.NewRoundID(), now)
}

func TestStateDerivation(t *testing.T) {
	record := newRecord()
	assert.Equal(t, StateNoIssue, record.State())

	issuedOn := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, record.CanIssue())
	record.ApplyIssue(issuedOn, now)
	assert.Equal(t, StateAwaitingSubmission, record.State())

	record.ApplySubmit(now, now)
	assert.Equal(t, StateComplete, record.State())
}

func TestApplyIssue_StartsNinetyDayClock(t *testing.T) {
	record := newRecord()
	issuedOn := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	record.ApplyIssue(issuedOn, now)

	require.NotNil(t, record.ReminderDueAt)
	// 90 days after 2024-01-01 is 2024-03-31.
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), *record.ReminderDueAt)
}

func TestCanIssue_RefusesReissue(t *testing.T) {
	record := newRecord()
	record.ApplyIssue(now.AddDate(0, 0, -10), now)

	err := record.CanIssue()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestCanSubmit(t *testing.T) {
	t.Run("before issuance is an invalid transition", func(t *testing.T) {
		record := newRecord()
		err := record.CanSubmit()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("repeat submission is a conflict, distinguishable for no-op handling", func(t *testing.T) {
		record := newRecord()
		record.ApplyIssue(now.AddDate(0, 0, -10), now)
		record.ApplySubmit(now, now)

		err := record.CanSubmit()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func TestApplySubmit_ClearsReminder(t *testing.T) {
	record := newRecord()
	record.ApplyIssue(now.AddDate(0, 0, -10), now)
	require.NotNil(t, record.ReminderDueAt)

	record.ApplySubmit(now, now)

	assert.Nil(t, record.ReminderDueAt, "submitted record must not keep a dangling due date")
	require.NotNil(t, record.SubmittedAt)
	assert.Equal(t, now, *record.SubmittedAt)
}

func TestOverdue(t *testing.T) {
	record := newRecord()
	issuedOn := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	record.ApplyIssue(issuedOn, now)

	assert.False(t, record.Overdue(time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)))
	assert.True(t, record.Overdue(time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC)))

	record.ApplySubmit(now, now)
	assert.False(t, record.Overdue(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}
