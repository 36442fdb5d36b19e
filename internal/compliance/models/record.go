package models

import (
	"time"

	domain "raisegate/pkg/domain"
	dErrors "raisegate/pkg/domain-errors"
)

// SubmissionWindow is the fixed period after a share issue within which the
// scheme compliance form must be submitted. Not configurable per company.
const SubmissionWindow = 90 * 24 * time.Hour

// State is the derived lifecycle position of a compliance record.
type State string

const (
	StateNoIssue            State = "no_issue"
	StateAwaitingSubmission State = "awaiting_submission"
	StateComplete           State = "complete"
)

// Record tracks the post-issuance compliance clock for one funding round.
//
// Invariants:
//   - ReminderDueAt is set only when SharesIssuedOn is set, and always equals
//     SharesIssuedOn + SubmissionWindow
//   - SubmittedAt set implies ReminderDueAt is nil
//   - state transitions: NoIssue → AwaitingSubmission → Complete, one way
//
// State is derived from the timestamps rather than stored, so a record can
// never hold a status label that contradicts its dates. OVERDUE is likewise
// derived (awaiting submission with the due timestamp in the past).
type Record struct {
	CompanyID      domain.CompanyID `json:"company_id"`
	RoundID        domain.RoundID   `json:"round_id"`
	SharesIssuedOn *time.Time       `json:"shares_issued_on,omitempty"`
	ReminderDueAt  *time.Time       `json:"reminder_due_at,omitempty"`
	SubmittedAt    *time.Time       `json:"submitted_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	// Version guards the read-modify-write cycle in persistent stores.
	Version int64 `json:"-"`
}

func NewRecord(companyID domain.CompanyID, roundID domain.RoundID, now time.Time) *Record {
	return &Record{
		CompanyID: companyID,
		RoundID:   roundID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// State derives the lifecycle position from the timestamps.
func (r *Record) State() State {
	switch {
	case r.SubmittedAt != nil:
		return StateComplete
	case r.SharesIssuedOn != nil:
		return StateAwaitingSubmission
	default:
		return StateNoIssue
	}
}

// Overdue reports whether the submission window has lapsed without a
// submission. Always false outside AwaitingSubmission.
func (r *Record) Overdue(now time.Time) bool {
	return r.State() == StateAwaitingSubmission &&
		r.ReminderDueAt != nil &&
		now.After(*r.ReminderDueAt)
}

// CanIssue checks whether the "shares issued" event may be applied.
// Re-issuing past NoIssue would overwrite a compliance clock already in
// motion, so it is refused; callers treat it as a redundant update.
func (r *Record) CanIssue() error {
	if r.State() != StateNoIssue {
		return dErrors.New(dErrors.CodeConflict, "shares already issued for this round")
	}
	return nil
}

// ApplyIssue records the share issue and starts the 90-day clock.
// Call CanIssue first to validate the transition.
func (r *Record) ApplyIssue(issuedOn time.Time, now time.Time) {
	issued := issuedOn
	due := issuedOn.Add(SubmissionWindow)
	r.SharesIssuedOn = &issued
	r.ReminderDueAt = &due
	r.UpdatedAt = now
}

// CanSubmit checks whether the "submission recorded" event may be applied.
// Submission before issuance is an invalid transition; repeat submission is
// signalled separately so callers can treat it as an idempotent no-op.
func (r *Record) CanSubmit() error {
	switch r.State() {
	case StateNoIssue:
		return dErrors.New(dErrors.CodeInvariantViolation, "submission recorded before shares issued")
	case StateComplete:
		return dErrors.New(dErrors.CodeConflict, "submission already recorded")
	}
	return nil
}

// ApplySubmit records the submission and clears the reminder clock. The
// transition is irreversible; there is no un-submit.
func (r *Record) ApplySubmit(submittedAt time.Time, now time.Time) {
	submitted := submittedAt
	r.SubmittedAt = &submitted
	r.ReminderDueAt = nil
	r.UpdatedAt = now
}

// Clone returns a deep copy so stores can hand out records without sharing
// pointer fields with callers.
func (r *Record) Clone() *Record {
	out := *r
	out.SharesIssuedOn = cloneTime(r.SharesIssuedOn)
	out.ReminderDueAt = cloneTime(r.ReminderDueAt)
	out.SubmittedAt = cloneTime(r.SubmittedAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
