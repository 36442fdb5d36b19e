package handler

import (
	"time"

	"raisegate/internal/compliance/models"
	compliance "raisegate/internal/compliance/service"
)

// RecordResponse is the HTTP shape of a compliance record. State and the
// overdue flag are derived server-side so clients never see a label that
// contradicts the dates.
type RecordResponse struct {
	CompanyID      string     `json:"company_id"`
	RoundID        string     `json:"round_id"`
	State          string     `json:"state"`
	SharesIssuedOn *time.Time `json:"shares_issued_on"`
	ReminderDueAt  *time.Time `json:"reminder_due_at"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	Overdue        bool       `json:"overdue"`
	Changed        *bool      `json:"changed,omitempty"`
}

// FromRecord converts a domain Record to an HTTP response.
func FromRecord(record *models.Record, now time.Time) *RecordResponse {
	return &RecordResponse{
		CompanyID:      record.CompanyID.String(),
		RoundID:        record.RoundID.String(),
		State:          string(record.State()),
		SharesIssuedOn: record.SharesIssuedOn,
		ReminderDueAt:  record.ReminderDueAt,
		SubmittedAt:    record.SubmittedAt,
		Overdue:        record.Overdue(now),
	}
}

// FromOutcome converts an event outcome, carrying the changed flag so
// callers can distinguish a state change from a redundant update.
func FromOutcome(outcome *compliance.Outcome, now time.Time) *RecordResponse {
	resp := FromRecord(outcome.Record, now)
	changed := outcome.Changed
	resp.Changed = &changed
	return resp
}
