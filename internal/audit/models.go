package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names an auditable domain event.
type Action string

const (
	ActionEligibilityEvaluated Action = "eligibility.evaluated"
	ActionSharesIssued         Action = "compliance.shares_issued"
	ActionSubmissionRecorded   Action = "compliance.submission_recorded"
	ActionAuthorisationGranted Action = "authorisation.granted"
	ActionAuthorisationExpired Action = "authorisation.expired"
	ActionSweepCompleted       Action = "sweep.completed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Timestamp time.Time
	Action    Action
	CompanyID string
	RoundID   string
	Decision  string
	Reason    string
	RequestID string
	ActorID   string
}
