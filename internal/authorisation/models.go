// Package authorisation tracks agent authority to act for a company.
// An authorisation is valid until it expires or is explicitly invalidated;
// the sweep flips expired ones so downstream collaborators stop relying on
// lapsed authority.
package authorisation

import (
	"time"

	domain "raisegate/pkg/domain"
	dErrors "raisegate/pkg/domain-errors"
)

// Authorisation records an agent's authority to act for a company under a
// given scope. Valid is stored, not derived: the expiry sweep flips it
// exactly once and stamps InvalidatedAt, so re-sweeps see it already
// invalid.
type Authorisation struct {
	ID            domain.AuthorisationID `json:"id"`
	CompanyID     domain.CompanyID       `json:"company_id"`
	CompanyName   string                 `json:"company_name"`
	AgentName     string                 `json:"agent_name"`
	Scope         string                 `json:"scope"`
	Valid         bool                   `json:"valid"`
	ExpiresAt     time.Time              `json:"expires_at"`
	CreatedAt     time.Time              `json:"created_at"`
	InvalidatedAt *time.Time             `json:"invalidated_at,omitempty"`
}

// Expired reports whether the authorisation has lapsed at the given time.
// Validity holds strictly before the expiry instant, so expiry == now
// already counts as lapsed.
func (a *Authorisation) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// GrantRequest carries the fields needed to grant a new authorisation.
type GrantRequest struct {
	CompanyID   domain.CompanyID
	CompanyName string
	AgentName   string
	Scope       string
	ExpiresAt   time.Time
}

func (r GrantRequest) validate(now time.Time) error {
	if r.CompanyID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "company id is required")
	}
	if r.CompanyName == "" {
		return dErrors.New(dErrors.CodeValidation, "company name is required")
	}
	if r.AgentName == "" {
		return dErrors.New(dErrors.CodeValidation, "agent name is required")
	}
	if r.ExpiresAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "expiry is required")
	}
	if !r.ExpiresAt.After(now) {
		return dErrors.New(dErrors.CodeValidation, "expiry must be in the future")
	}
	return nil
}
