package handler

import (
	"strings"
	"time"

	"raisegate/internal/authorisation"
	domain "raisegate/pkg/domain"
	dErrors "raisegate/pkg/domain-errors"
)

// GrantRequest is the HTTP request body for POST /authorisations.
type GrantRequest struct {
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	AgentName   string    `json:"agent_name"`
	Scope       string    `json:"scope"`
	ExpiresAt   time.Time `json:"expires_at"`

	parsed authorisation.GrantRequest
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *GrantRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	companyID, err := domain.ParseCompanyID(strings.TrimSpace(r.CompanyID))
	if err != nil {
		return err
	}

	r.parsed = authorisation.GrantRequest{
		CompanyID:   companyID,
		CompanyName: strings.TrimSpace(r.CompanyName),
		AgentName:   strings.TrimSpace(r.AgentName),
		Scope:       strings.TrimSpace(r.Scope),
		ExpiresAt:   r.ExpiresAt,
	}
	return nil
}

// Parsed returns the validated domain request.
func (r *GrantRequest) Parsed() authorisation.GrantRequest {
	return r.parsed
}
