package handler

import (
	"strings"
	"time"

	compliance "raisegate/internal/compliance/service"
	domain "raisegate/pkg/domain"
	dErrors "raisegate/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// IssueSharesRequest is the HTTP request body for POST
// /compliance/rounds/{roundID}/issue.
type IssueSharesRequest struct {
	CompanyID string `json:"company_id"`
	IssuedOn  string `json:"issued_on"`

	parsed compliance.IssueSharesCommand
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *IssueSharesRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	companyID, err := domain.ParseCompanyID(strings.TrimSpace(r.CompanyID))
	if err != nil {
		return err
	}

	r.IssuedOn = strings.TrimSpace(r.IssuedOn)
	if r.IssuedOn == "" {
		return dErrors.New(dErrors.CodeValidation, "issued_on is required")
	}
	issuedOn, err := time.Parse(dateLayout, r.IssuedOn)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "issued_on must be a YYYY-MM-DD date")
	}

	r.parsed = compliance.IssueSharesCommand{
		CompanyID: companyID,
		IssuedOn:  issuedOn,
	}
	return nil
}

// Parsed returns the validated command, keyed by the round from the URL.
func (r *IssueSharesRequest) Parsed(roundID domain.RoundID) compliance.IssueSharesCommand {
	cmd := r.parsed
	cmd.RoundID = roundID
	return cmd
}

// RecordSubmissionRequest is the HTTP request body for POST
// /compliance/rounds/{roundID}/submission. IssuedOn is optional and covers
// the case where the share issue and the submission are reported together.
type RecordSubmissionRequest struct {
	CompanyID   string `json:"company_id"`
	SubmittedAt string `json:"submitted_at"`
	IssuedOn    string `json:"issued_on,omitempty"`

	parsed compliance.RecordSubmissionCommand
}

// Validate validates and parses the request.
func (r *RecordSubmissionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	companyID, err := domain.ParseCompanyID(strings.TrimSpace(r.CompanyID))
	if err != nil {
		return err
	}

	r.SubmittedAt = strings.TrimSpace(r.SubmittedAt)
	if r.SubmittedAt == "" {
		return dErrors.New(dErrors.CodeValidation, "submitted_at is required")
	}
	submittedAt, err := time.Parse(time.RFC3339, r.SubmittedAt)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "submitted_at must be an RFC3339 timestamp")
	}

	cmd := compliance.RecordSubmissionCommand{
		CompanyID:   companyID,
		SubmittedAt: submittedAt,
	}

	if issued := strings.TrimSpace(r.IssuedOn); issued != "" {
		issuedOn, err := time.Parse(dateLayout, issued)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "issued_on must be a YYYY-MM-DD date")
		}
		cmd.IssuedOn = &issuedOn
	}

	r.parsed = cmd
	return nil
}

// Parsed returns the validated command, keyed by the round from the URL.
func (r *RecordSubmissionRequest) Parsed(roundID domain.RoundID) compliance.RecordSubmissionCommand {
	cmd := r.parsed
	cmd.RoundID = roundID
	return cmd
}
