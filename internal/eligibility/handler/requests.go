package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"raisegate/internal/eligibility"
	domain "raisegate/pkg/domain"
	dErrors "raisegate/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// EvaluateRequest is the HTTP request body for POST /eligibility/evaluate.
// The company and round snapshots are supplied by value by the company-record
// collaborator; the core treats them as read-only.
type EvaluateRequest struct {
	CompanyID string                 `json:"company_id"`
	RoundID   string                 `json:"round_id"`
	Company   CompanySnapshotRequest `json:"company"`
	Round     RoundSnapshotRequest   `json:"round"`

	// Parsed values (populated by Validate)
	parsed eligibility.EvaluateRequest
}

// CompanySnapshotRequest is the wire form of a company snapshot.
type CompanySnapshotRequest struct {
	IncorporatedOn  string          `json:"incorporated_on"`
	CompanyType     string          `json:"company_type"`
	Trading         bool            `json:"trading"`
	GrossAssets     decimal.Decimal `json:"gross_assets"`
	EmployeeCount   int             `json:"employee_count"`
	SICCodes        []string        `json:"sic_codes"`
	PriorSEISRounds int             `json:"prior_seis_rounds"`
	PriorEISRounds  int             `json:"prior_eis_rounds"`
	HasParent       bool            `json:"has_parent"`
	HasSubsidiaries bool            `json:"has_subsidiaries"`
}

// RoundSnapshotRequest is the wire form of a funding round snapshot.
type RoundSnapshotRequest struct {
	Scheme             string          `json:"scheme"`
	RaiseAmount        decimal.Decimal `json:"raise_amount"`
	UseOfFunds         string          `json:"use_of_funds"`
	FirstTimeApplicant bool            `json:"first_time_applicant"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *EvaluateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	companyID, err := domain.ParseCompanyID(strings.TrimSpace(r.CompanyID))
	if err != nil {
		return err
	}
	roundID, err := domain.ParseRoundID(strings.TrimSpace(r.RoundID))
	if err != nil {
		return err
	}

	r.Company.IncorporatedOn = strings.TrimSpace(r.Company.IncorporatedOn)
	if r.Company.IncorporatedOn == "" {
		return dErrors.New(dErrors.CodeValidation, "company.incorporated_on is required")
	}
	incorporatedOn, err := time.Parse(dateLayout, r.Company.IncorporatedOn)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "company.incorporated_on must be a YYYY-MM-DD date")
	}

	scheme, err := eligibility.ParseScheme(strings.TrimSpace(r.Round.Scheme))
	if err != nil {
		return err
	}

	r.parsed = eligibility.EvaluateRequest{
		CompanyID: companyID,
		RoundID:   roundID,
		Company: eligibility.CompanySnapshot{
			IncorporatedOn:  incorporatedOn,
			CompanyType:     eligibility.CompanyType(strings.TrimSpace(r.Company.CompanyType)),
			Trading:         r.Company.Trading,
			GrossAssets:     r.Company.GrossAssets,
			EmployeeCount:   r.Company.EmployeeCount,
			SICCodes:        r.Company.SICCodes,
			PriorSEISRounds: r.Company.PriorSEISRounds,
			PriorEISRounds:  r.Company.PriorEISRounds,
			HasParent:       r.Company.HasParent,
			HasSubsidiaries: r.Company.HasSubsidiaries,
		},
		Round: eligibility.FundingRoundSnapshot{
			Scheme:             scheme,
			RaiseAmount:        r.Round.RaiseAmount,
			UseOfFunds:         strings.TrimSpace(r.Round.UseOfFunds),
			FirstTimeApplicant: r.Round.FirstTimeApplicant,
		},
	}
	return nil
}

// Parsed returns the validated domain request.
func (r *EvaluateRequest) Parsed() eligibility.EvaluateRequest {
	return r.parsed
}
