package eligibility

import (
	"time"

	"github.com/shopspring/decimal"

	domain "raisegate/pkg/domain"
	dErrors "raisegate/pkg/domain-errors"
)

// Scheme is the closed set of tax-advantaged schemes a round can target.
// The closed variant keeps verdict aggregation exhaustive instead of
// string-compared.
type Scheme string

const (
	SchemeSEIS Scheme = "SEIS"
	SchemeEIS  Scheme = "EIS"
	SchemeBoth Scheme = "BOTH"
)

// Valid reports whether s is one of the known schemes.
func (s Scheme) Valid() bool {
	switch s {
	case SchemeSEIS, SchemeEIS, SchemeBoth:
		return true
	}
	return false
}

// Targets reports whether a round with this scheme targets the given single
// scheme. BOTH targets SEIS and EIS.
func (s Scheme) Targets(single Scheme) bool {
	return s == single || s == SchemeBoth
}

// ParseScheme validates a scheme at the trust boundary.
func ParseScheme(raw string) (Scheme, error) {
	s := Scheme(raw)
	if !s.Valid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "scheme must be one of SEIS, EIS, BOTH; got %q", raw)
	}
	return s, nil
}

// Verdict is the outcome of an eligibility evaluation. An ineligible company
// is a successful evaluation, not an error.
type Verdict string

const (
	VerdictEligible    Verdict = "eligible"
	VerdictConditional Verdict = "conditional"
	VerdictIneligible  Verdict = "ineligible"
)

// CompanyType is the legal form of the applicant company. Only a closed set
// is understood; unknown types are rejected at validation.
type CompanyType string

const (
	CompanyTypeLimited CompanyType = "ltd"
	CompanyTypePLC     CompanyType = "plc"
	CompanyTypeLLP     CompanyType = "llp"
	CompanyTypeCharity CompanyType = "charity"
)

// Valid reports whether t is a known company type.
func (t CompanyType) Valid() bool {
	switch t {
	case CompanyTypeLimited, CompanyTypePLC, CompanyTypeLLP, CompanyTypeCharity:
		return true
	}
	return false
}

// CompanySnapshot is the read-only view of a company supplied by the
// company-record collaborator for a single evaluation. The core never
// mutates or persists it.
type CompanySnapshot struct {
	IncorporatedOn  time.Time
	CompanyType     CompanyType
	Trading         bool
	GrossAssets     decimal.Decimal
	EmployeeCount   int
	SICCodes        []string
	PriorSEISRounds int
	PriorEISRounds  int
	HasParent       bool
	HasSubsidiaries bool
}

// FundingRoundSnapshot is the read-only view of the round under evaluation.
type FundingRoundSnapshot struct {
	Scheme             Scheme
	RaiseAmount        decimal.Decimal
	UseOfFunds         string
	FirstTimeApplicant bool
}

// Check records one individual test performed during an evaluation.
type Check struct {
	Name   string `json:"name"`
	Scheme Scheme `json:"scheme"`
	Passed bool   `json:"passed"`
}

// Result is an immutable eligibility evaluation outcome. Re-evaluation
// produces a new Result; prior ones are retained for audit.
type Result struct {
	ID          domain.ResultID
	CompanyID   domain.CompanyID
	RoundID     domain.RoundID
	Scheme      Scheme
	Verdict     Verdict
	Reasons     []string
	Checks      []Check
	EvaluatedAt time.Time
}
