package eligibility

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Scheme limits. The EIS age bound extends to 10 years for
// knowledge-intensive companies; that category is not modeled yet, so the
// base bound applies to every company.
const (
	seisMaxAgeYears = 2.0
	eisMaxAgeYears  = 7.0

	// Companies House years, not calendar years.
	daysPerYear = 365.25

	// SEIS permits one prior SEIS round beyond the current application.
	seisMaxPriorRounds = 1

	seisMaxEmployees = 25
	eisMaxEmployees  = 250
)

var (
	seisMaxGrossAssets = decimal.NewFromInt(350_000)
	eisMaxGrossAssets  = decimal.NewFromInt(15_000_000)
)

// Check names, stable for audit consumers.
const (
	CheckAge             = "age"
	CheckOperatingStatus = "operating_status"
	CheckStructure       = "structure"
	CheckPriorRounds     = "prior_rounds"
	CheckGrossAssets     = "gross_assets"
	CheckEmployeeCount   = "employee_count"
	CheckUseOfFunds      = "use_of_funds"
	CheckRaiseAmount     = "raise_amount"
)

// evaluation accumulates checks, hard failures, and soft caveats in the
// order they were performed. Aggregation happens once at the end.
type evaluation struct {
	checks   []Check
	failures []string
	caveats  []string
}

func (e *evaluation) hard(name string, scheme Scheme, passed bool, reason string) {
	e.checks = append(e.checks, Check{Name: name, Scheme: scheme, Passed: passed})
	if !passed {
		e.failures = append(e.failures, reason)
	}
}

func (e *evaluation) soft(name string, scheme Scheme, passed bool, caveat string) {
	e.checks = append(e.checks, Check{Name: name, Scheme: scheme, Passed: passed})
	if !passed {
		e.caveats = append(e.caveats, caveat)
	}
}

// verdict applies the aggregation rule: any hard failure makes the whole
// evaluation ineligible with every failing reason kept; caveats alone make
// it conditional; otherwise eligible with no reasons.
func (e *evaluation) verdict() (Verdict, []string) {
	if len(e.failures) > 0 {
		reasons := append([]string{}, e.failures...)
		reasons = append(reasons, e.caveats...)
		return VerdictIneligible, reasons
	}
	if len(e.caveats) > 0 {
		return VerdictConditional, append([]string{}, e.caveats...)
	}
	return VerdictEligible, []string{}
}

// companyAgeYears computes the company age at asOf in fractional years.
func companyAgeYears(incorporatedOn, asOf time.Time) float64 {
	return asOf.Sub(incorporatedOn).Hours() / 24 / daysPerYear
}

func checkAge(e *evaluation, company CompanySnapshot, scheme Scheme, asOf time.Time) {
	age := companyAgeYears(company.IncorporatedOn, asOf)
	if scheme.Targets(SchemeSEIS) {
		passed := age < seisMaxAgeYears
		e.hard(CheckAge, SchemeSEIS, passed,
			fmt.Sprintf("SEIS: company must be younger than %d years at evaluation; it is %.1f years old", int(seisMaxAgeYears), age))
	}
	if scheme.Targets(SchemeEIS) {
		passed := age < eisMaxAgeYears
		e.hard(CheckAge, SchemeEIS, passed,
			fmt.Sprintf("EIS: company must be younger than %d years at evaluation; it is %.1f years old", int(eisMaxAgeYears), age))
	}
}

func checkOperatingStatus(e *evaluation, company CompanySnapshot, scheme Scheme) {
	e.hard(CheckOperatingStatus, scheme, company.Trading, "company is not active")
}

func checkStructure(e *evaluation, company CompanySnapshot, scheme Scheme) {
	// Ineligible legal forms are a hard failure; flagged structure
	// combinations on an otherwise eligible form are advisory only.
	switch company.CompanyType {
	case CompanyTypeLLP, CompanyTypeCharity:
		e.hard(CheckStructure, scheme, false,
			fmt.Sprintf("company type %q is not eligible for SEIS/EIS investment", company.CompanyType))
		return
	}
	if company.CompanyType == CompanyTypePLC && (company.HasParent || company.HasSubsidiaries) {
		e.soft(CheckStructure, scheme, false,
			"group structure requires review: a public company with a parent or subsidiaries may fail the independence condition")
		return
	}
	if company.HasParent {
		e.soft(CheckStructure, scheme, false,
			"company has a parent: the issuing company must not be controlled by another company")
		return
	}
	e.soft(CheckStructure, scheme, true, "")
}

func checkPriorRounds(e *evaluation, company CompanySnapshot, scheme Scheme) {
	if !scheme.Targets(SchemeSEIS) {
		return
	}
	passed := company.PriorSEISRounds <= seisMaxPriorRounds
	e.hard(CheckPriorRounds, SchemeSEIS, passed,
		fmt.Sprintf("SEIS: at most %d prior SEIS round is permitted; company has %d", seisMaxPriorRounds, company.PriorSEISRounds))
}

func checkGrossAssets(e *evaluation, company CompanySnapshot, scheme Scheme) {
	if scheme.Targets(SchemeSEIS) {
		passed := company.GrossAssets.LessThanOrEqual(seisMaxGrossAssets)
		e.hard(CheckGrossAssets, SchemeSEIS, passed,
			fmt.Sprintf("SEIS: gross assets must not exceed £%s immediately before the share issue", seisMaxGrossAssets.StringFixed(0)))
	}
	if scheme.Targets(SchemeEIS) {
		passed := company.GrossAssets.LessThanOrEqual(eisMaxGrossAssets)
		e.hard(CheckGrossAssets, SchemeEIS, passed,
			fmt.Sprintf("EIS: gross assets must not exceed £%s immediately before the share issue", eisMaxGrossAssets.StringFixed(0)))
	}
}

func checkEmployeeCount(e *evaluation, company CompanySnapshot, scheme Scheme) {
	if scheme.Targets(SchemeSEIS) {
		passed := company.EmployeeCount < seisMaxEmployees
		e.hard(CheckEmployeeCount, SchemeSEIS, passed,
			fmt.Sprintf("SEIS: company must have fewer than %d full-time equivalent employees; it has %d", seisMaxEmployees, company.EmployeeCount))
	}
	if scheme.Targets(SchemeEIS) {
		passed := company.EmployeeCount < eisMaxEmployees
		e.hard(CheckEmployeeCount, SchemeEIS, passed,
			fmt.Sprintf("EIS: company must have fewer than %d full-time equivalent employees; it has %d", eisMaxEmployees, company.EmployeeCount))
	}
}

func checkUseOfFunds(e *evaluation, round FundingRoundSnapshot, scheme Scheme) {
	e.hard(CheckUseOfFunds, scheme, strings.TrimSpace(round.UseOfFunds) != "",
		"a description of the intended use of funds is required")
}

func checkRaiseAmount(e *evaluation, round FundingRoundSnapshot, scheme Scheme) {
	e.hard(CheckRaiseAmount, scheme, round.RaiseAmount.IsPositive(),
		"the amount to raise must be a positive value")
}
