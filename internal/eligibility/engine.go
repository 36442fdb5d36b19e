package eligibility

import "time"

// Engine evaluates a company and funding round against the scheme rules.
// It is pure: no I/O, no clock reads. Given identical snapshots and the same
// asOf instant it always produces an identical result, which keeps the rules
// centralized and testable.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs every check for the round's target scheme and aggregates the
// verdict. Time-dependence (company age) comes from asOf, never from a wall
// clock. The returned Result carries no identifiers; the caller owns
// persistence and identity.
func (e *Engine) Evaluate(company CompanySnapshot, round FundingRoundSnapshot, asOf time.Time) Result {
	ev := &evaluation{}

	checkAge(ev, company, round.Scheme, asOf)
	checkOperatingStatus(ev, company, round.Scheme)
	checkStructure(ev, company, round.Scheme)
	checkPriorRounds(ev, company, round.Scheme)
	checkGrossAssets(ev, company, round.Scheme)
	checkEmployeeCount(ev, company, round.Scheme)
	checkUseOfFunds(ev, round, round.Scheme)
	checkRaiseAmount(ev, round, round.Scheme)

	verdict, reasons := ev.verdict()
	return Result{
		Scheme:      round.Scheme,
		Verdict:     verdict,
		Reasons:     reasons,
		Checks:      ev.checks,
		EvaluatedAt: asOf,
	}
}
