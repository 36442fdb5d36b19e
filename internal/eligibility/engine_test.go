package eligibility

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// eligibleCompany returns a snapshot that passes every check for both
// schemes; tests mutate the field under test.
func eligibleCompany() CompanySnapshot {
	return CompanySnapshot{
		IncorporatedOn:  asOf.AddDate(0, 0, -400),
		CompanyType:     CompanyTypeLimited,
		Trading:         true,
		GrossAssets:     decimal.NewFromInt(120_000),
		EmployeeCount:   8,
		SICCodes:        []string{"62012"},
		PriorSEISRounds: 0,
		PriorEISRounds:  0,
	}
}

func seisRound() FundingRoundSnapshot {
	return FundingRoundSnapshot{
		Scheme:             SchemeSEIS,
		RaiseAmount:        decimal.NewFromInt(150_000),
		UseOfFunds:         "working capital",
		FirstTimeApplicant: true,
	}
}

func TestEvaluate_EligibleSEIS(t *testing.T) {
	// Company incorporated 400 days before as-of, active, no prior SEIS
	// rounds, use of funds present, positive raise.
	result := NewEngine().Evaluate(eligibleCompany(), seisRound(), asOf)

	assert.Equal(t, VerdictEligible, result.Verdict)
	assert.Empty(t, result.Reasons)
	assert.Equal(t, asOf, result.EvaluatedAt)
	for _, check := range result.Checks {
		assert.True(t, check.Passed, "check %s should pass", check.Name)
	}
}

func TestEvaluate_AgeTest(t *testing.T) {
	t.Run("three year old company fails SEIS", func(t *testing.T) {
		company := eligibleCompany()
		company.IncorporatedOn = asOf.AddDate(-3, 0, 0)

		result := NewEngine().Evaluate(company, seisRound(), asOf)

		assert.Equal(t, VerdictIneligible, result.Verdict)
		require.NotEmpty(t, result.Reasons)
		assert.Contains(t, result.Reasons[0], "younger than 2 years")
	})

	t.Run("three year old company still passes EIS", func(t *testing.T) {
		company := eligibleCompany()
		company.IncorporatedOn = asOf.AddDate(-3, 0, 0)
		round := seisRound()
		round.Scheme = SchemeEIS

		result := NewEngine().Evaluate(company, round, asOf)

		assert.Equal(t, VerdictEligible, result.Verdict)
	})

	t.Run("eight year old company fails EIS", func(t *testing.T) {
		company := eligibleCompany()
		company.IncorporatedOn = asOf.AddDate(-8, 0, 0)
		round := seisRound()
		round.Scheme = SchemeEIS

		result := NewEngine().Evaluate(company, round, asOf)

		assert.Equal(t, VerdictIneligible, result.Verdict)
		assert.Contains(t, result.Reasons[0], "EIS")
	})

	t.Run("BOTH requires each scheme bound independently", func(t *testing.T) {
		company := eligibleCompany()
		company.IncorporatedOn = asOf.AddDate(-3, 0, 0) // fails SEIS, passes EIS
		round := seisRound()
		round.Scheme = SchemeBoth

		result := NewEngine().Evaluate(company, round, asOf)

		assert.Equal(t, VerdictIneligible, result.Verdict)
		require.Len(t, result.Reasons, 1)
		assert.Contains(t, result.Reasons[0], "SEIS")
		assert.Empty(t, reasonsMentioning(result, "7 years"))

		var ageChecks []Check
		for _, c := range result.Checks {
			if c.Name == CheckAge {
				ageChecks = append(ageChecks, c)
			}
		}
		require.Len(t, ageChecks, 2)
		assert.Equal(t, SchemeSEIS, ageChecks[0].Scheme)
		assert.False(t, ageChecks[0].Passed)
		assert.Equal(t, SchemeEIS, ageChecks[1].Scheme)
		assert.True(t, ageChecks[1].Passed)
	})
}

func TestEvaluate_OperatingStatus(t *testing.T) {
	company := eligibleCompany()
	company.Trading = false

	result := NewEngine().Evaluate(company, seisRound(), asOf)

	assert.Equal(t, VerdictIneligible, result.Verdict)
	assert.Contains(t, result.Reasons, "company is not active")
}

func TestEvaluate_Structure(t *testing.T) {
	t.Run("ineligible company type is a hard failure", func(t *testing.T) {
		company := eligibleCompany()
		company.CompanyType = CompanyTypeLLP

		result := NewEngine().Evaluate(company, seisRound(), asOf)

		assert.Equal(t, VerdictIneligible, result.Verdict)
	})

	t.Run("parent company is advisory only", func(t *testing.T) {
		company := eligibleCompany()
		company.HasParent = true

		result := NewEngine().Evaluate(company, seisRound(), asOf)

		assert.Equal(t, VerdictConditional, result.Verdict)
		require.Len(t, result.Reasons, 1)
		assert.Contains(t, result.Reasons[0], "parent")
	})

	t.Run("plc group structure is advisory only", func(t *testing.T) {
		company := eligibleCompany()
		company.CompanyType = CompanyTypePLC
		company.HasSubsidiaries = true

		result := NewEngine().Evaluate(company, seisRound(), asOf)

		assert.Equal(t, VerdictConditional, result.Verdict)
	})

	t.Run("subsidiaries alone do not caveat a limited company", func(t *testing.T) {
		company := eligibleCompany()
		company.HasSubsidiaries = true

		result := NewEngine().Evaluate(company, seisRound(), asOf)

		assert.Equal(t, VerdictEligible, result.Verdict)
	})
}

func TestEvaluate_PriorRounds(t *testing.T) {
	t.Run("second prior SEIS round fails SEIS", func(t *testing.T) {
		company := eligibleCompany()
		company.PriorSEISRounds = 2

		result := NewEngine().Evaluate(company, seisRound(), asOf)

		assert.Equal(t, VerdictIneligible, result.Verdict)
	})

	t.Run("one prior SEIS round is allowed", func(t *testing.T) {
		company := eligibleCompany()
		company.PriorSEISRounds = 1

		result := NewEngine().Evaluate(company, seisRound(), asOf)

		assert.Equal(t, VerdictEligible, result.Verdict)
	})

	t.Run("EIS has no prior round cap", func(t *testing.T) {
		company := eligibleCompany()
		company.PriorEISRounds = 5
		round := seisRound()
		round.Scheme = SchemeEIS

		result := NewEngine().Evaluate(company, round, asOf)

		assert.Equal(t, VerdictEligible, result.Verdict)
		for _, c := range result.Checks {
			assert.NotEqual(t, CheckPriorRounds, c.Name, "EIS-only rounds should not run the SEIS prior-rounds test")
		}
	})
}

func TestEvaluate_Limits(t *testing.T) {
	t.Run("gross assets over SEIS limit", func(t *testing.T) {
		company := eligibleCompany()
		company.GrossAssets = decimal.NewFromInt(400_000)

		result := NewEngine().Evaluate(company, seisRound(), asOf)

		assert.Equal(t, VerdictIneligible, result.Verdict)
	})

	t.Run("employee count at SEIS limit", func(t *testing.T) {
		company := eligibleCompany()
		company.EmployeeCount = 25

		result := NewEngine().Evaluate(company, seisRound(), asOf)

		assert.Equal(t, VerdictIneligible, result.Verdict)
	})
}

func TestEvaluate_RoundFields(t *testing.T) {
	t.Run("missing use of funds", func(t *testing.T) {
		round := seisRound()
		round.UseOfFunds = ""

		result := NewEngine().Evaluate(eligibleCompany(), round, asOf)

		assert.Equal(t, VerdictIneligible, result.Verdict)
	})

	t.Run("whitespace-only use of funds", func(t *testing.T) {
		round := seisRound()
		round.UseOfFunds = "   \t"

		result := NewEngine().Evaluate(eligibleCompany(), round, asOf)

		assert.Equal(t, VerdictIneligible, result.Verdict)
	})

	t.Run("non-positive raise is always ineligible", func(t *testing.T) {
		for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1)} {
			round := seisRound()
			round.RaiseAmount = amount

			result := NewEngine().Evaluate(eligibleCompany(), round, asOf)

			assert.Equal(t, VerdictIneligible, result.Verdict)
		}
	})
}

func TestEvaluate_AggregationKeepsAllFailures(t *testing.T) {
	company := eligibleCompany()
	company.Trading = false
	company.PriorSEISRounds = 3
	round := seisRound()
	round.UseOfFunds = " "

	result := NewEngine().Evaluate(company, round, asOf)

	assert.Equal(t, VerdictIneligible, result.Verdict)
	assert.Len(t, result.Reasons, 3)
}

func TestEvaluate_Deterministic(t *testing.T) {
	company := eligibleCompany()
	round := seisRound()

	first := NewEngine().Evaluate(company, round, asOf)
	second := NewEngine().Evaluate(company, round, asOf)

	assert.Equal(t, first, second)
}

func reasonsMentioning(result Result, substr string) []string {
	var out []string
	for _, r := range result.Reasons {
		if strings.Contains(r, substr) {
			out = append(out, r)
		}
	}
	return out
}
