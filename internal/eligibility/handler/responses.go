package handler

import (
	"time"

	"raisegate/internal/eligibility"
)

// EvaluateResponse is the HTTP response for POST /eligibility/evaluate and
// the element type for the round results listing.
type EvaluateResponse struct {
	ID          string              `json:"id"`
	CompanyID   string              `json:"company_id"`
	RoundID     string              `json:"round_id"`
	Scheme      string              `json:"scheme"`
	Verdict     string              `json:"verdict"`
	Reasons     []string            `json:"reasons"`
	Checks      []eligibility.Check `json:"checks"`
	EvaluatedAt time.Time           `json:"evaluated_at"`
}

// FromResult converts a domain Result to an HTTP response.
func FromResult(result *eligibility.Result) *EvaluateResponse {
	return &EvaluateResponse{
		ID:          result.ID.String(),
		CompanyID:   result.CompanyID.String(),
		RoundID:     result.RoundID.String(),
		Scheme:      string(result.Scheme),
		Verdict:     string(result.Verdict),
		Reasons:     result.Reasons,
		Checks:      result.Checks,
		EvaluatedAt: result.EvaluatedAt,
	}
}

// FromResults converts a result list, preserving evaluation order.
func FromResults(results []eligibility.Result) []*EvaluateResponse {
	out := make([]*EvaluateResponse, 0, len(results))
	for i := range results {
		out = append(out, FromResult(&results[i]))
	}
	return out
}
