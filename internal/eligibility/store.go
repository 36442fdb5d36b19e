package eligibility

import (
	"context"

	domain "raisegate/pkg/domain"
)

// ResultStore persists evaluation results for auditability. Results are
// append-only: a re-evaluation appends a new result and never touches prior
// ones.
type ResultStore interface {
	Append(ctx context.Context, result Result) error
	FindByID(ctx context.Context, id domain.ResultID) (Result, error)
	ListByRound(ctx context.Context, roundID domain.RoundID) ([]Result, error)
}
