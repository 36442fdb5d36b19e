package audit

import "context"

// Store is append-only persistence for audit events. Swap in-memory and
// postgres implementations without touching emitters.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCompany(ctx context.Context, companyID string) ([]Event, error)
}
