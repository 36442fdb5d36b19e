package authorisation

import (
	"context"
	"time"

	domain "raisegate/pkg/domain"
)

// Store persists authorisations.
//
// MarkInvalid must be a compare-and-set on the valid flag: it returns
// sentinel.ErrInvalidState when the authorisation is already invalid, so a
// concurrent or repeated sweep never double-counts a flip.
type Store interface {
	Create(ctx context.Context, auth Authorisation) error
	FindByID(ctx context.Context, id domain.AuthorisationID) (*Authorisation, error)
	ListByCompany(ctx context.Context, companyID domain.CompanyID) ([]Authorisation, error)
	// ListExpiring returns authorisations still marked valid whose expiry
	// has passed at the given time.
	ListExpiring(ctx context.Context, now time.Time) ([]Authorisation, error)
	MarkInvalid(ctx context.Context, id domain.AuthorisationID, at time.Time) error
}
