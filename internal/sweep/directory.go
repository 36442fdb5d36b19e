package sweep

import (
	"context"

	"raisegate/internal/authorisation"
	domain "raisegate/pkg/domain"
	"raisegate/pkg/platform/sentinel"
)

// AuthorisationDirectory resolves company names from the authorisation
// store, which is the only place the core keeps a display name. The most
// recent grant wins.
type AuthorisationDirectory struct {
	store authorisation.Store
}

func NewAuthorisationDirectory(store authorisation.Store) *AuthorisationDirectory {
	return &AuthorisationDirectory{store: store}
}

func (d *AuthorisationDirectory) CompanyName(ctx context.Context, companyID domain.CompanyID) (string, error) {
	auths, err := d.store.ListByCompany(ctx, companyID)
	if err != nil {
		return "", err
	}
	for i := len(auths) - 1; i >= 0; i-- {
		if auths[i].CompanyName != "" {
			return auths[i].CompanyName, nil
		}
	}
	return "", sentinel.ErrNotFound
}
