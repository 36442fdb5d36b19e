package authorisation

import (
	"context"
	"errors"
	"log/slog"

	"raisegate/internal/audit"
	domain "raisegate/pkg/domain"
	dErrors "raisegate/pkg/domain-errors"
	"raisegate/pkg/platform/sentinel"
	"raisegate/pkg/requestcontext"
)

// AuditPort defines the interface for emitting audit events.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service grants and lists authorisations. Expiry is owned by the sweep,
// not by this service.
type Service struct {
	store  Store
	audit  AuditPort
	logger *slog.Logger
}

func NewService(store Store, auditPort AuditPort, logger *slog.Logger) *Service {
	return &Service{store: store, audit: auditPort, logger: logger}
}

// Grant creates a new valid authorisation.
func (s *Service) Grant(ctx context.Context, req GrantRequest) (*Authorisation, error) {
	now := requestcontext.Now(ctx)
	if err := req.validate(now); err != nil {
		return nil, err
	}

	auth := Authorisation{
		ID:          domain.NewAuthorisationID(),
		CompanyID:   req.CompanyID,
		CompanyName: req.CompanyName,
		AgentName:   req.AgentName,
		Scope:       req.Scope,
		Valid:       true,
		ExpiresAt:   req.ExpiresAt,
		CreatedAt:   now,
	}
	if err := s.store.Create(ctx, auth); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store authorisation")
	}

	if err := s.audit.Emit(ctx, audit.Event{
		Timestamp: now,
		Action:    audit.ActionAuthorisationGranted,
		CompanyID: auth.CompanyID.String(),
		Reason:    auth.Scope,
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.OperatorID(ctx),
	}); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", audit.ActionAuthorisationGranted,
			"authorisation_id", auth.ID,
			"error", err,
		)
	}
	return &auth, nil
}

// ListByCompany returns all authorisations for a company, oldest first.
func (s *Service) ListByCompany(ctx context.Context, companyID domain.CompanyID) ([]Authorisation, error) {
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "company id is required")
	}
	auths, err := s.store.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list authorisations")
	}
	return auths, nil
}

// Get returns a single authorisation by ID.
func (s *Service) Get(ctx context.Context, id domain.AuthorisationID) (*Authorisation, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "authorisation id is required")
	}
	auth, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "authorisation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load authorisation")
	}
	return auth, nil
}
