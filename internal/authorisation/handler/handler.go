package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"raisegate/internal/authorisation"
	domain "raisegate/pkg/domain"
	"raisegate/pkg/platform/httputil"
	"raisegate/pkg/requestcontext"
)

// Service defines the interface for authorisation operations.
type Service interface {
	Grant(ctx context.Context, req authorisation.GrantRequest) (*authorisation.Authorisation, error)
	Get(ctx context.Context, id domain.AuthorisationID) (*authorisation.Authorisation, error)
	ListByCompany(ctx context.Context, companyID domain.CompanyID) ([]authorisation.Authorisation, error)
}

// Handler wires authorisation endpoints to the authorisation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an authorisation handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts authorisation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/authorisations", h.HandleGrant)
	r.Get("/authorisations/{authorisationID}", h.HandleGet)
	r.Get("/companies/{companyID}/authorisations", h.HandleListByCompany)
}

// HandleGrant handles POST /authorisations.
func (h *Handler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[GrantRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	auth, err := h.service.Grant(ctx, req.Parsed())
	if err != nil {
		h.logger.ErrorContext(ctx, "authorisation grant rejected",
			"request_id", requestID,
			"company_id", req.CompanyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "authorisation granted",
		"request_id", requestID,
		"authorisation_id", auth.ID,
		"company_id", auth.CompanyID,
		"expires_at", auth.ExpiresAt,
	)
	httputil.WriteJSON(w, http.StatusCreated, auth)
}

// HandleGet handles GET /authorisations/{authorisationID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAuthorisationID(chi.URLParam(r, "authorisationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	auth, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, auth)
}

// HandleListByCompany handles GET /companies/{companyID}/authorisations.
func (h *Handler) HandleListByCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := domain.ParseCompanyID(chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	auths, err := h.service.ListByCompany(r.Context(), companyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if auths == nil {
		auths = []authorisation.Authorisation{}
	}
	httputil.WriteJSON(w, http.StatusOK, auths)
}
