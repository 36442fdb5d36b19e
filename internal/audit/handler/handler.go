package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"raisegate/internal/audit"
	domain "raisegate/pkg/domain"
	dErrors "raisegate/pkg/domain-errors"
	"raisegate/pkg/platform/httputil"
)

// Trail defines the interface for reading a company's audit trail.
type Trail interface {
	List(ctx context.Context, companyID string) ([]audit.Event, error)
}

// Handler exposes the audit trail to operators.
type Handler struct {
	trail  Trail
	logger *slog.Logger
}

// New constructs an audit handler with its dependencies.
func New(trail Trail, logger *slog.Logger) *Handler {
	return &Handler{trail: trail, logger: logger}
}

// Register mounts the audit endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/companies/{companyID}/audit", h.HandleListByCompany)
}

// EventResponse is the wire form of one audit event.
type EventResponse struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	CompanyID string    `json:"company_id,omitempty"`
	RoundID   string    `json:"round_id,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
}

// HandleListByCompany handles GET /companies/{companyID}/audit.
func (h *Handler) HandleListByCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := domain.ParseCompanyID(chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.trail.List(r.Context(), companyID.String())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "audit trail lookup failed",
			"company_id", companyID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit trail"))
		return
	}

	out := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, EventResponse{
			ID:        ev.ID.String(),
			Timestamp: ev.Timestamp,
			Action:    string(ev.Action),
			CompanyID: ev.CompanyID,
			RoundID:   ev.RoundID,
			Decision:  ev.Decision,
			Reason:    ev.Reason,
			RequestID: ev.RequestID,
			ActorID:   ev.ActorID,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
