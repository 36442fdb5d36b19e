package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"raisegate/internal/sweep"
	dErrors "raisegate/pkg/domain-errors"
	"raisegate/pkg/platform/httputil"
	"raisegate/pkg/requestcontext"
)

// Runner defines the interface for triggering a sweep.
type Runner interface {
	Run(ctx context.Context) (*sweep.Report, error)
}

// Handler exposes the manual and scheduled sweep trigger. Authentication is
// a router concern (middleware.SweepTrigger); both paths land here so the
// report shape is identical.
type Handler struct {
	sweeper Runner
	logger  *slog.Logger
}

// New constructs a sweep handler with its dependencies.
func New(sweeper Runner, logger *slog.Logger) *Handler {
	return &Handler{sweeper: sweeper, logger: logger}
}

// Register mounts the sweep trigger on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/internal/sweep/run", h.HandleRun)
}

// HandleRun handles POST /internal/sweep/run.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	report, err := h.sweeper.Run(ctx)
	if err != nil {
		if errors.Is(err, sweep.ErrSweepInProgress) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "sweep already in progress"))
			return
		}
		h.logger.ErrorContext(ctx, "triggered sweep failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "sweep failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}
