package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"raisegate/internal/compliance/models"
	compliance "raisegate/internal/compliance/service"
	domain "raisegate/pkg/domain"
	"raisegate/pkg/platform/httputil"
	"raisegate/pkg/requestcontext"
)

// Service defines the interface for compliance record operations.
type Service interface {
	IssueShares(ctx context.Context, cmd compliance.IssueSharesCommand) (*compliance.Outcome, error)
	RecordSubmission(ctx context.Context, cmd compliance.RecordSubmissionCommand) (*compliance.Outcome, error)
	GetRecord(ctx context.Context, roundID domain.RoundID) (*models.Record, error)
}

// Handler wires compliance endpoints to the record manager.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a compliance handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts compliance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/compliance/rounds/{roundID}/issue", h.HandleIssueShares)
	r.Post("/compliance/rounds/{roundID}/submission", h.HandleRecordSubmission)
	r.Get("/compliance/rounds/{roundID}", h.HandleGetRecord)
}

// HandleIssueShares handles POST /compliance/rounds/{roundID}/issue.
func (h *Handler) HandleIssueShares(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	roundID, err := domain.ParseRoundID(chi.URLParam(r, "roundID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[IssueSharesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.service.IssueShares(ctx, req.Parsed(roundID))
	if err != nil {
		h.logger.ErrorContext(ctx, "share issue rejected",
			"request_id", requestID,
			"round_id", roundID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "share issue recorded",
		"request_id", requestID,
		"round_id", roundID,
		"state", outcome.Record.State(),
		"changed", outcome.Changed,
	)
	httputil.WriteJSON(w, http.StatusOK, FromOutcome(outcome, requestcontext.Now(ctx)))
}

// HandleRecordSubmission handles POST /compliance/rounds/{roundID}/submission.
func (h *Handler) HandleRecordSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	roundID, err := domain.ParseRoundID(chi.URLParam(r, "roundID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[RecordSubmissionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.service.RecordSubmission(ctx, req.Parsed(roundID))
	if err != nil {
		h.logger.ErrorContext(ctx, "submission rejected",
			"request_id", requestID,
			"round_id", roundID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "submission recorded",
		"request_id", requestID,
		"round_id", roundID,
		"state", outcome.Record.State(),
		"changed", outcome.Changed,
	)
	httputil.WriteJSON(w, http.StatusOK, FromOutcome(outcome, requestcontext.Now(ctx)))
}

// HandleGetRecord handles GET /compliance/rounds/{roundID}.
func (h *Handler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	roundID, err := domain.ParseRoundID(chi.URLParam(r, "roundID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.GetRecord(r.Context(), roundID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(record, requestcontext.Now(r.Context())))
}
