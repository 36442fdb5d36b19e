package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"raisegate/internal/eligibility"
	domain "raisegate/pkg/domain"
	"raisegate/pkg/platform/httputil"
	"raisegate/pkg/requestcontext"
)

// Service defines the interface for eligibility operations.
type Service interface {
	Evaluate(ctx context.Context, req eligibility.EvaluateRequest) (*eligibility.Result, error)
	GetResult(ctx context.Context, id domain.ResultID) (*eligibility.Result, error)
	ListByRound(ctx context.Context, roundID domain.RoundID) ([]eligibility.Result, error)
}

// Handler wires eligibility endpoints to the eligibility service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an eligibility handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts eligibility endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/eligibility/evaluate", h.HandleEvaluate)
	r.Get("/eligibility/results/{resultID}", h.HandleGetResult)
	r.Get("/eligibility/rounds/{roundID}/results", h.HandleListByRound)
}

// HandleEvaluate handles POST /eligibility/evaluate requests.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Evaluate(ctx, req.Parsed())
	if err != nil {
		h.logger.ErrorContext(ctx, "eligibility evaluation rejected",
			"request_id", requestID,
			"round_id", req.RoundID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "eligibility evaluated",
		"request_id", requestID,
		"round_id", req.RoundID,
		"scheme", result.Scheme,
		"verdict", result.Verdict,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleGetResult handles GET /eligibility/results/{resultID}.
func (h *Handler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	resultID, err := domain.ParseResultID(chi.URLParam(r, "resultID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.GetResult(r.Context(), resultID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleListByRound handles GET /eligibility/rounds/{roundID}/results.
func (h *Handler) HandleListByRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := domain.ParseRoundID(chi.URLParam(r, "roundID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	results, err := h.service.ListByRound(r.Context(), roundID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromResults(results))
}
