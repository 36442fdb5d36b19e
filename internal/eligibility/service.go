package eligibility

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"raisegate/internal/audit"
	eligibilitymetrics "raisegate/internal/eligibility/metrics"
	domain "raisegate/pkg/domain"
	dErrors "raisegate/pkg/domain-errors"
	"raisegate/pkg/platform/sentinel"
	"raisegate/pkg/requestcontext"
)

var tracer = otel.Tracer("raisegate/eligibility")

// EvaluateRequest groups the validated inputs for one evaluation.
type EvaluateRequest struct {
	CompanyID domain.CompanyID
	RoundID   domain.RoundID
	Company   CompanySnapshot
	Round     FundingRoundSnapshot
}

// AuditPort defines the interface for emitting audit events. Defined here to
// keep the package's dependencies pointing inward.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates evaluations: validate, run the pure engine, persist
// the immutable result, and record the audit trail.
type Service struct {
	engine  *Engine
	results ResultStore
	audit   AuditPort
	logger  *slog.Logger
	metrics *eligibilitymetrics.Metrics
}

func NewService(results ResultStore, auditPort AuditPort, logger *slog.Logger, m *eligibilitymetrics.Metrics) *Service {
	return &Service{
		engine:  NewEngine(),
		results: results,
		audit:   auditPort,
		logger:  logger,
		metrics: m,
	}
}

// Evaluate validates the snapshots, evaluates the round as of the
// request-scoped time, and appends the result to the audit store. The
// evaluation itself never fails: an ineligible company is a valid outcome.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (*Result, error) {
	ctx, span := tracer.Start(ctx, "eligibility.Evaluate")
	defer span.End()
	start := time.Now()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	asOf := requestcontext.Now(ctx)
	result := s.engine.Evaluate(req.Company, req.Round, asOf)
	result.ID = domain.NewResultID()
	result.CompanyID = req.CompanyID
	result.RoundID = req.RoundID

	if err := s.results.Append(ctx, result); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist eligibility result")
	}

	if err := s.audit.Emit(ctx, audit.Event{
		Timestamp: asOf,
		Action:    audit.ActionEligibilityEvaluated,
		CompanyID: req.CompanyID.String(),
		RoundID:   req.RoundID.String(),
		Decision:  string(result.Verdict),
		Reason:    strings.Join(result.Reasons, "; "),
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.OperatorID(ctx),
	}); err != nil {
		// The result is already persisted; a failed audit append is logged,
		// not surfaced, so the caller still receives the verdict.
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", audit.ActionEligibilityEvaluated,
			"round_id", req.RoundID,
			"error", err,
		)
	}

	span.SetAttributes(
		attribute.String("scheme", string(result.Scheme)),
		attribute.String("verdict", string(result.Verdict)),
	)
	s.metrics.IncrementVerdict(string(result.Verdict), string(result.Scheme))
	s.metrics.ObserveEvaluateLatency(time.Since(start))

	return &result, nil
}

// GetResult returns a single persisted evaluation.
func (s *Service) GetResult(ctx context.Context, id domain.ResultID) (*Result, error) {
	result, err := s.results.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "eligibility result not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load eligibility result")
	}
	return &result, nil
}

// ListByRound returns every evaluation performed for a round, oldest first.
func (s *Service) ListByRound(ctx context.Context, roundID domain.RoundID) ([]Result, error) {
	if roundID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "round id is required")
	}
	results, err := s.results.ListByRound(ctx, roundID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list eligibility results")
	}
	return results, nil
}

// validateRequest rejects malformed snapshots before any rule runs so an
// evaluation is never partially performed over bad data.
func validateRequest(req EvaluateRequest) error {
	if req.CompanyID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "company id is required")
	}
	if req.RoundID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "round id is required")
	}
	if req.Company.IncorporatedOn.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "company incorporation date is required")
	}
	if !req.Company.CompanyType.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown company type %q", req.Company.CompanyType)
	}
	if req.Company.EmployeeCount < 0 {
		return dErrors.New(dErrors.CodeValidation, "employee count must not be negative")
	}
	if req.Company.GrossAssets.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "gross assets must not be negative")
	}
	if req.Company.PriorSEISRounds < 0 || req.Company.PriorEISRounds < 0 {
		return dErrors.New(dErrors.CodeValidation, "prior round counts must not be negative")
	}
	if !req.Round.Scheme.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "scheme must be one of SEIS, EIS, BOTH; got %q", req.Round.Scheme)
	}
	return nil
}
