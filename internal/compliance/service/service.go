package service

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"raisegate/internal/audit"
	compliancemetrics "raisegate/internal/compliance/metrics"
	"raisegate/internal/compliance/models"
	domain "raisegate/pkg/domain"
	dErrors "raisegate/pkg/domain-errors"
	"raisegate/pkg/platform/sentinel"
	"raisegate/pkg/requestcontext"
)

var tracer = otel.Tracer("raisegate/compliance")

// RecordStore persists compliance records. Save must be an atomic upsert:
// implementations compare the record version and return sentinel.ErrConflict
// when another writer got there first.
type RecordStore interface {
	FindByRound(ctx context.Context, roundID domain.RoundID) (*models.Record, error)
	Save(ctx context.Context, record *models.Record) error
	ListAwaiting(ctx context.Context) ([]*models.Record, error)
}

// AuditPort defines the interface for emitting audit events.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Outcome reports the record after an event and whether the event changed
// it. Redundant updates (re-issue, repeat submission) return the record
// unchanged with Changed=false rather than an error, so callers can tell a
// no-op apart from a state change without string-matching.
type Outcome struct {
	Record  *models.Record
	Changed bool
}

// IssueSharesCommand reports that shares were issued for a round.
type IssueSharesCommand struct {
	CompanyID domain.CompanyID
	RoundID   domain.RoundID
	IssuedOn  time.Time
}

// RecordSubmissionCommand reports that the compliance form was submitted.
// IssuedOn may carry the share-issue date when both events arrive together;
// the record then completes directly without a dangling due date.
type RecordSubmissionCommand struct {
	CompanyID   domain.CompanyID
	RoundID     domain.RoundID
	SubmittedAt time.Time
	IssuedOn    *time.Time
}

const lockStripes = 64

// Manager owns the compliance record lifecycle. Event handlers run under
// per-round mutual exclusion so concurrent "shares issued" and "submission
// recorded" events cannot interleave their read-modify-write cycles.
type Manager struct {
	records RecordStore
	audit   AuditPort
	logger  *slog.Logger
	metrics *compliancemetrics.Metrics
	stripes [lockStripes]sync.Mutex
}

func NewManager(records RecordStore, auditPort AuditPort, logger *slog.Logger, m *compliancemetrics.Metrics) *Manager {
	return &Manager{
		records: records,
		audit:   auditPort,
		logger:  logger,
		metrics: m,
	}
}

// IssueShares applies the "shares issued at date D" event, creating the
// record if this is the first event for the round. Re-issuing is a no-op
// that preserves the original 90-day countdown.
func (m *Manager) IssueShares(ctx context.Context, cmd IssueSharesCommand) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "compliance.IssueShares")
	defer span.End()

	if err := validateKey(cmd.CompanyID, cmd.RoundID); err != nil {
		return nil, err
	}
	if cmd.IssuedOn.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "share issue date is required")
	}

	unlock := m.lock(cmd.RoundID)
	defer unlock()

	now := requestcontext.Now(ctx)
	record, err := m.loadOrCreate(ctx, cmd.CompanyID, cmd.RoundID, now)
	if err != nil {
		return nil, err
	}

	if err := record.CanIssue(); err != nil {
		m.logger.InfoContext(ctx, "redundant share issue ignored",
			"round_id", cmd.RoundID,
			"state", record.State(),
		)
		return &Outcome{Record: record, Changed: false}, nil
	}

	record.ApplyIssue(cmd.IssuedOn, now)
	if err := m.records.Save(ctx, record); err != nil {
		return nil, wrapSaveErr(err)
	}

	m.emit(ctx, audit.ActionSharesIssued, record, cmd.IssuedOn.Format("2006-01-02"))
	m.metrics.IncrementTransition(string(models.StateAwaitingSubmission))
	return &Outcome{Record: record, Changed: true}, nil
}

// RecordSubmission applies the "submission recorded at time T" event.
// Tolerated as a no-op when already complete; rejected when no share issue
// is known and none is supplied alongside.
func (m *Manager) RecordSubmission(ctx context.Context, cmd RecordSubmissionCommand) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "compliance.RecordSubmission")
	defer span.End()

	if err := validateKey(cmd.CompanyID, cmd.RoundID); err != nil {
		return nil, err
	}
	if cmd.SubmittedAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "submission timestamp is required")
	}

	unlock := m.lock(cmd.RoundID)
	defer unlock()

	now := requestcontext.Now(ctx)
	record, err := m.loadOrCreate(ctx, cmd.CompanyID, cmd.RoundID, now)
	if err != nil {
		return nil, err
	}

	if record.State() == models.StateNoIssue && cmd.IssuedOn != nil {
		// Issue and submission reported atomically: the record completes
		// directly, never holding a dangling due date.
		record.ApplyIssue(*cmd.IssuedOn, now)
	}

	if err := record.CanSubmit(); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			// Already complete: idempotent no-op.
			return &Outcome{Record: record, Changed: false}, nil
		}
		return nil, err
	}

	record.ApplySubmit(cmd.SubmittedAt, now)
	if err := m.records.Save(ctx, record); err != nil {
		return nil, wrapSaveErr(err)
	}

	m.emit(ctx, audit.ActionSubmissionRecorded, record, cmd.SubmittedAt.Format(time.RFC3339))
	m.metrics.IncrementTransition(string(models.StateComplete))
	return &Outcome{Record: record, Changed: true}, nil
}

// GetRecord returns the compliance record for a round.
func (m *Manager) GetRecord(ctx context.Context, roundID domain.RoundID) (*models.Record, error) {
	if roundID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "round id is required")
	}
	record, err := m.records.FindByRound(ctx, roundID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no compliance record for this round")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load compliance record")
	}
	return record, nil
}

func (m *Manager) loadOrCreate(ctx context.Context, companyID domain.CompanyID, roundID domain.RoundID, now time.Time) (*models.Record, error) {
	record, err := m.records.FindByRound(ctx, roundID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.NewRecord(companyID, roundID, now), nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load compliance record")
	}
	return record, nil
}

func (m *Manager) emit(ctx context.Context, action audit.Action, record *models.Record, detail string) {
	if err := m.audit.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    action,
		CompanyID: record.CompanyID.String(),
		RoundID:   record.RoundID.String(),
		Decision:  string(record.State()),
		Reason:    detail,
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.OperatorID(ctx),
	}); err != nil {
		m.logger.ErrorContext(ctx, "audit emit failed",
			"action", action,
			"round_id", record.RoundID,
			"error", err,
		)
	}
}

func (m *Manager) lock(roundID domain.RoundID) func() {
	h := fnv.New32a()
	h.Write([]byte(roundID.String()))
	stripe := &m.stripes[h.Sum32()%lockStripes]
	stripe.Lock()
	return stripe.Unlock
}

func validateKey(companyID domain.CompanyID, roundID domain.RoundID) error {
	if companyID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "company id is required")
	}
	if roundID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "round id is required")
	}
	return nil
}

func wrapSaveErr(err error) error {
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "compliance record was modified concurrently; retry")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save compliance record")
}
