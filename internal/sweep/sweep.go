// Package sweep implements the periodic reminder and expiry batch. Each run
// makes two passes: first it flips authorisations whose expiry has lapsed,
// then it collects reminder items for overdue compliance submissions and the
// authorisations it just flipped, fanning them out through the Notifier.
//
// Every mutation the sweep performs is idempotent, so an overlapping or
// repeated run is safe; the advisory lock exists only to avoid duplicate
// notification sends.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"raisegate/internal/audit"
	"raisegate/internal/authorisation"
	"raisegate/internal/compliance/models"
	sweepmetrics "raisegate/internal/sweep/metrics"
	domain "raisegate/pkg/domain"
	"raisegate/pkg/platform/sentinel"
	"raisegate/pkg/requestcontext"
)

var tracer = otel.Tracer("raisegate/sweep")

// ReminderType labels what a reminder is about.
type ReminderType string

const (
	TypeComplianceSubmissionDue ReminderType = "compliance_submission_due"
	TypeAuthorisationExpired    ReminderType = "authorisation_expired"
)

// ReminderItem is a derived, non-persisted value produced by a sweep run.
type ReminderItem struct {
	CompanyName string       `json:"company_name"`
	Type        ReminderType `json:"type"`
	DueAt       time.Time    `json:"due_at"`
	OverdueDays int          `json:"overdue_days"`
}

// Report summarises one sweep run.
type Report struct {
	ExpiredAuthorisationsMarked int            `json:"expired_authorisations_marked"`
	RemindersSent               int            `json:"reminders_sent"`
	RemindersFailed             int            `json:"reminders_failed"`
	MalformedSkipped            int            `json:"malformed_skipped"`
	Items                       []ReminderItem `json:"items"`
}

// RecordSource lists compliance records still awaiting submission.
type RecordSource interface {
	ListAwaiting(ctx context.Context) ([]*models.Record, error)
}

// AuthorisationSource is the slice of the authorisation store the sweep
// needs: finding lapsed grants and flipping them exactly once.
type AuthorisationSource interface {
	ListExpiring(ctx context.Context, now time.Time) ([]authorisation.Authorisation, error)
	MarkInvalid(ctx context.Context, id domain.AuthorisationID, at time.Time) error
}

// CompanyDirectory resolves a company ID to its display name for reminder
// items. Returning sentinel.ErrNotFound is tolerated; the sweep falls back
// to the raw ID.
type CompanyDirectory interface {
	CompanyName(ctx context.Context, companyID domain.CompanyID) (string, error)
}

// AuditPort defines the interface for emitting audit events.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Sweeper runs the reminder and expiry batch.
type Sweeper struct {
	records        RecordSource
	authorisations AuthorisationSource
	directory      CompanyDirectory
	notifier       Notifier
	lock           Lock
	audit          AuditPort
	logger         *slog.Logger
	metrics        *sweepmetrics.Metrics
}

func New(
	records RecordSource,
	authorisations AuthorisationSource,
	directory CompanyDirectory,
	notifier Notifier,
	lock Lock,
	auditPort AuditPort,
	logger *slog.Logger,
	m *sweepmetrics.Metrics,
) *Sweeper {
	return &Sweeper{
		records:        records,
		authorisations: authorisations,
		directory:      directory,
		notifier:       notifier,
		lock:           lock,
		audit:          auditPort,
		logger:         logger,
		metrics:        m,
	}
}

// Run executes one sweep. It returns ErrSweepInProgress when another run
// holds the advisory lock. Individual bad records and notification failures
// are counted, never fatal.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	ctx, span := tracer.Start(ctx, "sweep.Run")
	defer span.End()

	release, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	now := requestcontext.Now(ctx)
	report := &Report{Items: []ReminderItem{}}

	expired, err := s.expiryPass(ctx, now, report)
	if err != nil {
		return nil, err
	}
	if err := s.reminderPass(ctx, now, expired, report); err != nil {
		return nil, err
	}
	s.deliver(ctx, report)

	s.emitCompleted(ctx, now, report)
	s.metrics.ObserveRun(report.RemindersSent, report.RemindersFailed, report.ExpiredAuthorisationsMarked, report.MalformedSkipped)
	s.logger.InfoContext(ctx, "sweep completed",
		"expired_authorisations_marked", report.ExpiredAuthorisationsMarked,
		"reminders_sent", report.RemindersSent,
		"reminders_failed", report.RemindersFailed,
		"malformed_skipped", report.MalformedSkipped,
	)
	return report, nil
}

// expiryPass flips every valid, lapsed authorisation exactly once and
// returns the ones flipped by this run.
func (s *Sweeper) expiryPass(ctx context.Context, now time.Time, report *Report) ([]authorisation.Authorisation, error) {
	lapsed, err := s.authorisations.ListExpiring(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list expiring authorisations: %w", err)
	}

	var flipped []authorisation.Authorisation
	for _, auth := range lapsed {
		err := s.authorisations.MarkInvalid(ctx, auth.ID, now)
		if errors.Is(err, sentinel.ErrInvalidState) {
			// Another run got there first; not counted again.
			continue
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to invalidate authorisation",
				"authorisation_id", auth.ID,
				"error", err,
			)
			continue
		}
		report.ExpiredAuthorisationsMarked++
		flipped = append(flipped, auth)
		s.emitExpired(ctx, now, auth)
	}
	return flipped, nil
}

// reminderPass collects one item per overdue compliance record and one per
// authorisation flipped this run.
func (s *Sweeper) reminderPass(ctx context.Context, now time.Time, flipped []authorisation.Authorisation, report *Report) error {
	awaiting, err := s.records.ListAwaiting(ctx)
	if err != nil {
		return fmt.Errorf("list awaiting compliance records: %w", err)
	}

	for _, record := range awaiting {
		if record.ReminderDueAt == nil {
			// Awaiting submission with no due date should be impossible;
			// skipped rather than merged into the overdue list with a made-up
			// date.
			s.logger.WarnContext(ctx, "malformed compliance record skipped",
				"company_id", record.CompanyID,
				"round_id", record.RoundID,
			)
			report.MalformedSkipped++
			continue
		}
		if record.ReminderDueAt.After(now) {
			continue
		}
		report.Items = append(report.Items, ReminderItem{
			CompanyName: s.companyName(ctx, record.CompanyID),
			Type:        TypeComplianceSubmissionDue,
			DueAt:       *record.ReminderDueAt,
			OverdueDays: overdueDays(now, *record.ReminderDueAt),
		})
	}

	for _, auth := range flipped {
		report.Items = append(report.Items, ReminderItem{
			CompanyName: auth.CompanyName,
			Type:        TypeAuthorisationExpired,
			DueAt:       auth.ExpiresAt,
			OverdueDays: overdueDays(now, auth.ExpiresAt),
		})
	}
	return nil
}

// deliver fans the items out through the notifier. A failed item is counted
// and the fan-out continues; the sweep is best-effort, not a transaction.
func (s *Sweeper) deliver(ctx context.Context, report *Report) {
	for _, item := range report.Items {
		if err := s.notifier.Send(ctx, item); err != nil {
			s.logger.ErrorContext(ctx, "reminder delivery failed",
				"company_name", item.CompanyName,
				"type", item.Type,
				"error", err,
			)
			report.RemindersFailed++
			continue
		}
		report.RemindersSent++
	}
}

func (s *Sweeper) companyName(ctx context.Context, companyID domain.CompanyID) string {
	if s.directory != nil {
		name, err := s.directory.CompanyName(ctx, companyID)
		if err == nil && name != "" {
			return name
		}
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "company name lookup failed",
				"company_id", companyID,
				"error", err,
			)
		}
	}
	return companyID.String()
}

func (s *Sweeper) emitExpired(ctx context.Context, now time.Time, auth authorisation.Authorisation) {
	if err := s.audit.Emit(ctx, audit.Event{
		Timestamp: now,
		Action:    audit.ActionAuthorisationExpired,
		CompanyID: auth.CompanyID.String(),
		Reason:    auth.Scope,
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", audit.ActionAuthorisationExpired,
			"authorisation_id", auth.ID,
			"error", err,
		)
	}
}

func (s *Sweeper) emitCompleted(ctx context.Context, now time.Time, report *Report) {
	if err := s.audit.Emit(ctx, audit.Event{
		Timestamp: now,
		Action:    audit.ActionSweepCompleted,
		Decision: fmt.Sprintf("expired=%d sent=%d failed=%d malformed=%d",
			report.ExpiredAuthorisationsMarked, report.RemindersSent,
			report.RemindersFailed, report.MalformedSkipped),
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", audit.ActionSweepCompleted,
			"error", err,
		)
	}
}

// overdueDays is the whole days past due, never negative.
func overdueDays(now, due time.Time) int {
	if !now.After(due) {
		return 0
	}
	return int(now.Sub(due).Hours() / 24)
}
