package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"raisegate/internal/compliance/models"
	domain "raisegate/pkg/domain"
	"raisegate/pkg/platform/sentinel"
)

// PostgresStore persists compliance records with optimistic versioning.
// The version column turns the service's read-modify-write into a
// compare-and-update: a stale write affects zero rows and surfaces as
// sentinel.ErrConflict instead of silently clobbering a newer record.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByRound(ctx context.Context, roundID domain.RoundID) (*models.Record, error) {
	query := `
		SELECT company_id, round_id, shares_issued_on, reminder_due_at, submitted_at, created_at, updated_at, version
		FROM compliance_records
		WHERE round_id = $1
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(roundID)))
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *PostgresStore) Save(ctx context.Context, record *models.Record) error {
	if record.Version == 0 {
		query := `
			INSERT INTO compliance_records (company_id, round_id, shares_issued_on, reminder_due_at, submitted_at, created_at, updated_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
			ON CONFLICT (round_id) DO NOTHING
		`
		res, err := s.db.ExecContext(ctx, query,
			uuid.UUID(record.CompanyID),
			uuid.UUID(record.RoundID),
			record.SharesIssuedOn,
			record.ReminderDueAt,
			record.SubmittedAt,
			record.CreatedAt,
			record.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert compliance record: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return sentinel.ErrConflict
		}
		record.Version = 1
		return nil
	}

	query := `
		UPDATE compliance_records
		SET shares_issued_on = $1, reminder_due_at = $2, submitted_at = $3, updated_at = $4, version = version + 1
		WHERE round_id = $5 AND version = $6
	`
	res, err := s.db.ExecContext(ctx, query,
		record.SharesIssuedOn,
		record.ReminderDueAt,
		record.SubmittedAt,
		record.UpdatedAt,
		uuid.UUID(record.RoundID),
		record.Version,
	)
	if err != nil {
		return fmt.Errorf("update compliance record: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sentinel.ErrConflict
	}
	record.Version++
	return nil
}

func (s *PostgresStore) ListAwaiting(ctx context.Context) ([]*models.Record, error) {
	query := `
		SELECT company_id, round_id, shares_issued_on, reminder_due_at, submitted_at, created_at, updated_at, version
		FROM compliance_records
		WHERE shares_issued_on IS NOT NULL AND submitted_at IS NULL
		ORDER BY reminder_due_at ASC NULLS FIRST
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list awaiting compliance records: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		record             models.Record
		companyID, roundID uuid.UUID
		issuedOn, dueAt    sql.NullTime
		submittedAt        sql.NullTime
	)
	err := row.Scan(&companyID, &roundID, &issuedOn, &dueAt, &submittedAt, &record.CreatedAt, &record.UpdatedAt, &record.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan compliance record: %w", err)
	}
	record.CompanyID = domain.CompanyID(companyID)
	record.RoundID = domain.RoundID(roundID)
	if issuedOn.Valid {
		record.SharesIssuedOn = &issuedOn.Time
	}
	if dueAt.Valid {
		record.ReminderDueAt = &dueAt.Time
	}
	if submittedAt.Valid {
		record.SubmittedAt = &submittedAt.Time
	}
	return &record, nil
}
