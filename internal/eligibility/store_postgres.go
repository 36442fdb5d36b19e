package eligibility

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	domain "raisegate/pkg/domain"
	"raisegate/pkg/platform/sentinel"
)

// PostgresResultStore persists evaluation results. The reasons and checks
// lists are stored as ordered JSON so the audit trail reproduces exactly
// what the engine reported.
type PostgresResultStore struct {
	db *sql.DB
}

func NewPostgresResultStore(db *sql.DB) *PostgresResultStore {
	return &PostgresResultStore{db: db}
}

func (s *PostgresResultStore) Append(ctx context.Context, result Result) error {
	checks, err := json.Marshal(result.Checks)
	if err != nil {
		return fmt.Errorf("marshal checks: %w", err)
	}
	query := `
		INSERT INTO eligibility_results (id, company_id, round_id, scheme, verdict, reasons, checks, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(result.ID),
		uuid.UUID(result.CompanyID),
		uuid.UUID(result.RoundID),
		string(result.Scheme),
		string(result.Verdict),
		pq.Array(result.Reasons),
		checks,
		result.EvaluatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert eligibility result: %w", err)
	}
	return nil
}

func (s *PostgresResultStore) FindByID(ctx context.Context, id domain.ResultID) (Result, error) {
	query := `
		SELECT id, company_id, round_id, scheme, verdict, reasons, checks, evaluated_at
		FROM eligibility_results
		WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
}

func (s *PostgresResultStore) ListByRound(ctx context.Context, roundID domain.RoundID) ([]Result, error) {
	query := `
		SELECT id, company_id, round_id, scheme, verdict, reasons, checks, evaluated_at
		FROM eligibility_results
		WHERE round_id = $1
		ORDER BY evaluated_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(roundID))
	if err != nil {
		return nil, fmt.Errorf("list eligibility results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		result, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresResultStore) scanOne(row rowScanner) (Result, error) {
	var (
		result                 Result
		id, companyID, roundID uuid.UUID
		scheme, verdict        string
		reasons                pq.StringArray
		checks                 []byte
	)
	err := row.Scan(&id, &companyID, &roundID, &scheme, &verdict, &reasons, &checks, &result.EvaluatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Result{}, fmt.Errorf("scan eligibility result: %w", err)
	}
	if err := json.Unmarshal(checks, &result.Checks); err != nil {
		return Result{}, fmt.Errorf("unmarshal checks: %w", err)
	}
	result.ID = domain.ResultID(id)
	result.CompanyID = domain.CompanyID(companyID)
	result.RoundID = domain.RoundID(roundID)
	result.Scheme = Scheme(scheme)
	result.Verdict = Verdict(verdict)
	result.Reasons = []string(reasons)
	return result, nil
}
