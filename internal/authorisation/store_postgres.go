package authorisation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	domain "raisegate/pkg/domain"
	"raisegate/pkg/platform/sentinel"
)

// PostgresStore persists authorisations. MarkInvalid guards the valid flag
// in the WHERE clause so a concurrent sweep flips each row at most once.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, auth Authorisation) error {
	query := `
		INSERT INTO authorisations (id, company_id, company_name, agent_name, scope, valid, expires_at, created_at, invalidated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(auth.ID),
		uuid.UUID(auth.CompanyID),
		auth.CompanyName,
		auth.AgentName,
		auth.Scope,
		auth.Valid,
		auth.ExpiresAt,
		auth.CreatedAt,
		auth.InvalidatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert authorisation: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.AuthorisationID) (*Authorisation, error) {
	query := `
		SELECT id, company_id, company_name, agent_name, scope, valid, expires_at, created_at, invalidated_at
		FROM authorisations
		WHERE id = $1
	`
	return scanAuthorisation(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
}

func (s *PostgresStore) ListByCompany(ctx context.Context, companyID domain.CompanyID) ([]Authorisation, error) {
	query := `
		SELECT id, company_id, company_name, agent_name, scope, valid, expires_at, created_at, invalidated_at
		FROM authorisations
		WHERE company_id = $1
		ORDER BY created_at ASC, id ASC
	`
	return s.list(ctx, query, uuid.UUID(companyID))
}

func (s *PostgresStore) ListExpiring(ctx context.Context, now time.Time) ([]Authorisation, error) {
	query := `
		SELECT id, company_id, company_name, agent_name, scope, valid, expires_at, created_at, invalidated_at
		FROM authorisations
		WHERE valid = TRUE AND expires_at <= $1
		ORDER BY created_at ASC, id ASC
	`
	return s.list(ctx, query, now)
}

func (s *PostgresStore) MarkInvalid(ctx context.Context, id domain.AuthorisationID, at time.Time) error {
	query := `
		UPDATE authorisations
		SET valid = FALSE, invalidated_at = $2
		WHERE id = $1 AND valid = TRUE
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(id), at)
	if err != nil {
		return fmt.Errorf("invalidate authorisation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("invalidate authorisation: %w", err)
	}
	if affected == 0 {
		if _, err := s.FindByID(ctx, id); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]Authorisation, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list authorisations: %w", err)
	}
	defer rows.Close()

	var out []Authorisation
	for rows.Next() {
		auth, err := scanAuthorisation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *auth)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuthorisation(row rowScanner) (*Authorisation, error) {
	var (
		auth          Authorisation
		id, companyID uuid.UUID
		invalidatedAt sql.NullTime
	)
	err := row.Scan(&id, &companyID, &auth.CompanyName, &auth.AgentName, &auth.Scope,
		&auth.Valid, &auth.ExpiresAt, &auth.CreatedAt, &invalidatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan authorisation: %w", err)
	}
	auth.ID = domain.AuthorisationID(id)
	auth.CompanyID = domain.CompanyID(companyID)
	if invalidatedAt.Valid {
		auth.InvalidatedAt = &invalidatedAt.Time
	}
	return &auth, nil
}
