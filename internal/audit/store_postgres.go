package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists audit events in the audit_events table. Inserts are
// idempotent on the event ID so replays from the Kafka side never duplicate.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (id, occurred_at, action, company_id, round_id, decision, reason, request_id, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		string(event.Action),
		nullable(event.CompanyID),
		nullable(event.RoundID),
		nullable(event.Decision),
		nullable(event.Reason),
		nullable(event.RequestID),
		nullable(event.ActorID),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCompany(ctx context.Context, companyID string) ([]Event, error) {
	query := `
		SELECT id, occurred_at, action, company_id, round_id, decision, reason, request_id, actor_id
		FROM audit_events
		WHERE company_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e         Event
			id        uuid.UUID
			action    string
			companyID sql.NullString
			roundID   sql.NullString
			decision  sql.NullString
			reason    sql.NullString
			requestID sql.NullString
			actorID   sql.NullString
		)
		if err := rows.Scan(&id, &e.Timestamp, &action, &companyID, &roundID, &decision, &reason, &requestID, &actorID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.ID = id
		e.Action = Action(action)
		e.CompanyID = companyID.String
		e.RoundID = roundID.String
		e.Decision = decision.String
		e.Reason = reason.String
		e.RequestID = requestID.String
		e.ActorID = actorID.String
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
