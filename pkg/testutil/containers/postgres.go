//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers Postgres instance with the full
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	DSN       string
}

const schema = `
CREATE TABLE IF NOT EXISTS eligibility_results (
	id            UUID PRIMARY KEY,
	company_id    UUID NOT NULL,
	round_id      UUID NOT NULL,
	scheme        TEXT NOT NULL,
	verdict       TEXT NOT NULL,
	reasons       TEXT[] NOT NULL DEFAULT '{}',
	checks        JSONB NOT NULL,
	evaluated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_eligibility_results_round ON eligibility_results (round_id);

CREATE TABLE IF NOT EXISTS compliance_records (
	round_id         UUID PRIMARY KEY,
	company_id       UUID NOT NULL,
	shares_issued_on TIMESTAMPTZ,
	reminder_due_at  TIMESTAMPTZ,
	submitted_at     TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	version          BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_compliance_records_due ON compliance_records (reminder_due_at)
	WHERE shares_issued_on IS NOT NULL AND submitted_at IS NULL;

CREATE TABLE IF NOT EXISTS authorisations (
	id             UUID PRIMARY KEY,
	company_id     UUID NOT NULL,
	company_name   TEXT NOT NULL,
	agent_name     TEXT NOT NULL,
	scope          TEXT NOT NULL DEFAULT '',
	valid          BOOLEAN NOT NULL,
	expires_at     TIMESTAMPTZ NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	invalidated_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_authorisations_company ON authorisations (company_id);
CREATE INDEX IF NOT EXISTS idx_authorisations_expiring ON authorisations (expires_at) WHERE valid;

CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	action      TEXT NOT NULL,
	company_id  TEXT,
	round_id    TEXT,
	decision    TEXT,
	reason      TEXT,
	request_id  TEXT,
	actor_id    TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_events_company ON audit_events (company_id, occurred_at);
`

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("raisegate_test"),
		tcpostgres.WithUsername("raisegate"),
		tcpostgres.WithPassword("raisegate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Container lifetime is owned by the singleton Manager; Ryuk reaps it.

	return &PostgresContainer{Container: container, DB: db, DSN: dsn}
}

// TruncateTables empties the named tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", strings.Join(tables, ", ")))
	return err
}

// Exec runs a statement against the container database.
func (p *PostgresContainer) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.DB.ExecContext(ctx, query, args...)
}
