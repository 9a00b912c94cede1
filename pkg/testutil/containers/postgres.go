//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// service schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// schema mirrors the production DDL; keep in sync with the store packages.
const schema = `
CREATE TABLE IF NOT EXISTS organizations (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    password_hash TEXT NOT NULL DEFAULT '',
    verification_status TEXT NOT NULL,
    policy_text TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT 'Other',
    website_url TEXT NOT NULL DEFAULT '',
    registration_number TEXT NOT NULL DEFAULT '',
    document_ref TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS organizations_name_key ON organizations (LOWER(name));

CREATE TABLE IF NOT EXISTS api_keys (
    id UUID PRIMARY KEY,
    org_id UUID NOT NULL REFERENCES organizations(id),
    name TEXT NOT NULL,
    secret_hash TEXT NOT NULL,
    lookup_hash TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    revoked_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS citizens (
    id UUID PRIMARY KEY,
    username TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    manual_approval_required BOOLEAN NOT NULL DEFAULT TRUE,
    profile JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS citizens_username_key ON citizens (LOWER(username));

CREATE TABLE IF NOT EXISTS consent_requests (
    id UUID PRIMARY KEY,
    org_id UUID NOT NULL,
    user_id UUID NOT NULL,
    data_type TEXT NOT NULL,
    purpose TEXT NOT NULL,
    status TEXT NOT NULL,
    approval_method TEXT,
    oracle_rationale TEXT NOT NULL DEFAULT '',
    requested_at TIMESTAMPTZ NOT NULL,
    responded_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS consent_requests_user_pending
    ON consent_requests (user_id, requested_at DESC) WHERE status = 'pending';

CREATE TABLE IF NOT EXISTS transparency_log (
    request_id UUID PRIMARY KEY,
    org_id UUID NOT NULL,
    org_name TEXT NOT NULL,
    user_id UUID NOT NULL,
    data_type TEXT NOT NULL,
    purpose TEXT NOT NULL,
    status TEXT NOT NULL,
    approval_method TEXT,
    oracle_rationale TEXT NOT NULL DEFAULT '',
    requested_at TIMESTAMPTZ NOT NULL,
    responded_at TIMESTAMPTZ,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS transparency_log_user ON transparency_log (user_id, requested_at DESC);
CREATE INDEX IF NOT EXISTS transparency_log_org ON transparency_log (org_id, requested_at DESC);
`

// NewPostgresContainer starts PostgreSQL, applies the schema and returns an
// open connection pool.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("trustgrid_test"),
		tcpostgres.WithUsername("trustgrid"),
		tcpostgres.WithPassword("trustgrid"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// Truncate empties all tables between tests.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `
		TRUNCATE transparency_log, consent_requests, api_keys, citizens, organizations CASCADE
	`)
	return err
}
