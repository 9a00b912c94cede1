package credential

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "trustgrid/pkg/domain"
	"trustgrid/pkg/platform/sentinel"
)

// Schema (migrations live with the deployment):
//
//	CREATE TABLE organizations (
//	    id UUID PRIMARY KEY,
//	    name TEXT NOT NULL,
//	    password_hash TEXT NOT NULL DEFAULT '',
//	    verification_status TEXT NOT NULL,
//	    policy_text TEXT NOT NULL DEFAULT '',
//	    description TEXT NOT NULL DEFAULT '',
//	    category TEXT NOT NULL DEFAULT 'Other',
//	    website_url TEXT NOT NULL DEFAULT '',
//	    registration_number TEXT NOT NULL DEFAULT '',
//	    document_ref TEXT NOT NULL DEFAULT '',
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX organizations_name_key ON organizations (LOWER(name));
//
//	CREATE TABLE api_keys (
//	    id UUID PRIMARY KEY,
//	    org_id UUID NOT NULL REFERENCES organizations(id),
//	    name TEXT NOT NULL,
//	    secret_hash TEXT NOT NULL,
//	    lookup_hash TEXT NOT NULL UNIQUE,
//	    status TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    revoked_at TIMESTAMPTZ
//	);
//
//	CREATE TABLE citizens (
//	    id UUID PRIMARY KEY,
//	    username TEXT NOT NULL,
//	    password_hash TEXT NOT NULL,
//	    manual_approval_required BOOLEAN NOT NULL DEFAULT TRUE,
//	    profile JSONB NOT NULL DEFAULT '{}',
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX citizens_username_key ON citizens (LOWER(username));

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// PostgresOrgStore persists organizations in PostgreSQL.
type PostgresOrgStore struct {
	db *sql.DB
}

func NewPostgresOrgStore(db *sql.DB) *PostgresOrgStore {
	return &PostgresOrgStore{db: db}
}

func (s *PostgresOrgStore) CreateIfNameAvailable(ctx context.Context, org *Organization) error {
	const query = `
		INSERT INTO organizations (
			id, name, password_hash, verification_status, policy_text,
			description, category, website_url, registration_number,
			document_ref, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(org.ID), org.Name, org.PasswordHash, string(org.VerificationStatus),
		org.PolicyText, org.Description, org.Category, org.WebsiteURL,
		org.RegistrationNumber, org.DocumentRef, org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

const orgColumns = `
	id, name, password_hash, verification_status, policy_text,
	description, category, website_url, registration_number,
	document_ref, created_at, updated_at
`

func (s *PostgresOrgStore) FindByID(ctx context.Context, orgID id.OrgID) (*Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE id = $1`, uuid.UUID(orgID))
	return scanOrganization(row)
}

func (s *PostgresOrgStore) FindByName(ctx context.Context, name string) (*Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE LOWER(name) = LOWER($1)`, name)
	return scanOrganization(row)
}

func (s *PostgresOrgStore) Update(ctx context.Context, org *Organization) error {
	const query = `
		UPDATE organizations
		SET name = $2, verification_status = $3, policy_text = $4,
		    description = $5, category = $6, website_url = $7,
		    registration_number = $8, document_ref = $9, updated_at = $10
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(org.ID), org.Name, string(org.VerificationStatus), org.PolicyText,
		org.Description, org.Category, org.WebsiteURL,
		org.RegistrationNumber, org.DocumentRef, org.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update organization: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanOrganization(row *sql.Row) (*Organization, error) {
	var (
		org    Organization
		rawID  uuid.UUID
		status string
	)
	err := row.Scan(
		&rawID, &org.Name, &org.PasswordHash, &status, &org.PolicyText,
		&org.Description, &org.Category, &org.WebsiteURL,
		&org.RegistrationNumber, &org.DocumentRef, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan organization: %w", err)
	}
	org.ID = id.OrgID(rawID)
	org.VerificationStatus = VerificationStatus(status)
	return &org, nil
}

// PostgresKeyStore persists API keys. Revocation is a single-row conditional
// UPDATE, so revoke-then-authenticate is linearizable per key.
type PostgresKeyStore struct {
	db *sql.DB
}

func NewPostgresKeyStore(db *sql.DB) *PostgresKeyStore {
	return &PostgresKeyStore{db: db}
}

func (s *PostgresKeyStore) Create(ctx context.Context, key *APIKey) error {
	const query = `
		INSERT INTO api_keys (id, org_id, name, secret_hash, lookup_hash, status, created_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(key.ID), uuid.UUID(key.OrgID), key.Name,
		key.SecretHash, key.LookupHash, string(key.Status), key.CreatedAt, key.RevokedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

const keyColumns = `id, org_id, name, secret_hash, lookup_hash, status, created_at, revoked_at`

func (s *PostgresKeyStore) FindActiveByLookupHash(ctx context.Context, lookupHash string) (*APIKey, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+keyColumns+` FROM api_keys WHERE lookup_hash = $1 AND status = 'active'`, lookupHash)
	return scanAPIKey(row)
}

func (s *PostgresKeyStore) FindByOrgAndID(ctx context.Context, orgID id.OrgID, keyID id.KeyID) (*APIKey, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+keyColumns+` FROM api_keys WHERE id = $1 AND org_id = $2`,
		uuid.UUID(keyID), uuid.UUID(orgID))
	return scanAPIKey(row)
}

func (s *PostgresKeyStore) ListByOrg(ctx context.Context, orgID id.OrgID) ([]*APIKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+keyColumns+` FROM api_keys WHERE org_id = $1 ORDER BY created_at DESC`,
		uuid.UUID(orgID))
	if err != nil {
		return nil, fmt.Errorf("query api keys: %w", err)
	}
	defer rows.Close()

	var keys []*APIKey
	for rows.Next() {
		key, err := scanAPIKeyRow(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api keys: %w", err)
	}
	return keys, nil
}

func (s *PostgresKeyStore) Revoke(ctx context.Context, orgID id.OrgID, keyID id.KeyID, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE api_keys SET status = 'revoked', revoked_at = $3
		WHERE id = $1 AND org_id = $2 AND status = 'active'
	`, uuid.UUID(keyID), uuid.UUID(orgID), now)
	if err != nil {
		return false, fmt.Errorf("revoke api key: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke api key: %w", err)
	}
	if affected > 0 {
		return false, nil
	}

	// No transition happened: distinguish already-revoked from not-owned.
	var status string
	err = s.db.QueryRowContext(ctx,
		`SELECT status FROM api_keys WHERE id = $1 AND org_id = $2`,
		uuid.UUID(keyID), uuid.UUID(orgID)).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, sentinel.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("check api key status: %w", err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAPIKey(row *sql.Row) (*APIKey, error) {
	key, err := scanAPIKeyRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return key, nil
}

func scanAPIKeyRow(row rowScanner) (*APIKey, error) {
	var (
		key          APIKey
		rawID, rawOrg uuid.UUID
		status       string
		revokedAt    sql.NullTime
	)
	err := row.Scan(&rawID, &rawOrg, &key.Name, &key.SecretHash, &key.LookupHash,
		&status, &key.CreatedAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan api key: %w", err)
	}
	key.ID = id.KeyID(rawID)
	key.OrgID = id.OrgID(rawOrg)
	key.Status = KeyStatus(status)
	if revokedAt.Valid {
		t := revokedAt.Time
		key.RevokedAt = &t
	}
	return &key, nil
}

// PostgresCitizenStore persists citizens.
type PostgresCitizenStore struct {
	db *sql.DB
}

func NewPostgresCitizenStore(db *sql.DB) *PostgresCitizenStore {
	return &PostgresCitizenStore{db: db}
}

func (s *PostgresCitizenStore) CreateIfUsernameAvailable(ctx context.Context, citizen *Citizen) error {
	profile, err := marshalProfile(citizen.Profile)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO citizens (id, username, password_hash, manual_approval_required, profile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(citizen.ID), citizen.Username, citizen.PasswordHash,
		citizen.ManualApprovalRequired, profile, citizen.CreatedAt, citizen.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert citizen: %w", err)
	}
	return nil
}

const citizenColumns = `id, username, password_hash, manual_approval_required, profile, created_at, updated_at`

func (s *PostgresCitizenStore) FindByID(ctx context.Context, userID id.UserID) (*Citizen, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+citizenColumns+` FROM citizens WHERE id = $1`, uuid.UUID(userID))
	return scanCitizen(row)
}

func (s *PostgresCitizenStore) FindByUsername(ctx context.Context, username string) (*Citizen, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+citizenColumns+` FROM citizens WHERE LOWER(username) = LOWER($1)`, username)
	return scanCitizen(row)
}

func (s *PostgresCitizenStore) Update(ctx context.Context, citizen *Citizen) error {
	profile, err := marshalProfile(citizen.Profile)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE citizens
		SET manual_approval_required = $2, profile = $3, updated_at = $4
		WHERE id = $1
	`, uuid.UUID(citizen.ID), citizen.ManualApprovalRequired, profile, citizen.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update citizen: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update citizen: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanCitizen(row *sql.Row) (*Citizen, error) {
	var (
		citizen Citizen
		rawID   uuid.UUID
		profile []byte
	)
	err := row.Scan(&rawID, &citizen.Username, &citizen.PasswordHash,
		&citizen.ManualApprovalRequired, &profile, &citizen.CreatedAt, &citizen.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan citizen: %w", err)
	}
	citizen.ID = id.UserID(rawID)
	if err := unmarshalProfile(profile, &citizen); err != nil {
		return nil, err
	}
	return &citizen, nil
}

func marshalProfile(profile map[string]string) ([]byte, error) {
	if profile == nil {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return raw, nil
}

func unmarshalProfile(raw []byte, citizen *Citizen) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &citizen.Profile); err != nil {
		return fmt.Errorf("unmarshal profile: %w", err)
	}
	if len(citizen.Profile) == 0 {
		citizen.Profile = nil
	}
	return nil
}

var (
	_ OrgStore     = (*PostgresOrgStore)(nil)
	_ KeyStore     = (*PostgresKeyStore)(nil)
	_ CitizenStore = (*PostgresCitizenStore)(nil)
)
