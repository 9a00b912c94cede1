package transparency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "trustgrid/pkg/domain"
	"trustgrid/pkg/platform/sentinel"
)

// PostgresStore persists the log. The terminal-immutability guard is the
// WHERE clause on the conflict update: a terminal row never matches, so a
// mutation attempt affects zero rows and is checked against the stored state.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, entry Entry) error {
	const query = `
		INSERT INTO transparency_log (
			request_id, org_id, org_name, user_id, data_type, purpose,
			status, approval_method, oracle_rationale, requested_at,
			responded_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (request_id) DO UPDATE SET
			status = EXCLUDED.status,
			approval_method = EXCLUDED.approval_method,
			oracle_rationale = EXCLUDED.oracle_rationale,
			responded_at = EXCLUDED.responded_at,
			updated_at = EXCLUDED.updated_at
		WHERE transparency_log.status = 'pending'
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(entry.RequestID), uuid.UUID(entry.OrgID), entry.OrgName,
		uuid.UUID(entry.UserID), entry.DataType, entry.Purpose,
		entry.Status, nullableString(entry.ApprovalMethod), entry.OracleRationale,
		entry.RequestedAt, entry.RespondedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert transparency entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert transparency entry: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// The stored row is terminal. Idempotent redelivery is fine; anything
	// that would change the record is not.
	existing, err := s.FindByRequestID(ctx, entry.RequestID)
	if err != nil {
		return err
	}
	if existing.same(entry) {
		return nil
	}
	return sentinel.ErrInvalidState
}

const entryColumns = `
	request_id, org_id, org_name, user_id, data_type, purpose,
	status, approval_method, oracle_rationale, requested_at,
	responded_at, updated_at
`

func (s *PostgresStore) FindByRequestID(ctx context.Context, requestID id.RequestID) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM transparency_log WHERE request_id = $1`,
		uuid.UUID(requestID))
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, limit, offset int) ([]Entry, error) {
	return s.list(ctx, `user_id`, uuid.UUID(userID), limit, offset)
}

func (s *PostgresStore) ListByOrg(ctx context.Context, orgID id.OrgID, limit, offset int) ([]Entry, error) {
	return s.list(ctx, `org_id`, uuid.UUID(orgID), limit, offset)
}

func (s *PostgresStore) list(ctx context.Context, column string, party uuid.UUID, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	// column is one of two compile-time constants, never caller input.
	query := `SELECT ` + entryColumns + ` FROM transparency_log WHERE ` + column + ` = $1
		ORDER BY requested_at DESC LIMIT $2 OFFSET $3`
	rows, err := s.db.QueryContext(ctx, query, party, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query transparency log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transparency log: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry                  Entry
		rawID, rawOrg, rawUser uuid.UUID
		method                 sql.NullString
		respondedAt            sql.NullTime
	)
	err := row.Scan(&rawID, &rawOrg, &entry.OrgName, &rawUser, &entry.DataType,
		&entry.Purpose, &entry.Status, &method, &entry.OracleRationale,
		&entry.RequestedAt, &respondedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transparency entry: %w", err)
	}
	entry.RequestID = id.RequestID(rawID)
	entry.OrgID = id.OrgID(rawOrg)
	entry.UserID = id.UserID(rawUser)
	if method.Valid {
		entry.ApprovalMethod = method.String
	}
	if respondedAt.Valid {
		t := respondedAt.Time
		entry.RespondedAt = &t
	}
	return &entry, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ Store = (*PostgresStore)(nil)
