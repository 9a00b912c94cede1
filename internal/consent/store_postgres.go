package consent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "trustgrid/pkg/domain"
	"trustgrid/pkg/platform/sentinel"
)

// PostgresStore persists consent requests. Decisions commit with
// UPDATE ... WHERE status = 'pending', so of any number of concurrent
// responders exactly one sees its row transition.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, request *ConsentRequest) error {
	const query = `
		INSERT INTO consent_requests (
			id, org_id, user_id, data_type, purpose, status,
			approval_method, oracle_rationale, requested_at, responded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(request.ID), uuid.UUID(request.OrgID), uuid.UUID(request.UserID),
		string(request.DataType), request.Purpose, string(request.Status),
		nullableMethod(request.ApprovalMethod), request.OracleRationale,
		request.RequestedAt, request.RespondedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert consent request: %w", err)
	}
	return nil
}

const requestColumns = `
	id, org_id, user_id, data_type, purpose, status,
	approval_method, oracle_rationale, requested_at, responded_at
`

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RequestID) (*ConsentRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM consent_requests WHERE id = $1`, uuid.UUID(requestID))
	request, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return request, nil
}

func (s *PostgresStore) Resolve(ctx context.Context, requestID id.RequestID, mutate func(*ConsentRequest) error) (*ConsentRequest, error) {
	request, err := s.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := mutate(request); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE consent_requests
		SET status = $2, approval_method = $3, responded_at = $4
		WHERE id = $1 AND status = 'pending'
	`, uuid.UUID(requestID), string(request.Status),
		nullableMethod(request.ApprovalMethod), request.RespondedAt)
	if err != nil {
		return nil, fmt.Errorf("resolve consent request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("resolve consent request: %w", err)
	}
	if affected == 0 {
		// A concurrent responder won between our read and write.
		return nil, sentinel.ErrInvalidState
	}
	return request, nil
}

func (s *PostgresStore) PendingForUser(ctx context.Context, userID id.UserID) ([]*ConsentRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM consent_requests
		WHERE user_id = $1 AND status = 'pending'
		ORDER BY requested_at DESC
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query pending requests: %w", err)
	}
	defer rows.Close()

	var pending []*ConsentRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending requests: %w", err)
	}
	return pending, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*ConsentRequest, error) {
	var (
		request                ConsentRequest
		rawID, rawOrg, rawUser uuid.UUID
		dataType, status       string
		method                 sql.NullString
		respondedAt            sql.NullTime
	)
	err := row.Scan(&rawID, &rawOrg, &rawUser, &dataType, &request.Purpose,
		&status, &method, &request.OracleRationale, &request.RequestedAt, &respondedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan consent request: %w", err)
	}
	request.ID = id.RequestID(rawID)
	request.OrgID = id.OrgID(rawOrg)
	request.UserID = id.UserID(rawUser)
	request.DataType = id.DataType(dataType)
	request.Status = Status(status)
	if method.Valid {
		request.ApprovalMethod = ApprovalMethod(method.String)
	}
	if respondedAt.Valid {
		t := respondedAt.Time
		request.RespondedAt = &t
	}
	return &request, nil
}

func nullableMethod(method ApprovalMethod) any {
	if method == "" {
		return nil
	}
	return string(method)
}

var _ Store = (*PostgresStore)(nil)
