package transparency

import (
	"context"

	id "trustgrid/pkg/domain"
)

// Store persists log entries.
//
// Upsert contract: inserting a new request id always succeeds; re-upserting
// an id whose stored entry is still pending replaces it; re-upserting a
// terminal entry succeeds as a no-op when the incoming state is identical and
// fails with sentinel.ErrInvalidState when it would change anything.
type Store interface {
	Upsert(ctx context.Context, entry Entry) error
	FindByRequestID(ctx context.Context, requestID id.RequestID) (*Entry, error)
	// ListByUser returns the citizen's entries, newest first by RequestedAt,
	// at most limit rows starting at offset.
	ListByUser(ctx context.Context, userID id.UserID, limit, offset int) ([]Entry, error)
	// ListByOrg is the organization-facing view with the same ordering.
	ListByOrg(ctx context.Context, orgID id.OrgID, limit, offset int) ([]Entry, error)
}
