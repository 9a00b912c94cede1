package consent

import (
	"context"

	id "trustgrid/pkg/domain"
)

// Store persists consent requests. Resolve is the linearization point for
// concurrent decisions: implementations must guarantee that exactly one
// caller transitions a pending request. Losers observe either the transition
// error from their own mutate callback or sentinel.ErrInvalidState when
// another writer won the race mid-flight.
type Store interface {
	Create(ctx context.Context, request *ConsentRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (*ConsentRequest, error)
	// Resolve loads the request, applies mutate under the per-request lock,
	// and persists the result. mutate returning an error aborts with no
	// change. A concurrent terminal transition surfaces as
	// sentinel.ErrInvalidState.
	Resolve(ctx context.Context, requestID id.RequestID, mutate func(*ConsentRequest) error) (*ConsentRequest, error)
	// PendingForUser returns the citizen's pending requests, newest first.
	PendingForUser(ctx context.Context, userID id.UserID) ([]*ConsentRequest, error)
}
