package testutil

import (
	"net/http"

	id "trustgrid/pkg/domain"
	"trustgrid/pkg/requestcontext"
)

// WithOrgID adds an authenticated organization to the request context,
// simulating what the API-key middleware does for authenticated requests.
func WithOrgID(req *http.Request, orgID id.OrgID) *http.Request {
	return req.WithContext(requestcontext.WithOrgID(req.Context(), orgID))
}

// WithUserID adds an authenticated citizen to the request context,
// simulating what the session middleware does.
func WithUserID(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}
