package credential

import (
	"context"
	"io"
	"time"

	id "trustgrid/pkg/domain"
)

// Stores speak sentinel errors (pkg/platform/sentinel); the service
// translates them into the API taxonomy. Memory and PostgreSQL
// implementations live side by side.

// OrgStore persists organizations. Names are unique case-insensitively.
type OrgStore interface {
	// CreateIfNameAvailable inserts the organization, failing with
	// sentinel.ErrAlreadyUsed when the name is taken.
	CreateIfNameAvailable(ctx context.Context, org *Organization) error
	FindByID(ctx context.Context, orgID id.OrgID) (*Organization, error)
	FindByName(ctx context.Context, name string) (*Organization, error)
	Update(ctx context.Context, org *Organization) error
}

// KeyStore persists API keys. Revocation and lookup must be linearizable per
// key: once Revoke returns, FindActiveByLookupHash never returns that key.
type KeyStore interface {
	Create(ctx context.Context, key *APIKey) error
	// FindActiveByLookupHash returns the active key with the given SHA-256
	// lookup digest, or sentinel.ErrNotFound. Revoked keys are invisible
	// here by construction.
	FindActiveByLookupHash(ctx context.Context, lookupHash string) (*APIKey, error)
	// FindByOrgAndID scopes retrieval to the owning organization.
	FindByOrgAndID(ctx context.Context, orgID id.OrgID, keyID id.KeyID) (*APIKey, error)
	// ListByOrg returns the organization's keys, newest first.
	ListByOrg(ctx context.Context, orgID id.OrgID) ([]*APIKey, error)
	// Revoke atomically transitions the key to revoked. Returns
	// alreadyRevoked=true (and no error) when the key was revoked before,
	// and sentinel.ErrNotFound when the key does not belong to the org.
	Revoke(ctx context.Context, orgID id.OrgID, keyID id.KeyID, now time.Time) (alreadyRevoked bool, err error)
}

// CitizenStore persists citizens. Usernames are unique.
type CitizenStore interface {
	CreateIfUsernameAvailable(ctx context.Context, citizen *Citizen) error
	FindByID(ctx context.Context, userID id.UserID) (*Citizen, error)
	FindByUsername(ctx context.Context, username string) (*Citizen, error)
	Update(ctx context.Context, citizen *Citizen) error
}

// DocumentStore is the opaque verification-document sink. The core never
// reads documents back; it only records the returned reference.
type DocumentStore interface {
	Save(ctx context.Context, orgID id.OrgID, filename string, contents io.Reader) (ref string, err error)
}

// RevocationList propagates key revocations across service instances so a
// revoke on one node fails authentication everywhere with no grace window.
// Keys are identified by lookup digest; entries never expire.
type RevocationList interface {
	MarkRevoked(ctx context.Context, lookupHash string) error
	IsRevoked(ctx context.Context, lookupHash string) (bool, error)
}
