package domain

import (
	"github.com/google/uuid"

	dErrors "trustgrid/pkg/domain-errors"
)

// Typed IDs prevent cross-entity assignment at compile time: an OrgID can
// never be passed where a UserID is expected. Construct via the Parse
// functions at trust boundaries; direct casting bypasses validation.
type (
	// OrgID identifies an organization.
	OrgID uuid.UUID
	// UserID identifies a citizen.
	UserID uuid.UUID
	// KeyID identifies an API key.
	KeyID uuid.UUID
	// RequestID identifies a consent request.
	RequestID uuid.UUID
)

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, what+" cannot be the nil UUID")
	}
	return u, nil
}

// ParseOrgID validates external input into an OrgID.
func ParseOrgID(s string) (OrgID, error) {
	u, err := parseUUID(s, "org id")
	return OrgID(u), err
}

// ParseUserID validates external input into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseKeyID validates external input into a KeyID.
func ParseKeyID(s string) (KeyID, error) {
	u, err := parseUUID(s, "key id")
	return KeyID(u), err
}

// ParseRequestID validates external input into a RequestID.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request id")
	return RequestID(u), err
}

// NewOrgID returns a fresh random OrgID.
func NewOrgID() OrgID { return OrgID(uuid.New()) }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewKeyID returns a fresh random KeyID.
func NewKeyID() KeyID { return KeyID(uuid.New()) }

// NewRequestID returns a fresh random RequestID.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

func (id OrgID) String() string     { return uuid.UUID(id).String() }
func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id KeyID) String() string     { return uuid.UUID(id).String() }
func (id RequestID) String() string { return uuid.UUID(id).String() }

func (id OrgID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id KeyID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText implementations keep typed IDs JSON-friendly as plain strings.
func (id OrgID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id KeyID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *OrgID) UnmarshalText(b []byte) error {
	parsed, err := ParseOrgID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *KeyID) UnmarshalText(b []byte) error {
	parsed, err := ParseKeyID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RequestID) UnmarshalText(b []byte) error {
	parsed, err := ParseRequestID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
