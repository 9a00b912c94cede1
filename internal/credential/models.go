package credential

import (
	"strings"
	"time"

	id "trustgrid/pkg/domain"
	dErrors "trustgrid/pkg/domain-errors"
)

// VerificationStatus gates whether an organization may submit data requests
// at all. Requests from unverified or rejected organizations are rejected
// outright, not merely unauthenticated.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationRejected   VerificationStatus = "rejected"
)

// KeyStatus is the API key lifecycle. active → revoked is one-way.
type KeyStatus string

const (
	KeyStatusActive  KeyStatus = "active"
	KeyStatusRevoked KeyStatus = "revoked"
)

// CompanyCategory values accepted for organization verification. The policy
// oracle uses the category to judge proportionality.
var validCategories = map[string]bool{
	"Fintech":      true,
	"E-commerce":   true,
	"Social Media": true,
	"Dating":       true,
	"Healthcare":   true,
	"Gaming":       true,
	"Other":        true,
}

// Organization is the aggregate root for a data-requesting party.
//
// Invariants:
//   - Name is non-empty, at most 128 characters, unique case-insensitively
//   - VerificationStatus is one of the four enum values
//   - Organizations are never hard-deleted; only their keys are revoked
type Organization struct {
	ID                 id.OrgID           `json:"id"`
	Name               string             `json:"org_name"`
	PasswordHash       string             `json:"-"` // never serialize
	VerificationStatus VerificationStatus `json:"verification_status"`
	PolicyText         string             `json:"policy_text,omitempty"`
	Description        string             `json:"company_description,omitempty"`
	Category           string             `json:"company_category,omitempty"`
	WebsiteURL         string             `json:"website_url,omitempty"`
	RegistrationNumber string             `json:"business_registration_number,omitempty"`
	DocumentRef        string             `json:"-"` // opaque pointer into the document store
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// NewOrganization constructs an unverified organization, validating
// invariants.
func NewOrganization(orgID id.OrgID, name, passwordHash string, now time.Time) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "organization name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "organization name must be 128 characters or less")
	}
	return &Organization{
		ID:                 orgID,
		Name:               name,
		PasswordHash:       passwordHash,
		VerificationStatus: VerificationUnverified,
		Category:           "Other",
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// IsVerified reports whether the organization may submit data requests.
func (o *Organization) IsVerified() bool {
	return o.VerificationStatus == VerificationVerified
}

// CanSubmitForVerification rejects re-verification of an already verified
// organization.
func (o *Organization) CanSubmitForVerification() error {
	if o.VerificationStatus == VerificationVerified {
		return dErrors.New(dErrors.CodeInvalidTransition, "organization is already verified")
	}
	return nil
}

// APIKey belongs to exactly one organization. The secret value exists in
// plaintext only in the response to the creating call; the store keeps a
// bcrypt hash for verification and a SHA-256 lookup digest for indexed
// retrieval, and can never re-display the plaintext.
type APIKey struct {
	ID         id.KeyID   `json:"id"`
	OrgID      id.OrgID   `json:"org_id"`
	Name       string     `json:"name"`
	SecretHash string     `json:"-"`
	LookupHash string     `json:"-"`
	Status     KeyStatus  `json:"status"`
	CreatedAt  time.Time  `json:"created_date"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// NewAPIKey constructs an active key. The caller supplies both hashes; the
// plaintext never enters the model.
func NewAPIKey(keyID id.KeyID, orgID id.OrgID, name, secretHash, lookupHash string, now time.Time) (*APIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "key name cannot be empty")
	}
	if secretHash == "" || lookupHash == "" {
		return nil, dErrors.New(dErrors.CodeInternal, "key hashes are required")
	}
	return &APIKey{
		ID:         keyID,
		OrgID:      orgID,
		Name:       name,
		SecretHash: secretHash,
		LookupHash: lookupHash,
		Status:     KeyStatusActive,
		CreatedAt:  now,
	}, nil
}

// IsActive reports whether the key authenticates.
func (k *APIKey) IsActive() bool {
	return k.Status == KeyStatusActive
}

// ApplyRevocation transitions the key to revoked. Idempotent: revoking a
// revoked key is a no-op, which keeps client retries safe.
func (k *APIKey) ApplyRevocation(now time.Time) {
	if k.Status == KeyStatusRevoked {
		return
	}
	k.Status = KeyStatusRevoked
	k.RevokedAt = &now
}

// MaskedKey is the only representation of a key readable after creation.
type MaskedKey struct {
	ID        id.KeyID  `json:"id"`
	Name      string    `json:"name"`
	Status    KeyStatus `json:"status"`
	CreatedAt time.Time `json:"created_date"`
}

// Masked strips secret material for listing.
func (k *APIKey) Masked() MaskedKey {
	return MaskedKey{ID: k.ID, Name: k.Name, Status: k.Status, CreatedAt: k.CreatedAt}
}

// Citizen is the data subject. Profile attributes are opaque key/value pairs
// the core stores and returns but never interprets.
type Citizen struct {
	ID                     id.UserID         `json:"id"`
	Username               string            `json:"username"`
	PasswordHash           string            `json:"-"`
	ManualApprovalRequired bool              `json:"manual_approval_required"`
	Profile                map[string]string `json:"profile,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// NewCitizen constructs a citizen. Manual approval defaults to on: requests
// reach the citizen unless they explicitly opt into auto-resolution.
func NewCitizen(userID id.UserID, username, passwordHash string, now time.Time) (*Citizen, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "username cannot be empty")
	}
	if len(username) > 64 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "username must be 64 characters or less")
	}
	return &Citizen{
		ID:                     userID,
		Username:               username,
		PasswordHash:           passwordHash,
		ManualApprovalRequired: true,
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// VerificationDetails is the organization-supplied identity material for a
// verification submission. The document itself travels separately as an
// opaque stream.
type VerificationDetails struct {
	OrgName            string
	Description        string
	Category           string
	WebsiteURL         string
	RegistrationNumber string
	DocumentName       string
}

// Validate enforces the submission invariants at the boundary.
func (d *VerificationDetails) Validate() error {
	if strings.TrimSpace(d.OrgName) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "org_name is required")
	}
	if !validCategories[d.Category] {
		return dErrors.New(dErrors.CodeBadRequest, "unknown company_category")
	}
	if strings.TrimSpace(d.RegistrationNumber) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "business_registration_number is required")
	}
	return nil
}
