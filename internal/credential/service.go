package credential

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"trustgrid/internal/oracle"
	"trustgrid/internal/platform/metrics"
	id "trustgrid/pkg/domain"
	dErrors "trustgrid/pkg/domain-errors"
	"trustgrid/pkg/platform/sentinel"
	"trustgrid/pkg/requestcontext"
	"trustgrid/pkg/secrets"
)

// Service orchestrates organizations, API keys and citizens. Stores speak
// sentinel errors; this layer translates them into the API taxonomy.
type Service struct {
	orgs        OrgStore
	keys        KeyStore
	citizens    CitizenStore
	documents   DocumentStore
	revocations RevocationList
	verifier    oracle.Verifier
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// dummyHash is a valid bcrypt hash of an unused value. Compared against when
// the principal does not exist so both auth paths cost one bcrypt check.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithRevocationList(list RevocationList) Option {
	return func(s *Service) {
		s.revocations = list
	}
}

// New constructs a Service.
func New(orgs OrgStore, keys KeyStore, citizens CitizenStore, documents DocumentStore, verifier oracle.Verifier, opts ...Option) *Service {
	s := &Service{
		orgs:        orgs,
		keys:        keys,
		citizens:    citizens,
		documents:   documents,
		revocations: NoopRevocationList{},
		verifier:    verifier,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterOrganization creates an unverified organization with a unique name.
func (s *Service) RegisterOrganization(ctx context.Context, name, password string) (*Organization, error) {
	passwordHash, err := secrets.Hash(password)
	if err != nil {
		return nil, err
	}

	org, err := NewOrganization(id.NewOrgID(), name, passwordHash, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.orgs.CreateIfNameAvailable(ctx, org); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeDuplicateName, "organization name is already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create organization")
	}

	s.log(ctx, "organization registered", "org_id", org.ID)
	return org, nil
}

// AuthenticateOrganization verifies a name/password pair for portal login.
// Failures are uniform: the caller cannot tell a missing organization from a
// wrong password.
func (s *Service) AuthenticateOrganization(ctx context.Context, name, password string) (*Organization, error) {
	org, err := s.orgs.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Burn a comparison so the timing matches the found path.
			_ = secrets.Verify(password, dummyHash)
			s.metrics.IncAuthFailure("org_password")
			return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid organization name or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
	}
	if err := secrets.Verify(password, org.PasswordHash); err != nil {
		s.metrics.IncAuthFailure("org_password")
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid organization name or password")
	}
	return org, nil
}

// GetOrganization returns the organization aggregate.
func (s *Service) GetOrganization(ctx context.Context, orgID id.OrgID) (*Organization, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "organization not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
	}
	return org, nil
}

// SubmitForVerification records the organization's identity material and runs
// the verifier, moving the organization to verified or rejected. An already
// verified organization cannot resubmit.
func (s *Service) SubmitForVerification(ctx context.Context, orgID id.OrgID, details VerificationDetails, document io.Reader) (*Organization, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}

	org, err := s.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := org.CanSubmitForVerification(); err != nil {
		return nil, err
	}

	docRef := ""
	if document != nil {
		docRef, err = s.documents.Save(ctx, orgID, details.DocumentName, document)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification document")
		}
	}

	result, err := s.verifier.VerifyOrganization(ctx, oracle.VerificationSubmission{
		OrgName:            details.OrgName,
		Category:           details.Category,
		RegistrationNumber: details.RegistrationNumber,
		DocumentRef:        docRef,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "verification check failed")
	}

	org.Description = strings.TrimSpace(details.Description)
	org.Category = details.Category
	org.WebsiteURL = strings.TrimSpace(details.WebsiteURL)
	org.RegistrationNumber = strings.TrimSpace(details.RegistrationNumber)
	org.DocumentRef = docRef
	if result.Verified {
		org.VerificationStatus = VerificationVerified
	} else {
		org.VerificationStatus = VerificationRejected
	}
	org.UpdatedAt = requestcontext.Now(ctx)

	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update organization")
	}

	s.log(ctx, "organization verification decided",
		"org_id", org.ID, "status", org.VerificationStatus, "reason", result.Reason)
	return org, nil
}

// UpdatePolicy replaces the organization's data-handling policy text.
func (s *Service) UpdatePolicy(ctx context.Context, orgID id.OrgID, policyText string) (*Organization, error) {
	policyText = strings.TrimSpace(policyText)
	if policyText == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "policy_text cannot be empty")
	}

	org, err := s.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.IsVerified() {
		return nil, dErrors.New(dErrors.CodePermissionDenied, "organization must be verified to publish a policy")
	}
	org.PolicyText = policyText
	org.UpdatedAt = requestcontext.Now(ctx)

	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update organization")
	}
	return org, nil
}

// CreateAPIKey issues a key for the organization. The plaintext secret is
// returned exactly once, here; only hashes are stored.
func (s *Service) CreateAPIKey(ctx context.Context, orgID id.OrgID, name string) (*APIKey, string, error) {
	if _, err := s.GetOrganization(ctx, orgID); err != nil {
		return nil, "", err
	}

	secret, err := secrets.Generate()
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate key secret")
	}
	secretHash, err := secrets.Hash(secret)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash key secret")
	}

	key, err := NewAPIKey(id.NewKeyID(), orgID, name, secretHash, secrets.LookupHash(secret), requestcontext.Now(ctx))
	if err != nil {
		return nil, "", err
	}

	if err := s.keys.Create(ctx, key); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store api key")
	}

	s.log(ctx, "api key issued", "org_id", orgID, "key_id", key.ID)
	s.metrics.IncKeyIssued()
	return key, secret, nil
}

// ListAPIKeys returns the organization's keys, masked, newest first.
func (s *Service) ListAPIKeys(ctx context.Context, orgID id.OrgID) ([]MaskedKey, error) {
	keys, err := s.keys.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list api keys")
	}
	masked := make([]MaskedKey, 0, len(keys))
	for _, key := range keys {
		masked = append(masked, key.Masked())
	}
	return masked, nil
}

// RevokeAPIKey permanently disables a key. Revoking an already revoked key
// succeeds without effect, so client retries are safe. The revocation list is
// written before the store transition so no other instance authenticates the
// key while the transition commits.
func (s *Service) RevokeAPIKey(ctx context.Context, orgID id.OrgID, keyID id.KeyID) error {
	key, err := s.keys.FindByOrgAndID(ctx, orgID, keyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "api key not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load api key")
	}

	if err := s.revocations.MarkRevoked(ctx, key.LookupHash); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to propagate revocation")
	}

	alreadyRevoked, err := s.keys.Revoke(ctx, orgID, keyID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "api key not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke api key")
	}
	if !alreadyRevoked {
		s.log(ctx, "api key revoked", "org_id", orgID, "key_id", keyID)
		s.metrics.IncKeyRevoked()
	}
	return nil
}

// ResolveAPIKey authenticates a presented secret and returns the owning
// organization. The lookup digest narrows the candidate to one row, then the
// bcrypt hash decides. All failure modes collapse into one credential error.
func (s *Service) ResolveAPIKey(ctx context.Context, secret string) (id.OrgID, error) {
	if secret == "" {
		s.metrics.IncAuthFailure("api_key")
		return id.OrgID{}, dErrors.New(dErrors.CodeInvalidCredential, "invalid API key")
	}

	lookupHash := secrets.LookupHash(secret)

	revoked, err := s.revocations.IsRevoked(ctx, lookupHash)
	if err != nil {
		return id.OrgID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check revocation list")
	}
	if revoked {
		s.metrics.IncAuthFailure("api_key")
		return id.OrgID{}, dErrors.New(dErrors.CodeInvalidCredential, "invalid API key")
	}

	key, err := s.keys.FindActiveByLookupHash(ctx, lookupHash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			_ = secrets.Verify(secret, dummyHash)
			s.metrics.IncAuthFailure("api_key")
			return id.OrgID{}, dErrors.New(dErrors.CodeInvalidCredential, "invalid API key")
		}
		return id.OrgID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up api key")
	}
	if err := secrets.Verify(secret, key.SecretHash); err != nil {
		s.metrics.IncAuthFailure("api_key")
		return id.OrgID{}, dErrors.New(dErrors.CodeInvalidCredential, "invalid API key")
	}
	return key.OrgID, nil
}

// RegisterCitizen creates a citizen account with a unique username. Manual
// approval starts enabled.
func (s *Service) RegisterCitizen(ctx context.Context, username, password string) (*Citizen, error) {
	passwordHash, err := secrets.Hash(password)
	if err != nil {
		return nil, err
	}

	citizen, err := NewCitizen(id.NewUserID(), username, passwordHash, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.citizens.CreateIfUsernameAvailable(ctx, citizen); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeDuplicateName, "username is already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create citizen")
	}

	s.log(ctx, "citizen registered", "user_id", citizen.ID)
	return citizen, nil
}

// AuthenticateCitizen verifies a username/password pair with uniform
// failures.
func (s *Service) AuthenticateCitizen(ctx context.Context, username, password string) (*Citizen, error) {
	citizen, err := s.citizens.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			_ = secrets.Verify(password, dummyHash)
			s.metrics.IncAuthFailure("citizen_password")
			return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid username or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load citizen")
	}
	if err := secrets.Verify(password, citizen.PasswordHash); err != nil {
		s.metrics.IncAuthFailure("citizen_password")
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid username or password")
	}
	return citizen, nil
}

// GetCitizen returns the citizen aggregate.
func (s *Service) GetCitizen(ctx context.Context, userID id.UserID) (*Citizen, error) {
	citizen, err := s.citizens.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "citizen not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load citizen")
	}
	return citizen, nil
}

// UpdateCitizenProfile merges the supplied attributes into the citizen's
// profile. Empty values delete the attribute.
func (s *Service) UpdateCitizenProfile(ctx context.Context, userID id.UserID, attributes map[string]string) (*Citizen, error) {
	citizen, err := s.GetCitizen(ctx, userID)
	if err != nil {
		return nil, err
	}

	if citizen.Profile == nil {
		citizen.Profile = make(map[string]string, len(attributes))
	}
	for k, v := range attributes {
		if v == "" {
			delete(citizen.Profile, k)
			continue
		}
		citizen.Profile[k] = v
	}
	citizen.UpdatedAt = requestcontext.Now(ctx)

	if err := s.citizens.Update(ctx, citizen); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update citizen")
	}
	return citizen, nil
}

// SetManualApproval toggles whether the citizen reviews every request.
func (s *Service) SetManualApproval(ctx context.Context, userID id.UserID, required bool) (*Citizen, error) {
	citizen, err := s.GetCitizen(ctx, userID)
	if err != nil {
		return nil, err
	}
	citizen.ManualApprovalRequired = required
	citizen.UpdatedAt = requestcontext.Now(ctx)

	if err := s.citizens.Update(ctx, citizen); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update citizen")
	}

	s.log(ctx, "manual approval toggled", "user_id", userID, "required", required)
	return citizen, nil
}

func (s *Service) log(ctx context.Context, msg string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, msg, attributes...)
}
