// Package handler exposes the credential endpoints: organization
// registration, verification and API key lifecycle, citizen accounts and
// profiles.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"trustgrid/internal/credential"
	"trustgrid/internal/platform/middleware"
	"trustgrid/internal/transport/http/shared"
	id "trustgrid/pkg/domain"
	dErrors "trustgrid/pkg/domain-errors"
	"trustgrid/pkg/requestcontext"
)

// maxDocumentBytes caps verification document uploads.
const maxDocumentBytes = 10 << 20

// Service defines the credential operations the handler needs.
type Service interface {
	RegisterOrganization(ctx context.Context, name, password string) (*credential.Organization, error)
	AuthenticateOrganization(ctx context.Context, name, password string) (*credential.Organization, error)
	GetOrganization(ctx context.Context, orgID id.OrgID) (*credential.Organization, error)
	SubmitForVerification(ctx context.Context, orgID id.OrgID, details credential.VerificationDetails, document io.Reader) (*credential.Organization, error)
	UpdatePolicy(ctx context.Context, orgID id.OrgID, policyText string) (*credential.Organization, error)
	CreateAPIKey(ctx context.Context, orgID id.OrgID, name string) (*credential.APIKey, string, error)
	ListAPIKeys(ctx context.Context, orgID id.OrgID) ([]credential.MaskedKey, error)
	RevokeAPIKey(ctx context.Context, orgID id.OrgID, keyID id.KeyID) error
	ResolveAPIKey(ctx context.Context, secret string) (id.OrgID, error)
	RegisterCitizen(ctx context.Context, username, password string) (*credential.Citizen, error)
	AuthenticateCitizen(ctx context.Context, username, password string) (*credential.Citizen, error)
	GetCitizen(ctx context.Context, userID id.UserID) (*credential.Citizen, error)
	UpdateCitizenProfile(ctx context.Context, userID id.UserID, attributes map[string]string) (*credential.Citizen, error)
	SetManualApproval(ctx context.Context, userID id.UserID, required bool) (*credential.Citizen, error)
}

// TokenIssuer mints citizen session tokens.
type TokenIssuer interface {
	GenerateToken(userID id.UserID) (string, error)
}

// Handler handles credential endpoints.
type Handler struct {
	service   Service
	tokens    TokenIssuer
	validator middleware.SessionValidator
	logger    *slog.Logger
}

// New creates a credential Handler.
func New(service Service, tokens TokenIssuer, validator middleware.SessionValidator, logger *slog.Logger) *Handler {
	return &Handler{service: service, tokens: tokens, validator: validator, logger: logger}
}

// Register mounts the credential routes. Registration and login are public;
// org management requires the API key; citizen profile routes require the
// session token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/org/register", h.handleRegisterOrg)
	r.Post("/org/login", h.handleOrgLogin)
	r.Post("/citizen/register", h.handleRegisterCitizen)
	r.Post("/citizen/login", h.handleCitizenLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOrgKey(h.service, h.logger))
		r.Get("/org/me", h.handleGetOrg)
		r.Post("/org/submit-for-verification", h.handleSubmitForVerification)
		r.Post("/org/policy", h.handleUpdatePolicy)
		r.Get("/org/api-keys", h.handleListKeys)
		r.Post("/org/api-keys", h.handleCreateKey)
		r.Post("/org/api-keys/{keyID}/revoke", h.handleRevokeKey)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireCitizen(h.validator, h.logger))
		r.Get("/citizen/{userID}/profile", h.handleGetProfile)
		r.Put("/citizen/{userID}/profile", h.handleUpdateProfile)
	})
}

func (h *Handler) handleRegisterOrg(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerOrgRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		shared.WriteError(w, err)
		return
	}

	org, err := h.service.RegisterOrganization(ctx, req.OrgName, req.Password)
	if err != nil {
		h.writeError(ctx, w, err, "failed to register organization")
		return
	}

	// Every organization starts with one key so it can call the API at all.
	key, secret, err := h.service.CreateAPIKey(ctx, org.ID, "default")
	if err != nil {
		h.writeError(ctx, w, err, "failed to issue initial api key")
		return
	}

	shared.WriteJSON(w, http.StatusCreated, registerOrgResponse{
		Organization: org,
		APIKey:       revealedKey{MaskedKey: key.Masked(), Key: secret},
	})
}

func (h *Handler) handleOrgLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req orgLoginRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	var (
		org *credential.Organization
		err error
	)
	switch {
	case req.APIKey != "":
		var orgID id.OrgID
		orgID, err = h.service.ResolveAPIKey(ctx, req.APIKey)
		if err == nil {
			org, err = h.service.GetOrganization(ctx, orgID)
		}
	case req.OrgName != "":
		org, err = h.service.AuthenticateOrganization(ctx, req.OrgName, req.Password)
	default:
		err = dErrors.New(dErrors.CodeBadRequest, "either api_key or org_name and password are required")
	}
	if err != nil {
		h.writeError(ctx, w, err, "organization login failed")
		return
	}

	shared.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) handleGetOrg(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	org, err := h.service.GetOrganization(ctx, requestcontext.OrgID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "failed to load organization")
		return
	}
	shared.WriteJSON(w, http.StatusOK, org)
}

// handleSubmitForVerification accepts a multipart form: identity fields plus
// an optional "document" file part.
func (h *Handler) handleSubmitForVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}

	details := credential.VerificationDetails{
		OrgName:            r.FormValue("org_name"),
		Description:        r.FormValue("company_description"),
		Category:           r.FormValue("company_category"),
		WebsiteURL:         r.FormValue("website_url"),
		RegistrationNumber: r.FormValue("business_registration_number"),
	}

	var document io.Reader
	if file, header, err := r.FormFile("document"); err == nil {
		defer file.Close()
		details.DocumentName = header.Filename
		document = file
	}

	org, err := h.service.SubmitForVerification(ctx, requestcontext.OrgID(ctx), details, document)
	if err != nil {
		h.writeError(ctx, w, err, "verification submission failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req policyRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	org, err := h.service.UpdatePolicy(ctx, requestcontext.OrgID(ctx), req.PolicyText)
	if err != nil {
		h.writeError(ctx, w, err, "failed to update policy")
		return
	}
	shared.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) handleListKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	keys, err := h.service.ListAPIKeys(ctx, requestcontext.OrgID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "failed to list api keys")
		return
	}
	shared.WriteJSON(w, http.StatusOK, keys)
}

func (h *Handler) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createKeyRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	key, secret, err := h.service.CreateAPIKey(ctx, requestcontext.OrgID(ctx), req.Name)
	if err != nil {
		h.writeError(ctx, w, err, "failed to create api key")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, revealedKey{MaskedKey: key.Masked(), Key: secret})
}

func (h *Handler) handleRevokeKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	keyID, err := id.ParseKeyID(chi.URLParam(r, "keyID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.service.RevokeAPIKey(ctx, requestcontext.OrgID(ctx), keyID); err != nil {
		h.writeError(ctx, w, err, "failed to revoke api key")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRegisterCitizen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerCitizenRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		shared.WriteError(w, err)
		return
	}

	citizen, err := h.service.RegisterCitizen(ctx, req.Username, req.Password)
	if err != nil {
		h.writeError(ctx, w, err, "failed to register citizen")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, citizen)
}

func (h *Handler) handleCitizenLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req citizenLoginRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	citizen, err := h.service.AuthenticateCitizen(ctx, req.Username, req.Password)
	if err != nil {
		h.writeError(ctx, w, err, "citizen login failed")
		return
	}

	token, err := h.tokens.GenerateToken(citizen.ID)
	if err != nil {
		h.writeError(ctx, w, err, "failed to issue session token")
		return
	}
	shared.WriteJSON(w, http.StatusOK, citizenLoginResponse{User: citizen, Token: token})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := h.pathUser(ctx, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	citizen, err := h.service.GetCitizen(ctx, userID)
	if err != nil {
		h.writeError(ctx, w, err, "failed to load citizen")
		return
	}
	shared.WriteJSON(w, http.StatusOK, citizen)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := h.pathUser(ctx, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req profileUpdateRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	citizen, err := h.service.GetCitizen(ctx, userID)
	if err != nil {
		h.writeError(ctx, w, err, "failed to load citizen")
		return
	}
	if len(req.Profile) > 0 {
		citizen, err = h.service.UpdateCitizenProfile(ctx, userID, req.Profile)
		if err != nil {
			h.writeError(ctx, w, err, "failed to update profile")
			return
		}
	}
	if req.ManualApprovalRequired != nil {
		citizen, err = h.service.SetManualApproval(ctx, userID, *req.ManualApprovalRequired)
		if err != nil {
			h.writeError(ctx, w, err, "failed to update approval setting")
			return
		}
	}
	shared.WriteJSON(w, http.StatusOK, citizen)
}

// pathUser parses the {userID} path segment and enforces that it matches the
// authenticated session. Citizens only ever see their own resources.
func (h *Handler) pathUser(ctx context.Context, r *http.Request) (id.UserID, error) {
	userID, err := id.ParseUserID(strings.TrimSpace(chi.URLParam(r, "userID")))
	if err != nil {
		return id.UserID{}, err
	}
	if userID != requestcontext.UserID(ctx) {
		return id.UserID{}, dErrors.New(dErrors.CodePermissionDenied, "cannot access another citizen's resources")
	}
	return userID, nil
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	shared.WriteError(w, err)
}
