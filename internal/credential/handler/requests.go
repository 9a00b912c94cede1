package handler

import (
	"strings"

	"trustgrid/internal/credential"
	dErrors "trustgrid/pkg/domain-errors"
)

type registerOrgRequest struct {
	OrgName  string `json:"org_name"`
	Password string `json:"password"`
}

func (r *registerOrgRequest) Validate() error {
	if strings.TrimSpace(r.OrgName) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "org_name is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "password is required")
	}
	return nil
}

// orgLoginRequest accepts either an API key or a name/password pair.
type orgLoginRequest struct {
	APIKey   string `json:"api_key,omitempty"`
	OrgName  string `json:"org_name,omitempty"`
	Password string `json:"password,omitempty"`
}

type policyRequest struct {
	PolicyText string `json:"policy_text"`
}

type createKeyRequest struct {
	Name string `json:"name"`
}

type registerCitizenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *registerCitizenRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "username is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "password is required")
	}
	return nil
}

type citizenLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// profileUpdateRequest carries opaque attributes plus the one interpreted
// setting. Pointers distinguish "absent" from zero values.
type profileUpdateRequest struct {
	Profile                map[string]string `json:"profile,omitempty"`
	ManualApprovalRequired *bool             `json:"manual_approval_required,omitempty"`
}

// revealedKey is the creation-time representation: the only response that
// ever contains the plaintext secret.
type revealedKey struct {
	credential.MaskedKey
	Key string `json:"api_key"`
}

type registerOrgResponse struct {
	Organization *credential.Organization `json:"organization"`
	APIKey       revealedKey              `json:"api_key"`
}

type citizenLoginResponse struct {
	User  *credential.Citizen `json:"user"`
	Token string              `json:"token"`
}
