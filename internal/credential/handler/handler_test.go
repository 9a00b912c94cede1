package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"trustgrid/internal/credential"
	"trustgrid/internal/credential/handler/mocks"
	id "trustgrid/pkg/domain"
	dErrors "trustgrid/pkg/domain-errors"
	"trustgrid/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/credential-mocks.go -package=mocks

type CredentialHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	tokens  *mocks.MockTokenIssuer
	router  chi.Router
	handler *Handler
}

func TestCredentialHandlerSuite(t *testing.T) {
	suite.Run(t, new(CredentialHandlerSuite))
}

func (s *CredentialHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.tokens = mocks.NewMockTokenIssuer(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.handler = New(s.service, s.tokens, stubValidator{}, logger)
	s.router = chi.NewRouter()
	s.handler.Register(s.router)
}

func (s *CredentialHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

// stubValidator bypasses JWT parsing; the token string is the user id.
type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (id.UserID, error) {
	return id.ParseUserID(token)
}

func jsonBody(s *CredentialHandlerSuite, v any) *bytes.Reader {
	raw, err := json.Marshal(v)
	s.Require().NoError(err)
	return bytes.NewReader(raw)
}

func (s *CredentialHandlerSuite) TestRegisterOrgIssuesInitialKey() {
	orgID := id.NewOrgID()
	now := time.Date(2025, 11, 20, 9, 30, 0, 0, time.UTC)
	org := &credential.Organization{ID: orgID, Name: "Acme", VerificationStatus: credential.VerificationUnverified}
	key := &credential.APIKey{ID: id.NewKeyID(), OrgID: orgID, Name: "default", Status: credential.KeyStatusActive, CreatedAt: now}

	s.service.EXPECT().RegisterOrganization(gomock.Any(), "Acme", "hunter2hunter2").Return(org, nil)
	s.service.EXPECT().CreateAPIKey(gomock.Any(), orgID, "default").Return(key, "plaintext-secret", nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/org/register",
		map[string]string{"org_name": "Acme", "password": "hunter2hunter2"})
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp map[string]any
	testutil.DecodeJSON(s.T(), w, &resp)
	apiKey := resp["api_key"].(map[string]any)
	s.Equal("plaintext-secret", apiKey["api_key"])
	s.Equal("default", apiKey["name"])
}

func (s *CredentialHandlerSuite) TestRegisterOrgRejectsMissingFields() {
	req := httptest.NewRequest(http.MethodPost, "/org/register",
		jsonBody(s, map[string]string{"org_name": "Acme"}))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *CredentialHandlerSuite) TestOrgLoginWithAPIKey() {
	orgID := id.NewOrgID()
	org := &credential.Organization{ID: orgID, Name: "Acme"}
	s.service.EXPECT().ResolveAPIKey(gomock.Any(), "the-secret").Return(orgID, nil)
	s.service.EXPECT().GetOrganization(gomock.Any(), orgID).Return(org, nil)

	req := httptest.NewRequest(http.MethodPost, "/org/login",
		jsonBody(s, map[string]string{"api_key": "the-secret"}))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *CredentialHandlerSuite) TestOrgLoginRevokedKey() {
	s.service.EXPECT().ResolveAPIKey(gomock.Any(), "revoked-secret").
		Return(id.OrgID{}, dErrors.New(dErrors.CodeInvalidCredential, "invalid API key"))

	req := httptest.NewRequest(http.MethodPost, "/org/login",
		jsonBody(s, map[string]string{"api_key": "revoked-secret"}))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)
	var resp map[string]map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("invalid_credential", resp["error"]["code"])
}

func (s *CredentialHandlerSuite) TestProtectedRouteRequiresKey() {
	req := httptest.NewRequest(http.MethodGet, "/org/me", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *CredentialHandlerSuite) TestRevokeKey() {
	orgID := id.NewOrgID()
	keyID := id.NewKeyID()
	s.service.EXPECT().ResolveAPIKey(gomock.Any(), "the-secret").Return(orgID, nil)
	s.service.EXPECT().RevokeAPIKey(gomock.Any(), orgID, keyID).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/org/api-keys/"+keyID.String()+"/revoke", nil)
	req.Header.Set("X-API-Key", "the-secret")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNoContent, w.Code)
}

func (s *CredentialHandlerSuite) TestCitizenLoginReturnsToken() {
	userID := id.NewUserID()
	citizen := &credential.Citizen{ID: userID, Username: "amina", ManualApprovalRequired: true}
	s.service.EXPECT().AuthenticateCitizen(gomock.Any(), "amina", "pw").Return(citizen, nil)
	s.tokens.EXPECT().GenerateToken(userID).Return("signed-token", nil)

	req := httptest.NewRequest(http.MethodPost, "/citizen/login",
		jsonBody(s, map[string]string{"username": "amina", "password": "pw"}))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code, w.Body.String())
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("signed-token", resp["token"])
}

func (s *CredentialHandlerSuite) TestProfileRejectsOtherUser() {
	userID := id.NewUserID()
	otherID := id.NewUserID()

	req := httptest.NewRequest(http.MethodGet, "/citizen/"+otherID.String()+"/profile", nil)
	req.Header.Set("Authorization", "Bearer "+userID.String())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusForbidden, w.Code, w.Body.String())
}

func (s *CredentialHandlerSuite) TestProfileUpdateTogglesManualApproval() {
	userID := id.NewUserID()
	manualOff := false
	citizen := &credential.Citizen{ID: userID, Username: "amina", ManualApprovalRequired: true}
	updated := &credential.Citizen{ID: userID, Username: "amina", ManualApprovalRequired: false}

	s.service.EXPECT().GetCitizen(gomock.Any(), userID).Return(citizen, nil)
	s.service.EXPECT().SetManualApproval(gomock.Any(), userID, manualOff).Return(updated, nil)

	req := httptest.NewRequest(http.MethodPut, "/citizen/"+userID.String()+"/profile",
		jsonBody(s, profileUpdateRequest{ManualApprovalRequired: &manualOff}))
	req.Header.Set("Authorization", "Bearer "+userID.String())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code, w.Body.String())
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(false, resp["manual_approval_required"])
}

// Context plumbing sanity: the handler reads the org id the middleware set.
func (s *CredentialHandlerSuite) TestGetOrgUsesAuthenticatedOrg() {
	orgID := id.NewOrgID()
	org := &credential.Organization{ID: orgID, Name: "Acme"}
	s.service.EXPECT().GetOrganization(gomock.Any(), orgID).Return(org, nil)

	req := testutil.WithOrgID(testutil.NewRequest(s.T(), http.MethodGet, "/org/me"), orgID)
	w := httptest.NewRecorder()
	s.handler.handleGetOrg(w, req)

	s.Equal(http.StatusOK, w.Code)
}
