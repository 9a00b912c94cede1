// Package consentflow drives the full HTTP stack end to end with in-memory
// stores: organization onboarding, consent requests, citizen decisions and
// the transparency log, all through the public API.
package consentflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustgrid/internal/consent"
	consenthandler "trustgrid/internal/consent/handler"
	"trustgrid/internal/credential"
	credentialhandler "trustgrid/internal/credential/handler"
	jwttoken "trustgrid/internal/jwt_token"
	"trustgrid/internal/oracle"
	"trustgrid/internal/transparency"
	transparencyhandler "trustgrid/internal/transparency/handler"
	httptransport "trustgrid/internal/transport/http"
)

// stack is the whole service wired over in-memory stores.
type stack struct {
	t      *testing.T
	router http.Handler
	oracle *oracle.StaticOracle
}

func newStack(t *testing.T) *stack {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	policyOracle := &oracle.StaticOracle{
		Result: oracle.Result{Decision: oracle.DecisionRefer, Rationale: "deferred to the citizen"},
	}
	credentials := credential.New(
		credential.NewInMemoryOrgStore(),
		credential.NewInMemoryKeyStore(),
		credential.NewInMemoryCitizenStore(),
		credential.NewInMemoryDocumentStore(),
		&oracle.StaticVerifier{Result: oracle.VerificationResult{Verified: true, Reason: "ok"}},
		credential.WithLogger(logger),
	)
	transparencyLog := transparency.New(transparency.NewInMemoryStore(), transparency.WithLogger(logger))
	engine := consent.New(consent.NewInMemoryStore(), credentials, policyOracle, transparencyLog,
		consent.WithLogger(logger))
	tokens := jwttoken.NewService("integration-test-key", time.Hour)

	router := httptransport.NewRouter(logger,
		credentialhandler.New(credentials, tokens, tokens, logger),
		consenthandler.New(engine, credentials, tokens, logger),
		transparencyhandler.New(transparencyLog, credentials, tokens, logger),
	)
	return &stack{t: t, router: router, oracle: policyOracle}
}

func (s *stack) do(method, path string, headers map[string]string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *stack) decode(w *httptest.ResponseRecorder, wantStatus int) map[string]any {
	s.t.Helper()
	require.Equal(s.t, wantStatus, w.Code, w.Body.String())
	var out map[string]any
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *stack) decodeList(w *httptest.ResponseRecorder, wantStatus int) []map[string]any {
	s.t.Helper()
	require.Equal(s.t, wantStatus, w.Code, w.Body.String())
	var out []map[string]any
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func orgKey(secret string) map[string]string {
	return map[string]string{"X-API-Key": secret}
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// registerVerifiedOrg walks an organization through registration,
// verification and policy publication, returning its API key secret.
func (s *stack) registerVerifiedOrg(name string) string {
	s.t.Helper()
	resp := s.decode(s.do(http.MethodPost, "/api/v1/org/register", nil, map[string]string{
		"org_name": name,
		"password": "hunter2hunter2",
	}), http.StatusCreated)
	secret := resp["api_key"].(map[string]any)["api_key"].(string)
	require.NotEmpty(s.t, secret)

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	require.NoError(s.t, mw.WriteField("org_name", name))
	require.NoError(s.t, mw.WriteField("company_category", "Fintech"))
	require.NoError(s.t, mw.WriteField("business_registration_number", "RC123456"))
	part, err := mw.CreateFormFile("document", "certificate.pdf")
	require.NoError(s.t, err)
	_, err = part.Write([]byte("certificate"))
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/org/submit-for-verification", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Key", secret)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	verified := s.decode(w, http.StatusOK)
	require.Equal(s.t, "verified", verified["verification_status"])

	s.decode(s.do(http.MethodPost, "/api/v1/org/policy", orgKey(secret), map[string]string{
		"policy_text": "We collect only what the citizen approves.",
	}), http.StatusOK)
	return secret
}

// registerCitizen returns the citizen id and session token.
func (s *stack) registerCitizen(username string) (string, string) {
	s.t.Helper()
	s.decode(s.do(http.MethodPost, "/api/v1/citizen/register", nil, map[string]string{
		"username": username,
		"password": "correct horse battery",
	}), http.StatusCreated)
	resp := s.decode(s.do(http.MethodPost, "/api/v1/citizen/login", nil, map[string]string{
		"username": username,
		"password": "correct horse battery",
	}), http.StatusOK)
	return resp["user"].(map[string]any)["id"].(string), resp["token"].(string)
}

// A referred request surfaces to the citizen, their denial lands in both
// transparency logs, and the pending list empties.
func TestReferredRequestDecidedByCitizen(t *testing.T) {
	s := newStack(t)
	secret := s.registerVerifiedOrg("Acme Lending")
	userID, token := s.registerCitizen("amina")

	submitted := s.decode(s.do(http.MethodPost, "/api/v1/request-data", orgKey(secret), map[string]string{
		"user_id":   userID,
		"data_type": "phone_number",
		"purpose":   "loan assessment",
	}), http.StatusCreated)
	assert.Equal(t, "pending", submitted["status"])
	requestID := submitted["id"].(string)

	pending := s.decodeList(s.do(http.MethodGet, fmt.Sprintf("/api/v1/citizen/%s/requests", userID), bearer(token), nil), http.StatusOK)
	require.Len(t, pending, 1)
	assert.Equal(t, requestID, pending[0]["id"])

	orgLog := s.decodeList(s.do(http.MethodGet, "/api/v1/org/log", orgKey(secret), nil), http.StatusOK)
	require.Len(t, orgLog, 1)
	assert.Equal(t, "pending", orgLog[0]["status"])

	decided := s.decode(s.do(http.MethodPost, "/api/v1/citizen/respond", bearer(token), map[string]string{
		"request_id": requestID,
		"decision":   "deny",
	}), http.StatusOK)
	assert.Equal(t, "denied", decided["status"])
	assert.Equal(t, "manual", decided["approval_method"])

	pending = s.decodeList(s.do(http.MethodGet, fmt.Sprintf("/api/v1/citizen/%s/requests", userID), bearer(token), nil), http.StatusOK)
	assert.Empty(t, pending)

	citizenLog := s.decodeList(s.do(http.MethodGet, fmt.Sprintf("/api/v1/citizen/%s/log", userID), bearer(token), nil), http.StatusOK)
	require.Len(t, citizenLog, 1)
	assert.Equal(t, "denied", citizenLog[0]["status"])
	assert.Equal(t, "Acme Lending", citizenLog[0]["org_name"])

	orgLog = s.decodeList(s.do(http.MethodGet, "/api/v1/org/log", orgKey(secret), nil), http.StatusOK)
	require.Len(t, orgLog, 1)
	assert.Equal(t, "denied", orgLog[0]["status"])
}

// An approving oracle with manual approval off resolves the request without
// the citizen ever seeing it as pending; the log still carries it.
func TestAutoApprovedRequestSkipsPending(t *testing.T) {
	s := newStack(t)
	s.oracle.Result = oracle.Result{Decision: oracle.DecisionApprove, Rationale: "compliant"}
	secret := s.registerVerifiedOrg("Acme Lending")
	userID, token := s.registerCitizen("amina")

	// Citizens review everything by default; opt out to allow auto-resolution.
	s.decode(s.do(http.MethodPut, fmt.Sprintf("/api/v1/citizen/%s/profile", userID), bearer(token), map[string]any{
		"manual_approval_required": false,
	}), http.StatusOK)

	submitted := s.decode(s.do(http.MethodPost, "/api/v1/request-data", orgKey(secret), map[string]string{
		"user_id":   userID,
		"data_type": "phone_number",
		"purpose":   "loan assessment",
	}), http.StatusCreated)
	assert.Equal(t, "auto_approved", submitted["status"])
	assert.Equal(t, "auto", submitted["approval_method"])
	assert.NotEmpty(t, submitted["responded_at"])

	pending := s.decodeList(s.do(http.MethodGet, fmt.Sprintf("/api/v1/citizen/%s/requests", userID), bearer(token), nil), http.StatusOK)
	assert.Empty(t, pending)

	citizenLog := s.decodeList(s.do(http.MethodGet, fmt.Sprintf("/api/v1/citizen/%s/log", userID), bearer(token), nil), http.StatusOK)
	require.Len(t, citizenLog, 1)
	assert.Equal(t, "auto_approved", citizenLog[0]["status"])
}

// The citizen's manual-approval setting parks even an approving oracle
// verdict as pending.
func TestManualApprovalOverridesOracle(t *testing.T) {
	s := newStack(t)
	s.oracle.Result = oracle.Result{Decision: oracle.DecisionApprove, Rationale: "compliant"}
	secret := s.registerVerifiedOrg("Acme Lending")
	userID, token := s.registerCitizen("amina")

	s.decode(s.do(http.MethodPut, fmt.Sprintf("/api/v1/citizen/%s/profile", userID), bearer(token), map[string]any{
		"manual_approval_required": true,
	}), http.StatusOK)

	submitted := s.decode(s.do(http.MethodPost, "/api/v1/request-data", orgKey(secret), map[string]string{
		"user_id":   userID,
		"data_type": "phone_number",
		"purpose":   "loan assessment",
	}), http.StatusCreated)
	assert.Equal(t, "pending", submitted["status"])
}

// Key lifecycle: revealed once at creation, usable until revoked, dead after.
func TestAPIKeyLifecycle(t *testing.T) {
	s := newStack(t)
	initial := s.registerVerifiedOrg("Acme Lending")

	created := s.decode(s.do(http.MethodPost, "/api/v1/org/api-keys", orgKey(initial), map[string]string{
		"name": "ci",
	}), http.StatusCreated)
	secret := created["api_key"].(string)
	keyID := created["id"].(string)
	require.NotEmpty(t, secret)

	// The new key authenticates.
	s.decode(s.do(http.MethodPost, "/api/v1/org/login", nil, map[string]string{"api_key": secret}), http.StatusOK)
	s.decode(s.do(http.MethodGet, "/api/v1/org/me", orgKey(secret), nil), http.StatusOK)

	// Listing never repeats the plaintext.
	listed := s.decodeList(s.do(http.MethodGet, "/api/v1/org/api-keys", orgKey(initial), nil), http.StatusOK)
	require.Len(t, listed, 2)
	for _, key := range listed {
		_, leaked := key["api_key"]
		assert.False(t, leaked)
	}

	w := s.do(http.MethodPost, fmt.Sprintf("/api/v1/org/api-keys/%s/revoke", keyID), orgKey(initial), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// The revoked key is dead everywhere; the other key still works.
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/org/me", orgKey(secret), nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/org/login", nil, map[string]string{"api_key": secret}).Code)
	s.decode(s.do(http.MethodGet, "/api/v1/org/me", orgKey(initial), nil), http.StatusOK)
}

// An unverified organization cannot request data at all.
func TestUnverifiedOrgCannotRequestData(t *testing.T) {
	s := newStack(t)
	resp := s.decode(s.do(http.MethodPost, "/api/v1/org/register", nil, map[string]string{
		"org_name": "Shady Co",
		"password": "hunter2hunter2",
	}), http.StatusCreated)
	secret := resp["api_key"].(map[string]any)["api_key"].(string)
	userID, _ := s.registerCitizen("amina")

	w := s.do(http.MethodPost, "/api/v1/request-data", orgKey(secret), map[string]string{
		"user_id":   userID,
		"data_type": "phone_number",
		"purpose":   "loan assessment",
	})
	body := s.decode(w, http.StatusForbidden)
	assert.Equal(t, "permission_denied", body["error"].(map[string]any)["code"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newStack(t)
	s.decode(s.do(http.MethodGet, "/health", nil, nil), http.StatusOK)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/metrics", nil, nil).Code)
}
