package consent

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustgrid/internal/credential"
	"trustgrid/internal/oracle"
	"trustgrid/internal/transparency"
	id "trustgrid/pkg/domain"
	dErrors "trustgrid/pkg/domain-errors"
	"trustgrid/pkg/requestcontext"
)

type ConsentEngineSuite struct {
	suite.Suite
	ctx          context.Context
	now          time.Time
	creds        *credential.Service
	oracle       *oracle.StaticOracle
	transparency *transparency.Service
	engine       *Service

	org     *credential.Organization
	citizen *credential.Citizen
}

func TestConsentEngineSuite(t *testing.T) {
	suite.Run(t, new(ConsentEngineSuite))
}

func (s *ConsentEngineSuite) SetupTest() {
	s.now = time.Date(2025, 11, 20, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.creds = credential.New(
		credential.NewInMemoryOrgStore(),
		credential.NewInMemoryKeyStore(),
		credential.NewInMemoryCitizenStore(),
		credential.NewInMemoryDocumentStore(),
		&oracle.StaticVerifier{Result: oracle.VerificationResult{Verified: true, Reason: "ok"}},
	)
	s.oracle = &oracle.StaticOracle{
		Result: oracle.Result{Decision: oracle.DecisionRefer, Rationale: "needs the citizen's view"},
	}
	s.transparency = transparency.New(transparency.NewInMemoryStore())
	s.engine = New(NewInMemoryStore(), s.creds, s.oracle, s.transparency)

	var err error
	s.org, err = s.creds.RegisterOrganization(s.ctx, "Acme Lending", "hunter2hunter2")
	s.Require().NoError(err)
	s.org, err = s.creds.SubmitForVerification(s.ctx, s.org.ID, credential.VerificationDetails{
		OrgName:            "Acme Lending",
		Category:           "Fintech",
		RegistrationNumber: "RC123456",
	}, strings.NewReader("certificate"))
	s.Require().NoError(err)
	s.org, err = s.creds.UpdatePolicy(s.ctx, s.org.ID, "We collect only what the citizen approves.")
	s.Require().NoError(err)

	s.citizen, err = s.creds.RegisterCitizen(s.ctx, "amina", "correct horse battery")
	s.Require().NoError(err)
}

func (s *ConsentEngineSuite) submit() *ConsentRequest {
	request, err := s.engine.Submit(s.ctx, s.org.ID, s.citizen.ID, "phone_number", "loan assessment")
	s.Require().NoError(err)
	return request
}

func (s *ConsentEngineSuite) setManualApproval(required bool) {
	var err error
	s.citizen, err = s.creds.SetManualApproval(s.ctx, s.citizen.ID, required)
	s.Require().NoError(err)
}

func (s *ConsentEngineSuite) TestSubmitRefersToPending() {
	request := s.submit()
	s.Equal(StatusPending, request.Status)
	s.Equal("needs the citizen's view", request.OracleRationale)
	s.Nil(request.RespondedAt)
	s.Empty(request.ApprovalMethod)
	s.Equal(s.now, request.RequestedAt)
}

// Precedence matrix: oracle verdict x manual_approval_required.
func (s *ConsentEngineSuite) TestInitialStatePrecedence() {
	cases := []struct {
		name       string
		verdict    oracle.Decision
		manual     bool
		wantStatus Status
	}{
		{"approve with manual off auto-approves", oracle.DecisionApprove, false, StatusAutoApproved},
		{"deny with manual off auto-denies", oracle.DecisionDeny, false, StatusAutoDenied},
		{"refer with manual off stays pending", oracle.DecisionRefer, false, StatusPending},
		{"approve with manual on stays pending", oracle.DecisionApprove, true, StatusPending},
		{"deny with manual on stays pending", oracle.DecisionDeny, true, StatusPending},
		{"refer with manual on stays pending", oracle.DecisionRefer, true, StatusPending},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.oracle.Result = oracle.Result{Decision: tc.verdict, Rationale: "because"}
			s.setManualApproval(tc.manual)

			request := s.submit()
			s.Equal(tc.wantStatus, request.Status)
			s.Equal("because", request.OracleRationale)

			if tc.wantStatus == StatusPending {
				s.Nil(request.RespondedAt)
				s.Empty(request.ApprovalMethod)
			} else {
				s.NotNil(request.RespondedAt)
				s.Equal(ApprovalAuto, request.ApprovalMethod)
			}
		})
	}
}

func (s *ConsentEngineSuite) TestAutoResolvedNeverVisibleAsPending() {
	s.oracle.Result = oracle.Result{Decision: oracle.DecisionApprove, Rationale: "compliant"}
	s.setManualApproval(false)

	request := s.submit()
	s.Equal(StatusAutoApproved, request.Status)

	pending, err := s.engine.PendingForUser(s.ctx, s.citizen.ID)
	s.Require().NoError(err)
	s.Empty(pending)

	// The log still carries the request, already terminal.
	entries, err := s.transparency.CitizenLog(s.ctx, s.citizen.ID, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(string(StatusAutoApproved), entries[0].Status)
}

func (s *ConsentEngineSuite) TestSubmitRequiresVerifiedOrg() {
	unverified, err := s.creds.RegisterOrganization(s.ctx, "Shady Co", "hunter2hunter2")
	s.Require().NoError(err)

	_, err = s.engine.Submit(s.ctx, unverified.ID, s.citizen.ID, "phone_number", "marketing")
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
}

func (s *ConsentEngineSuite) TestSubmitRequiresPolicyText() {
	// Verified but never published a policy.
	org, err := s.creds.RegisterOrganization(s.ctx, "Beta Corp", "hunter2hunter2")
	s.Require().NoError(err)
	org, err = s.creds.SubmitForVerification(s.ctx, org.ID, credential.VerificationDetails{
		OrgName:            "Beta Corp",
		Category:           "Fintech",
		RegistrationNumber: "RC654321",
	}, nil)
	s.Require().NoError(err)

	_, err = s.engine.Submit(s.ctx, org.ID, s.citizen.ID, "phone_number", "loan assessment")
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))
}

func (s *ConsentEngineSuite) TestSubmitValidatesInput() {
	_, err := s.engine.Submit(s.ctx, s.org.ID, s.citizen.ID, "favorite_color", "loan assessment")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.engine.Submit(s.ctx, s.org.ID, s.citizen.ID, "phone_number", "  ")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.engine.Submit(s.ctx, s.org.ID, id.NewUserID(), "phone_number", "loan assessment")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ConsentEngineSuite) TestOracleFailureCollapsesToRefer() {
	s.oracle.Err = dErrors.New(dErrors.CodeOracleUnavailable, "connection refused")
	s.setManualApproval(false)

	request := s.submit()
	s.Equal(StatusPending, request.Status)
	s.Contains(request.OracleRationale, "unavailable")
}

func (s *ConsentEngineSuite) TestOracleRetriesOnceThenSucceeds() {
	flaky := &flakyOracle{
		failures: 1,
		result:   oracle.Result{Decision: oracle.DecisionApprove, Rationale: "compliant"},
	}
	s.engine = New(NewInMemoryStore(), s.creds, flaky, s.transparency)
	s.setManualApproval(false)

	request := s.submit()
	s.Equal(StatusAutoApproved, request.Status)
	s.Equal(2, flaky.calls)
}

func (s *ConsentEngineSuite) TestRespondApprove() {
	request := s.submit()
	decideTime := s.now.Add(5 * time.Minute)
	ctx := requestcontext.WithTime(context.Background(), decideTime)

	decided, err := s.engine.Respond(ctx, s.citizen.ID, request.ID, DecisionApprove)
	s.Require().NoError(err)
	s.Equal(StatusApproved, decided.Status)
	s.Equal(ApprovalManual, decided.ApprovalMethod)
	s.Require().NotNil(decided.RespondedAt)
	s.Equal(decideTime, *decided.RespondedAt)

	// Deciding again is an invalid transition, whatever the direction.
	_, err = s.engine.Respond(ctx, s.citizen.ID, request.ID, DecisionApprove)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	_, err = s.engine.Respond(ctx, s.citizen.ID, request.ID, DecisionDeny)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *ConsentEngineSuite) TestRespondScopedToOwner() {
	request := s.submit()

	_, err := s.engine.Respond(s.ctx, id.NewUserID(), request.ID, DecisionApprove)
	s.True(dErrors.HasCode(err, dErrors.CodePermissionDenied))

	_, err = s.engine.Respond(s.ctx, s.citizen.ID, id.NewRequestID(), DecisionApprove)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// Scenario: N goroutines race to decide one pending request. Exactly one
// wins; the rest observe InvalidTransition; the stored state matches the
// winner.
func (s *ConsentEngineSuite) TestConcurrentRespondsHaveOneWinner() {
	request := s.submit()

	const responders = 10
	decisions := [2]Decision{DecisionApprove, DecisionDeny}
	results := make([]error, responders)
	winners := make([]*ConsentRequest, responders)

	var wg sync.WaitGroup
	for i := 0; i < responders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			winners[i], results[i] = s.engine.Respond(s.ctx, s.citizen.ID, request.ID, decisions[i%2])
		}(i)
	}
	wg.Wait()

	var winCount int
	var winner *ConsentRequest
	for i, err := range results {
		if err == nil {
			winCount++
			winner = winners[i]
		} else {
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition),
				"loser must observe InvalidTransition, got %v", err)
		}
	}
	s.Equal(1, winCount)

	stored, err := s.engine.GetRequest(s.ctx, s.citizen.ID, request.ID)
	s.Require().NoError(err)
	s.Equal(winner.Status, stored.Status)
	s.Equal(ApprovalManual, stored.ApprovalMethod)
}

func (s *ConsentEngineSuite) TestTransitionsRecordedInLog() {
	request := s.submit()

	entries, err := s.transparency.CitizenLog(s.ctx, s.citizen.ID, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(string(StatusPending), entries[0].Status)
	s.Equal("Acme Lending", entries[0].OrgName)

	_, err = s.engine.Respond(s.ctx, s.citizen.ID, request.ID, DecisionDeny)
	s.Require().NoError(err)

	entries, err = s.transparency.CitizenLog(s.ctx, s.citizen.ID, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(string(StatusDenied), entries[0].Status)

	byOrg, err := s.transparency.OrgLog(s.ctx, s.org.ID, 10, 0)
	s.Require().NoError(err)
	s.Len(byOrg, 1)
}

// flakyOracle fails its first n calls, then answers.
type flakyOracle struct {
	failures int
	calls    int
	result   oracle.Result
}

func (o *flakyOracle) Evaluate(context.Context, oracle.Draft) (oracle.Result, error) {
	o.calls++
	if o.calls <= o.failures {
		return oracle.Result{}, dErrors.New(dErrors.CodeOracleUnavailable, "transient failure")
	}
	return o.result, nil
}
