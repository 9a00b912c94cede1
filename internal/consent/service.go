package consent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"trustgrid/internal/credential"
	"trustgrid/internal/oracle"
	"trustgrid/internal/platform/metrics"
	"trustgrid/internal/transparency"
	id "trustgrid/pkg/domain"
	dErrors "trustgrid/pkg/domain-errors"
	"trustgrid/pkg/platform/sentinel"
	"trustgrid/pkg/requestcontext"
)

// defaultOracleTimeout bounds a single oracle evaluation when no explicit
// timeout is configured.
const defaultOracleTimeout = 5 * time.Second

// Credentials is the slice of the credential service the engine needs.
type Credentials interface {
	GetOrganization(ctx context.Context, orgID id.OrgID) (*credential.Organization, error)
	GetCitizen(ctx context.Context, userID id.UserID) (*credential.Citizen, error)
}

// Recorder receives every request transition for the transparency log.
type Recorder interface {
	AppendOrUpdate(ctx context.Context, entry transparency.Entry) error
}

// Service is the consent engine. It owns transition legality; stores only
// provide atomicity.
type Service struct {
	store         Store
	credentials   Credentials
	oracle        oracle.Oracle
	recorder      Recorder
	oracleTimeout time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

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

func WithOracleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.oracleTimeout = d
		}
	}
}

// New constructs the engine.
func New(store Store, credentials Credentials, policyOracle oracle.Oracle, recorder Recorder, opts ...Option) *Service {
	s := &Service{
		store:         store,
		credentials:   credentials,
		oracle:        policyOracle,
		recorder:      recorder,
		oracleTimeout: defaultOracleTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates a request and runs the initial-state algorithm: gate checks,
// one oracle evaluation, then the precedence rule between the citizen's
// manual_approval_required flag and the oracle's verdict. Each call creates a
// new request id; clients retrying a submit deduplicate on their side.
func (s *Service) Submit(ctx context.Context, orgID id.OrgID, userID id.UserID, rawDataType, purpose string) (*ConsentRequest, error) {
	org, err := s.credentials.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.IsVerified() {
		return nil, dErrors.New(dErrors.CodePermissionDenied, "organization is not verified")
	}
	if org.PolicyText == "" {
		return nil, dErrors.New(dErrors.CodePermissionDenied, "organization has not published a data policy")
	}

	citizen, err := s.credentials.GetCitizen(ctx, userID)
	if err != nil {
		return nil, err
	}

	dataType, err := id.ParseDataType(rawDataType)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	request, err := NewConsentRequest(id.NewRequestID(), orgID, userID, dataType, purpose, now)
	if err != nil {
		return nil, err
	}

	verdict := s.evaluate(ctx, oracle.Draft{
		OrgID:      orgID,
		UserID:     userID,
		DataType:   dataType,
		Purpose:    request.Purpose,
		Category:   org.Category,
		PolicyText: org.PolicyText,
	})
	request.OracleRationale = verdict.Rationale

	// Precedence: a citizen who asked to review everything sees everything,
	// oracle denials included. Auto-resolution needs the flag off AND an
	// affirmative verdict; refer always parks the request as pending.
	if !citizen.ManualApprovalRequired {
		switch verdict.Decision {
		case oracle.DecisionApprove:
			err = request.ApplyAutoResolution(true, now)
		case oracle.DecisionDeny:
			err = request.ApplyAutoResolution(false, now)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := s.store.Create(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store consent request")
	}

	s.record(ctx, request, org.Name)
	s.metrics.IncRequestSubmitted(string(request.Status))
	s.log(ctx, "consent request submitted",
		"request_id", request.ID, "org_id", orgID, "user_id", userID,
		"data_type", dataType, "status", request.Status)
	return request, nil
}

// evaluate runs the oracle with a deadline and one retry on transport
// failure. Any failure collapses to refer: absence of a verdict never
// auto-approves, and OracleUnavailable never escapes the engine.
func (s *Service) evaluate(ctx context.Context, draft oracle.Draft) oracle.Result {
	result, err := s.evaluateOnce(ctx, draft)
	if err != nil {
		result, err = s.evaluateOnce(ctx, draft)
	}
	if err != nil {
		s.metrics.IncOracleFailure()
		s.log(ctx, "policy oracle unavailable, deferring to citizen", "error", err.Error())
		return oracle.Result{
			Decision:  oracle.DecisionRefer,
			Rationale: "policy oracle unavailable; deferred to the citizen",
		}
	}
	return result
}

func (s *Service) evaluateOnce(ctx context.Context, draft oracle.Draft) (oracle.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.oracleTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.oracle.Evaluate(ctx, draft)
	s.metrics.ObserveOracleLatency(time.Since(start).Seconds())
	return result, err
}

// Respond applies a citizen's decision to a pending request. The store
// serializes concurrent responders; exactly one wins and every loser gets
// InvalidTransition.
func (s *Service) Respond(ctx context.Context, userID id.UserID, requestID id.RequestID, decision Decision) (*ConsentRequest, error) {
	now := requestcontext.Now(ctx)

	request, err := s.store.Resolve(ctx, requestID, func(r *ConsentRequest) error {
		if r.UserID != userID {
			return dErrors.New(dErrors.CodePermissionDenied, "request belongs to another citizen")
		}
		return r.ApplyDecision(decision, now)
	})
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "consent request not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "request has already been decided")
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve consent request")
	}

	orgName := ""
	if org, err := s.credentials.GetOrganization(ctx, request.OrgID); err == nil {
		orgName = org.Name
	}
	s.record(ctx, request, orgName)
	s.metrics.IncCitizenDecision(string(decision))
	s.log(ctx, "consent request decided",
		"request_id", request.ID, "user_id", userID, "status", request.Status)
	return request, nil
}

// PendingForUser returns the citizen's open requests, newest first. This is
// the feed the notification poller reads.
func (s *Service) PendingForUser(ctx context.Context, userID id.UserID) ([]*ConsentRequest, error) {
	pending, err := s.store.PendingForUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending requests")
	}
	return pending, nil
}

// GetRequest loads one request scoped to the owning citizen.
func (s *Service) GetRequest(ctx context.Context, userID id.UserID, requestID id.RequestID) (*ConsentRequest, error) {
	request, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "consent request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load consent request")
	}
	if request.UserID != userID {
		return nil, dErrors.New(dErrors.CodePermissionDenied, "request belongs to another citizen")
	}
	return request, nil
}

// record forwards a transition to the transparency log. Logging the
// transition must never fail the transition itself.
func (s *Service) record(ctx context.Context, request *ConsentRequest, orgName string) {
	if s.recorder == nil {
		return
	}
	entry := transparency.Entry{
		RequestID:       request.ID,
		OrgID:           request.OrgID,
		OrgName:         orgName,
		UserID:          request.UserID,
		DataType:        string(request.DataType),
		Purpose:         request.Purpose,
		Status:          string(request.Status),
		ApprovalMethod:  string(request.ApprovalMethod),
		OracleRationale: request.OracleRationale,
		RequestedAt:     request.RequestedAt,
		RespondedAt:     request.RespondedAt,
	}
	if err := s.recorder.AppendOrUpdate(ctx, entry); err != nil {
		s.log(ctx, "failed to record transparency entry",
			"request_id", request.ID, "error", err.Error())
	}
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
