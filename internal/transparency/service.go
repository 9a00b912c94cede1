package transparency

import (
	"context"
	"errors"
	"log/slog"

	id "trustgrid/pkg/domain"
	dErrors "trustgrid/pkg/domain-errors"
	"trustgrid/pkg/platform/sentinel"
	"trustgrid/pkg/requestcontext"
)

// defaultPageSize bounds log reads when the caller does not say.
const defaultPageSize = 100

// Service owns the log: the engine writes through AppendOrUpdate, citizens
// and organizations read their own slices.
type Service struct {
	store  Store
	fanout *Fanout
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithFanout mirrors every accepted upsert to the fan-out worker.
func WithFanout(f *Fanout) Option {
	return func(s *Service) {
		s.fanout = f
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendOrUpdate upserts one request's state. Idempotent: redelivering the
// same state succeeds without effect. Mutating a terminal record fails with
// InvalidTransition — the log defends its own immutability rather than
// trusting writers.
func (s *Service) AppendOrUpdate(ctx context.Context, entry Entry) error {
	if entry.RequestID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "entry requires a request id")
	}
	entry.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Upsert(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeInvalidTransition, "terminal log records are immutable")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to upsert log entry")
	}

	if s.fanout != nil {
		s.fanout.Enqueue(entry)
	}
	return nil
}

// CitizenLog returns every request ever made about the citizen, newest
// first.
func (s *Service) CitizenLog(ctx context.Context, userID id.UserID, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	entries, err := s.store.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read citizen log")
	}
	return entries, nil
}

// OrgLog returns every request the organization ever made, newest first.
func (s *Service) OrgLog(ctx context.Context, orgID id.OrgID, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	entries, err := s.store.ListByOrg(ctx, orgID, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read org log")
	}
	return entries, nil
}
