//go:build integration

package consent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "trustgrid/pkg/domain"
	dErrors "trustgrid/pkg/domain-errors"
	"trustgrid/pkg/platform/sentinel"
	"trustgrid/pkg/testutil/containers"
)

type ConsentPostgresSuite struct {
	suite.Suite
	ctx   context.Context
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestConsentPostgresSuite(t *testing.T) {
	suite.Run(t, new(ConsentPostgresSuite))
}

func (s *ConsentPostgresSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgresStore(s.pg.DB)
}

func (s *ConsentPostgresSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
}

func (s *ConsentPostgresSuite) newPending(userID id.UserID) *ConsentRequest {
	now := time.Now().UTC().Truncate(time.Microsecond)
	request, err := NewConsentRequest(id.NewRequestID(), id.NewOrgID(), userID, id.DataTypePhoneNumber, "loan assessment", now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, request))
	return request
}

func (s *ConsentPostgresSuite) TestRoundTrip() {
	request := s.newPending(id.NewUserID())

	found, err := s.store.FindByID(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(StatusPending, found.Status)
	s.Equal(request.Purpose, found.Purpose)
	s.Nil(found.RespondedAt)
}

func (s *ConsentPostgresSuite) TestResolveAppliesDecisionOnce() {
	request := s.newPending(id.NewUserID())
	decideTime := time.Now().UTC().Truncate(time.Microsecond)

	decided, err := s.store.Resolve(s.ctx, request.ID, func(r *ConsentRequest) error {
		return r.ApplyDecision(DecisionApprove, decideTime)
	})
	s.Require().NoError(err)
	s.Equal(StatusApproved, decided.Status)
	s.Equal(ApprovalManual, decided.ApprovalMethod)

	// A fresh read sees the terminal state, so the transition itself refuses.
	_, err = s.store.Resolve(s.ctx, request.ID, func(r *ConsentRequest) error {
		return r.ApplyDecision(DecisionDeny, decideTime)
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

// Losers of the single-row CAS observe ErrInvalidState, never a partial
// write.
func (s *ConsentPostgresSuite) TestResolveConcurrentOneWinner() {
	request := s.newPending(id.NewUserID())
	decideTime := time.Now().UTC().Truncate(time.Microsecond)

	const responders = 8
	errs := make([]error, responders)
	var wg sync.WaitGroup
	for i := 0; i < responders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.store.Resolve(s.ctx, request.ID, func(r *ConsentRequest) error {
				return r.ApplyDecision(DecisionDeny, decideTime)
			})
		}(i)
	}
	wg.Wait()

	// Losers either lost the row-level CAS (sentinel) or read the winner's
	// terminal state before mutating (domain error).
	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			s.True(errors.Is(err, sentinel.ErrInvalidState) ||
				dErrors.HasCode(err, dErrors.CodeInvalidTransition), "unexpected loser error: %v", err)
		}
	}
	s.Equal(1, wins)

	stored, err := s.store.FindByID(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(StatusDenied, stored.Status)
}

func (s *ConsentPostgresSuite) TestPendingForUserNewestFirst() {
	userID := id.NewUserID()
	first := s.newPending(userID)
	time.Sleep(2 * time.Millisecond)
	second := s.newPending(userID)

	// A decided request drops out of the pending view.
	decided := s.newPending(userID)
	_, err := s.store.Resolve(s.ctx, decided.ID, func(r *ConsentRequest) error {
		return r.ApplyDecision(DecisionApprove, time.Now())
	})
	s.Require().NoError(err)

	pending, err := s.store.PendingForUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(second.ID, pending[0].ID)
	s.Equal(first.ID, pending[1].ID)
}
