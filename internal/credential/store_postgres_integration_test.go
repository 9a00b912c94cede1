//go:build integration

package credential

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "trustgrid/pkg/domain"
	"trustgrid/pkg/platform/sentinel"
	"trustgrid/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx      context.Context
	pg       *containers.PostgresContainer
	orgs     *PostgresOrgStore
	keys     *PostgresKeyStore
	citizens *PostgresCitizenStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.orgs = NewPostgresOrgStore(s.pg.DB)
	s.keys = NewPostgresKeyStore(s.pg.DB)
	s.citizens = NewPostgresCitizenStore(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
}

func (s *PostgresStoreSuite) newOrg(name string) *Organization {
	org, err := NewOrganization(id.NewOrgID(), name, "pw-hash", time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	s.Require().NoError(s.orgs.CreateIfNameAvailable(s.ctx, org))
	return org
}

func (s *PostgresStoreSuite) TestOrgRoundTrip() {
	org := s.newOrg("Acme Lending")

	found, err := s.orgs.FindByName(s.ctx, "ACME LENDING")
	s.Require().NoError(err)
	s.Equal(org.ID, found.ID)
	s.Equal(VerificationUnverified, found.VerificationStatus)

	found.VerificationStatus = VerificationVerified
	found.PolicyText = "minimal collection"
	found.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.orgs.Update(s.ctx, found))

	again, err := s.orgs.FindByID(s.ctx, org.ID)
	s.Require().NoError(err)
	s.Equal(VerificationVerified, again.VerificationStatus)
	s.Equal("minimal collection", again.PolicyText)
}

func (s *PostgresStoreSuite) TestOrgNameUniqueness() {
	s.newOrg("Acme Lending")

	dup, err := NewOrganization(id.NewOrgID(), "acme lending", "pw-hash", time.Now())
	s.Require().NoError(err)
	s.ErrorIs(s.orgs.CreateIfNameAvailable(s.ctx, dup), sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestKeyLifecycle() {
	org := s.newOrg("Acme Lending")
	now := time.Now().UTC().Truncate(time.Microsecond)

	key, err := NewAPIKey(id.NewKeyID(), org.ID, "prod", "bcrypt-hash", "lookup-1", now)
	s.Require().NoError(err)
	s.Require().NoError(s.keys.Create(s.ctx, key))

	found, err := s.keys.FindActiveByLookupHash(s.ctx, "lookup-1")
	s.Require().NoError(err)
	s.Equal(key.ID, found.ID)

	alreadyRevoked, err := s.keys.Revoke(s.ctx, org.ID, key.ID, now.Add(time.Minute))
	s.Require().NoError(err)
	s.False(alreadyRevoked)

	_, err = s.keys.FindActiveByLookupHash(s.ctx, "lookup-1")
	s.ErrorIs(err, sentinel.ErrNotFound)

	alreadyRevoked, err = s.keys.Revoke(s.ctx, org.ID, key.ID, now.Add(2*time.Minute))
	s.Require().NoError(err)
	s.True(alreadyRevoked)

	revoked, err := s.keys.FindByOrgAndID(s.ctx, org.ID, key.ID)
	s.Require().NoError(err)
	s.Equal(KeyStatusRevoked, revoked.Status)
	s.Require().NotNil(revoked.RevokedAt)
	// The second revoke must not move the timestamp.
	s.Equal(now.Add(time.Minute), revoked.RevokedAt.UTC())
}

func (s *PostgresStoreSuite) TestRevokeWrongOrg() {
	org := s.newOrg("Acme Lending")
	other := s.newOrg("Beta Corp")

	key, err := NewAPIKey(id.NewKeyID(), org.ID, "prod", "bcrypt-hash", "lookup-1", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.keys.Create(s.ctx, key))

	_, err = s.keys.Revoke(s.ctx, other.ID, key.ID, time.Now())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByOrgNewestFirst() {
	org := s.newOrg("Acme Lending")
	base := time.Now().UTC().Truncate(time.Microsecond)

	for i, name := range []string{"a", "b", "c"} {
		key, err := NewAPIKey(id.NewKeyID(), org.ID, name, "hash", "lookup-"+name, base.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(err)
		s.Require().NoError(s.keys.Create(s.ctx, key))
	}

	keys, err := s.keys.ListByOrg(s.ctx, org.ID)
	s.Require().NoError(err)
	s.Require().Len(keys, 3)
	s.Equal("c", keys[0].Name)
	s.Equal("a", keys[2].Name)
}

func (s *PostgresStoreSuite) TestCitizenProfileRoundTrip() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	citizen, err := NewCitizen(id.NewUserID(), "amina", "pw-hash", now)
	s.Require().NoError(err)
	citizen.Profile = map[string]string{"email": "amina@example.com"}
	s.Require().NoError(s.citizens.CreateIfUsernameAvailable(s.ctx, citizen))

	found, err := s.citizens.FindByUsername(s.ctx, "AMINA")
	s.Require().NoError(err)
	s.True(found.ManualApprovalRequired)
	s.Equal("amina@example.com", found.Profile["email"])

	found.ManualApprovalRequired = false
	found.Profile["phone_number"] = "+2348012345678"
	found.UpdatedAt = now.Add(time.Minute)
	s.Require().NoError(s.citizens.Update(s.ctx, found))

	again, err := s.citizens.FindByID(s.ctx, citizen.ID)
	s.Require().NoError(err)
	s.False(again.ManualApprovalRequired)
	s.Equal("+2348012345678", again.Profile["phone_number"])
}
