package credential

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "trustgrid/pkg/domain"
	"trustgrid/pkg/platform/sentinel"
)

func newStoredKey(t *testing.T, orgID id.OrgID, name string, createdAt time.Time) *APIKey {
	t.Helper()
	key, err := NewAPIKey(id.NewKeyID(), orgID, name, "bcrypt-hash", "lookup-"+name, createdAt)
	require.NoError(t, err)
	return key
}

func TestInMemoryOrgStoreNameUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryOrgStore()
	now := time.Now()

	org, err := NewOrganization(id.NewOrgID(), "Acme", "hash", now)
	require.NoError(t, err)
	require.NoError(t, store.CreateIfNameAvailable(ctx, org))

	dup, err := NewOrganization(id.NewOrgID(), "ACME", "hash", now)
	require.NoError(t, err)
	assert.ErrorIs(t, store.CreateIfNameAvailable(ctx, dup), sentinel.ErrAlreadyUsed)

	found, err := store.FindByName(ctx, "  acme ")
	require.NoError(t, err)
	assert.Equal(t, org.ID, found.ID)
}

func TestInMemoryOrgStoreCopiesAggregates(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryOrgStore()

	org, err := NewOrganization(id.NewOrgID(), "Acme", "hash", time.Now())
	require.NoError(t, err)
	require.NoError(t, store.CreateIfNameAvailable(ctx, org))

	// Mutating the fetched copy must not change stored state.
	fetched, err := store.FindByID(ctx, org.ID)
	require.NoError(t, err)
	fetched.VerificationStatus = VerificationVerified

	again, err := store.FindByID(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, VerificationUnverified, again.VerificationStatus)
}

func TestInMemoryKeyStoreHidesRevokedKeys(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryKeyStore()
	orgID := id.NewOrgID()
	key := newStoredKey(t, orgID, "prod", time.Now())
	require.NoError(t, store.Create(ctx, key))

	found, err := store.FindActiveByLookupHash(ctx, key.LookupHash)
	require.NoError(t, err)
	assert.Equal(t, key.ID, found.ID)

	alreadyRevoked, err := store.Revoke(ctx, orgID, key.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, alreadyRevoked)

	_, err = store.FindActiveByLookupHash(ctx, key.LookupHash)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	alreadyRevoked, err = store.Revoke(ctx, orgID, key.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, alreadyRevoked)
}

func TestInMemoryKeyStoreRevokeWrongOrg(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryKeyStore()
	key := newStoredKey(t, id.NewOrgID(), "prod", time.Now())
	require.NoError(t, store.Create(ctx, key))

	_, err := store.Revoke(ctx, id.NewOrgID(), key.ID, time.Now())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryKeyStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryKeyStore()
	orgID := id.NewOrgID()
	base := time.Now()

	oldest := newStoredKey(t, orgID, "a", base.Add(-2*time.Hour))
	middle := newStoredKey(t, orgID, "b", base.Add(-time.Hour))
	newest := newStoredKey(t, orgID, "c", base)
	for _, k := range []*APIKey{middle, oldest, newest} {
		require.NoError(t, store.Create(ctx, k))
	}

	keys, err := store.ListByOrg(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.Equal(t, newest.ID, keys[0].ID)
	assert.Equal(t, middle.ID, keys[1].ID)
	assert.Equal(t, oldest.ID, keys[2].ID)
}

// Once Revoke returns, no concurrent lookup may observe the key active. The
// store serializes both under one mutex; this hammers the interleaving.
func TestInMemoryKeyStoreRevokeIsLinearizable(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryKeyStore()
	orgID := id.NewOrgID()
	key := newStoredKey(t, orgID, "prod", time.Now())
	require.NoError(t, store.Create(ctx, key))

	var revoked sync.WaitGroup
	revoked.Add(1)
	go func() {
		defer revoked.Done()
		_, err := store.Revoke(ctx, orgID, key.ID, time.Now())
		assert.NoError(t, err)
	}()

	var lookups sync.WaitGroup
	for i := 0; i < 16; i++ {
		lookups.Add(1)
		go func() {
			defer lookups.Done()
			for j := 0; j < 100; j++ {
				if _, err := store.FindActiveByLookupHash(ctx, key.LookupHash); err != nil {
					assert.True(t, errors.Is(err, sentinel.ErrNotFound))
					return
				}
			}
		}()
	}
	lookups.Wait()
	revoked.Wait()

	_, err := store.FindActiveByLookupHash(ctx, key.LookupHash)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryCitizenStoreProfileIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryCitizenStore()

	citizen, err := NewCitizen(id.NewUserID(), "amina", "hash", time.Now())
	require.NoError(t, err)
	citizen.Profile = map[string]string{"email": "amina@example.com"}
	require.NoError(t, store.CreateIfUsernameAvailable(ctx, citizen))

	fetched, err := store.FindByID(ctx, citizen.ID)
	require.NoError(t, err)
	fetched.Profile["email"] = "evil@example.com"

	again, err := store.FindByID(ctx, citizen.ID)
	require.NoError(t, err)
	assert.Equal(t, "amina@example.com", again.Profile["email"])
}

func TestInMemoryCitizenStoreUsernameUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryCitizenStore()

	citizen, err := NewCitizen(id.NewUserID(), "amina", "hash", time.Now())
	require.NoError(t, err)
	require.NoError(t, store.CreateIfUsernameAvailable(ctx, citizen))

	dup, err := NewCitizen(id.NewUserID(), "AMINA", "hash", time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, store.CreateIfUsernameAvailable(ctx, dup), sentinel.ErrAlreadyUsed)
}
