package credential

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	id "trustgrid/pkg/domain"
	"trustgrid/pkg/platform/sentinel"
)

// InMemoryOrgStore holds organizations behind a mutex. Copies in and out so
// callers never share aggregate pointers with the store.
type InMemoryOrgStore struct {
	mu     sync.RWMutex
	byID   map[id.OrgID]*Organization
	byName map[string]id.OrgID // lowercased name
}

func NewInMemoryOrgStore() *InMemoryOrgStore {
	return &InMemoryOrgStore{
		byID:   make(map[id.OrgID]*Organization),
		byName: make(map[string]id.OrgID),
	}
}

func (s *InMemoryOrgStore) CreateIfNameAvailable(_ context.Context, org *Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(org.Name)
	if _, taken := s.byName[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	clone := *org
	s.byID[org.ID] = &clone
	s.byName[key] = org.ID
	return nil
}

func (s *InMemoryOrgStore) FindByID(_ context.Context, orgID id.OrgID) (*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.byID[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *org
	return &clone, nil
}

func (s *InMemoryOrgStore) FindByName(_ context.Context, name string) (*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orgID, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.byID[orgID]
	return &clone, nil
}

func (s *InMemoryOrgStore) Update(_ context.Context, org *Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[org.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	// Names are immutable outside verification; keep the index in sync.
	if !strings.EqualFold(existing.Name, org.Name) {
		newKey := strings.ToLower(org.Name)
		if owner, taken := s.byName[newKey]; taken && owner != org.ID {
			return sentinel.ErrAlreadyUsed
		}
		delete(s.byName, strings.ToLower(existing.Name))
		s.byName[newKey] = org.ID
	}
	clone := *org
	s.byID[org.ID] = &clone
	return nil
}

// InMemoryKeyStore holds API keys. All reads and the revoke transition share
// one mutex, which is what makes revoke-then-authenticate linearizable.
type InMemoryKeyStore struct {
	mu       sync.RWMutex
	byID     map[id.KeyID]*APIKey
	byLookup map[string]id.KeyID
}

func NewInMemoryKeyStore() *InMemoryKeyStore {
	return &InMemoryKeyStore{
		byID:     make(map[id.KeyID]*APIKey),
		byLookup: make(map[string]id.KeyID),
	}
}

func (s *InMemoryKeyStore) Create(_ context.Context, key *APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byLookup[key.LookupHash]; exists {
		return sentinel.ErrConflict
	}
	clone := *key
	s.byID[key.ID] = &clone
	s.byLookup[key.LookupHash] = key.ID
	return nil
}

func (s *InMemoryKeyStore) FindActiveByLookupHash(_ context.Context, lookupHash string) (*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keyID, ok := s.byLookup[lookupHash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	key := s.byID[keyID]
	if !key.IsActive() {
		return nil, sentinel.ErrNotFound
	}
	clone := *key
	return &clone, nil
}

func (s *InMemoryKeyStore) FindByOrgAndID(_ context.Context, orgID id.OrgID, keyID id.KeyID) (*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.byID[keyID]
	if !ok || key.OrgID != orgID {
		return nil, sentinel.ErrNotFound
	}
	clone := *key
	return &clone, nil
}

func (s *InMemoryKeyStore) ListByOrg(_ context.Context, orgID id.OrgID) ([]*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []*APIKey
	for _, key := range s.byID {
		if key.OrgID == orgID {
			clone := *key
			keys = append(keys, &clone)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (s *InMemoryKeyStore) Revoke(_ context.Context, orgID id.OrgID, keyID id.KeyID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.byID[keyID]
	if !ok || key.OrgID != orgID {
		return false, sentinel.ErrNotFound
	}
	if !key.IsActive() {
		return true, nil
	}
	key.ApplyRevocation(now)
	return false, nil
}

// InMemoryCitizenStore holds citizens behind a mutex.
type InMemoryCitizenStore struct {
	mu         sync.RWMutex
	byID       map[id.UserID]*Citizen
	byUsername map[string]id.UserID
}

func NewInMemoryCitizenStore() *InMemoryCitizenStore {
	return &InMemoryCitizenStore{
		byID:       make(map[id.UserID]*Citizen),
		byUsername: make(map[string]id.UserID),
	}
}

func (s *InMemoryCitizenStore) CreateIfUsernameAvailable(_ context.Context, citizen *Citizen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(citizen.Username)
	if _, taken := s.byUsername[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	clone := cloneCitizen(citizen)
	s.byID[citizen.ID] = clone
	s.byUsername[key] = citizen.ID
	return nil
}

func (s *InMemoryCitizenStore) FindByID(_ context.Context, userID id.UserID) (*Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	citizen, ok := s.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCitizen(citizen), nil
}

func (s *InMemoryCitizenStore) FindByUsername(_ context.Context, username string) (*Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byUsername[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCitizen(s.byID[userID]), nil
}

func (s *InMemoryCitizenStore) Update(_ context.Context, citizen *Citizen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[citizen.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.byID[citizen.ID] = cloneCitizen(citizen)
	return nil
}

func cloneCitizen(c *Citizen) *Citizen {
	clone := *c
	if c.Profile != nil {
		clone.Profile = make(map[string]string, len(c.Profile))
		for k, v := range c.Profile {
			clone.Profile[k] = v
		}
	}
	return &clone
}

var (
	_ OrgStore     = (*InMemoryOrgStore)(nil)
	_ KeyStore     = (*InMemoryKeyStore)(nil)
	_ CitizenStore = (*InMemoryCitizenStore)(nil)
)
