package transparency

import (
	"context"
	"sort"
	"sync"

	id "trustgrid/pkg/domain"
	"trustgrid/pkg/platform/sentinel"
)

// InMemoryStore keeps the log behind a mutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.RequestID]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.RequestID]Entry)}
}

func (s *InMemoryStore) Upsert(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.entries[entry.RequestID]
	if ok && existing.IsTerminal() {
		if existing.same(entry) {
			return nil
		}
		return sentinel.ErrInvalidState
	}
	s.entries[entry.RequestID] = entry
	return nil
}

func (s *InMemoryStore) FindByRequestID(_ context.Context, requestID id.RequestID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &entry, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID, limit, offset int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page(func(e Entry) bool { return e.UserID == userID }, limit, offset), nil
}

func (s *InMemoryStore) ListByOrg(_ context.Context, orgID id.OrgID, limit, offset int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page(func(e Entry) bool { return e.OrgID == orgID }, limit, offset), nil
}

func (s *InMemoryStore) page(match func(Entry) bool, limit, offset int) []Entry {
	var all []Entry
	for _, entry := range s.entries {
		if match(entry) {
			all = append(all, entry)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].RequestedAt.After(all[j].RequestedAt)
	})
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

var _ Store = (*InMemoryStore)(nil)
