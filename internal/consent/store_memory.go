package consent

import (
	"context"
	"sort"
	"sync"

	id "trustgrid/pkg/domain"
	"trustgrid/pkg/platform/sentinel"
)

// InMemoryStore keeps requests behind one mutex. Resolve runs its mutate
// callback while holding the write lock, which serializes concurrent
// decisions per request.
type InMemoryStore struct {
	mu   sync.RWMutex
	byID map[id.RequestID]*ConsentRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.RequestID]*ConsentRequest)}
}

func (s *InMemoryStore) Create(_ context.Context, request *ConsentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[request.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *request
	s.byID[request.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, requestID id.RequestID) (*ConsentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.byID[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *request
	return &clone, nil
}

func (s *InMemoryStore) Resolve(_ context.Context, requestID id.RequestID, mutate func(*ConsentRequest) error) (*ConsentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.byID[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	// Mutate a copy so a failed callback leaves the stored state untouched.
	clone := *request
	if err := mutate(&clone); err != nil {
		return nil, err
	}
	stored := clone
	s.byID[requestID] = &stored
	result := clone
	return &result, nil
}

func (s *InMemoryStore) PendingForUser(_ context.Context, userID id.UserID) ([]*ConsentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []*ConsentRequest
	for _, request := range s.byID {
		if request.UserID == userID && request.Status == StatusPending {
			clone := *request
			pending = append(pending, &clone)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].RequestedAt.After(pending[j].RequestedAt)
	})
	return pending, nil
}

var _ Store = (*InMemoryStore)(nil)
