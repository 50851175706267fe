package memory

import (
	"context"
	"sync"
	"time"
)

// RevocationStore is an in-memory implementation of app.RevocationStore.
// Entries are purged lazily once their tokens would have expired.
type RevocationStore struct {
	mu      sync.Mutex
	clock   func() time.Time
	revoked map[string]time.Time
}

func NewRevocationStore() *RevocationStore {
	return &RevocationStore{
		clock:   time.Now,
		revoked: make(map[string]time.Time),
	}
}

func (s *RevocationStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	s.revoked[tokenID] = until
	return nil
}

func (s *RevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !until.IsZero() && !until.After(s.clock()) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func (s *RevocationStore) purgeLocked() {
	now := s.clock()
	for id, until := range s.revoked {
		if !until.IsZero() && !until.After(now) {
			delete(s.revoked, id)
		}
	}
}
