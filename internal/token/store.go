package token

import (
	"context"
	"sync"

	dErrors "verigate/pkg/domain-errors"
)

// Store persists one bearer token per session. A single slot, last writer
// wins: concurrent logins under the same session ID are not coordinated
// beyond that.
type Store interface {
	Save(ctx context.Context, sessionID, token string) error
	Load(ctx context.Context, sessionID string) (string, error)
	// Clear removes the slot. Clearing an absent slot is not an error.
	Clear(ctx context.Context, sessionID string) error
}

// InMemoryStore is the default Store.
type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[string]string)}
}

func (s *InMemoryStore) Save(ctx context.Context, sessionID, token string) error {
	if sessionID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = token
	return nil
}

func (s *InMemoryStore) Load(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[sessionID]
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "no token for session")
	}
	return t, nil
}

func (s *InMemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
	return nil
}
