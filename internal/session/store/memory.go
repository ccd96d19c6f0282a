// Package store provides session registry implementations: in-memory for
// single-instance deployments and Redis for shared state across instances.
package store

import (
	"context"
	"sync"

	"verigate/internal/session"
	dErrors "verigate/pkg/domain-errors"
)

// InMemoryStore is the default registry. Execute holds the store lock across
// validate-and-mutate so a check tick and an activity touch for the same
// session serialize.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*session.Session)}
}

func (s *InMemoryStore) Save(ctx context.Context, sess *session.Session) error {
	if sess.ID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sess
	s.sessions[sess.ID] = &copied
	return nil
}

func (s *InMemoryStore) Find(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	copied := *sess
	return &copied, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *InMemoryStore) IDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

// Execute atomically mutates one session. The mutation is applied to a copy
// and only committed when mutate returns nil.
func (s *InMemoryStore) Execute(ctx context.Context, id string, mutate func(*session.Session) error) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	working := *sess
	if err := mutate(&working); err != nil {
		return nil, err
	}
	s.sessions[id] = &working
	result := working
	return &result, nil
}
