// Package store provides payment transaction persistence: an in-memory store
// for tests and single-node runs, and a PostgreSQL store for deployments.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"verigate/internal/payment"
	dErrors "verigate/pkg/domain-errors"
)

// InMemoryStore keeps transaction records in process memory.
type InMemoryStore struct {
	mu           sync.RWMutex
	transactions map[string]payment.Transaction
}

// NewInMemory constructs an empty in-memory transaction store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{transactions: make(map[string]payment.Transaction)}
}

func (s *InMemoryStore) Save(ctx context.Context, tx payment.Transaction) error {
	if tx.Reference == "" {
		return dErrors.New(dErrors.CodeBadRequest, "transaction reference is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.Reference] = tx
	return nil
}

func (s *InMemoryStore) Find(ctx context.Context, reference string) (*payment.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[reference]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "transaction not found")
	}
	copied := tx
	return &copied, nil
}

func (s *InMemoryStore) UpdateStatus(ctx context.Context, reference string, status payment.TransactionStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[reference]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "transaction not found")
	}
	tx.Status = status
	tx.UpdatedAt = at
	s.transactions[reference] = tx
	return nil
}

// ListRecent returns up to limit transactions, newest first.
func (s *InMemoryStore) ListRecent(ctx context.Context, limit int) ([]payment.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]payment.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		all = append(all, tx)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
