package transaction

import (
	"context"
	"sort"
	"sync"

	id "pactum/pkg/domain"
	"pactum/pkg/platform/sentinel"
)

// InMemoryStore holds transactions for tests and local development.
type InMemoryStore struct {
	mu           sync.RWMutex
	transactions map[id.TransactionID]*Transaction
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{transactions: make(map[id.TransactionID]*Transaction)}
}

// Seed inserts a transaction directly. Test helper.
func (s *InMemoryStore) Seed(txn *Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *txn
	s.transactions[txn.ID] = &copied
}

func (s *InMemoryStore) Get(_ context.Context, transactionID id.TransactionID) (*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.transactions[transactionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *txn
	return &copied, nil
}

func (s *InMemoryStore) ListByClient(_ context.Context, clientID id.UserID) ([]*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Transaction
	for _, txn := range s.transactions {
		if txn.ClientID == clientID {
			copied := *txn
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, transactionID id.TransactionID, status SubmissionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[transactionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	txn.Status = status
	return nil
}
