package policy

import (
	"context"
	"sort"
	"sync"

	id "pactum/pkg/domain"
	"pactum/pkg/platform/sentinel"
)

// InMemoryStore holds policies for tests and local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	policies map[id.PolicyID]*Policy
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{policies: make(map[id.PolicyID]*Policy)}
}

func (s *InMemoryStore) Save(_ context.Context, p *Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *p
	s.policies[p.ID] = &copied
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, policyID id.PolicyID) (*Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[policyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *InMemoryStore) ListByCompany(_ context.Context, companyUserID id.UserID) ([]*Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Policy
	for _, p := range s.policies {
		if p.CompanyUserID == companyUserID {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, policyID id.PolicyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[policyID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.policies, policyID)
	return nil
}
