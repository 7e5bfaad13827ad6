package contract

import (
	"context"
	"sort"
	"sync"

	id "pactum/pkg/domain"
	"pactum/pkg/platform/sentinel"
)

// InMemoryDraftStore is the test double for DraftStore with the same
// versioning behavior as the postgres store.
type InMemoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[id.TransactionID]Draft
}

func NewInMemoryDraftStore() *InMemoryDraftStore {
	return &InMemoryDraftStore{drafts: make(map[id.TransactionID]Draft)}
}

func (s *InMemoryDraftStore) Get(_ context.Context, txnID id.TransactionID) (*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[txnID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyDraft(d), nil
}

func (s *InMemoryDraftStore) Save(_ context.Context, draft *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.drafts[draft.TransactionID]
	switch {
	case !exists && draft.Version != 0:
		return sentinel.ErrConflict
	case exists && stored.Version != draft.Version:
		return sentinel.ErrConflict
	}
	draft.Version++
	s.drafts[draft.TransactionID] = *copyDraft(*draft)
	return nil
}

func (s *InMemoryDraftStore) Delete(_ context.Context, txnID id.TransactionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[txnID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.drafts, txnID)
	return nil
}

func copyDraft(d Draft) *Draft {
	out := d
	out.Results = append([]Violation(nil), d.Results...)
	if d.ClientSignedAt != nil {
		t := *d.ClientSignedAt
		out.ClientSignedAt = &t
	}
	if d.CompanySignedAt != nil {
		t := *d.CompanySignedAt
		out.CompanySignedAt = &t
	}
	return &out
}

// InMemoryNdaDraftStore is the test double for NdaDraftStore.
type InMemoryNdaDraftStore struct {
	mu     sync.RWMutex
	drafts map[id.TransactionID]NdaDraft
}

func NewInMemoryNdaDraftStore() *InMemoryNdaDraftStore {
	return &InMemoryNdaDraftStore{drafts: make(map[id.TransactionID]NdaDraft)}
}

func (s *InMemoryNdaDraftStore) Get(_ context.Context, txnID id.TransactionID) (*NdaDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[txnID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyNdaDraft(d), nil
}

func (s *InMemoryNdaDraftStore) Save(_ context.Context, draft *NdaDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.drafts[draft.TransactionID]
	switch {
	case !exists && draft.Version != 0:
		return sentinel.ErrConflict
	case exists && stored.Version != draft.Version:
		return sentinel.ErrConflict
	}
	draft.Version++
	s.drafts[draft.TransactionID] = *copyNdaDraft(*draft)
	return nil
}

func (s *InMemoryNdaDraftStore) Delete(_ context.Context, txnID id.TransactionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[txnID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.drafts, txnID)
	return nil
}

func copyNdaDraft(d NdaDraft) *NdaDraft {
	out := d
	if d.ClientSignedAt != nil {
		t := *d.ClientSignedAt
		out.ClientSignedAt = &t
	}
	if d.CompanySignedAt != nil {
		t := *d.CompanySignedAt
		out.CompanySignedAt = &t
	}
	return &out
}

// InMemoryRecordStore is the test double for RecordStore.
type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records map[id.RecordID]Record
}

func NewInMemoryRecordStore() *InMemoryRecordStore {
	return &InMemoryRecordStore{records: make(map[id.RecordID]Record)}
}

func (s *InMemoryRecordStore) Append(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return sentinel.ErrConflict
	}
	stored := *record
	stored.Document = append([]byte(nil), record.Document...)
	s.records[record.ID] = stored
	return nil
}

func (s *InMemoryRecordStore) Get(_ context.Context, recordID id.RecordID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := r
	out.Document = append([]byte(nil), r.Document...)
	return &out, nil
}

func (s *InMemoryRecordStore) ListByCompany(_ context.Context, companyUserID id.UserID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if r.CompanyUserID == companyUserID {
			out = append(out, metadataOnly(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SignedAt.After(out[j].SignedAt) })
	return out, nil
}

func (s *InMemoryRecordStore) ListByTransaction(_ context.Context, txnID id.TransactionID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if r.TransactionID == txnID {
			out = append(out, metadataOnly(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SignedAt.After(out[j].SignedAt) })
	return out, nil
}

func metadataOnly(r Record) Record {
	r.Document = nil
	return r
}

// InMemoryChatStore is the test double for ChatStore.
type InMemoryChatStore struct {
	mu       sync.RWMutex
	messages map[id.TransactionID][]ChatMessage
}

func NewInMemoryChatStore() *InMemoryChatStore {
	return &InMemoryChatStore{messages: make(map[id.TransactionID][]ChatMessage)}
}

func (s *InMemoryChatStore) Append(_ context.Context, msg *ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.TransactionID] = append(s.messages[msg.TransactionID], *msg)
	return nil
}

func (s *InMemoryChatStore) ListByTransaction(_ context.Context, txnID id.TransactionID) ([]ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[txnID]
	out := make([]ChatMessage, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
