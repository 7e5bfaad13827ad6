package policy

import (
	"context"

	id "pactum/pkg/domain"
)

// Store persists policies. Get returns sentinel.ErrNotFound for unknown IDs.
type Store interface {
	Save(ctx context.Context, p *Policy) error
	Get(ctx context.Context, policyID id.PolicyID) (*Policy, error)
	// ListByCompany returns the company's policies, newest first.
	ListByCompany(ctx context.Context, companyUserID id.UserID) ([]*Policy, error)
	Delete(ctx context.Context, policyID id.PolicyID) error
}
