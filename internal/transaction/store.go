package transaction

import (
	"context"

	id "pactum/pkg/domain"
)

// Store reads the transaction read-model. Get returns
// sentinel.ErrNotFound when no transaction exists for the ID.
type Store interface {
	Get(ctx context.Context, transactionID id.TransactionID) (*Transaction, error)
	// ListByClient returns the client's transactions, newest first.
	ListByClient(ctx context.Context, clientID id.UserID) ([]*Transaction, error)
	// UpdateStatus advances the coarse submission status.
	UpdateStatus(ctx context.Context, transactionID id.TransactionID, status SubmissionStatus) error
}
