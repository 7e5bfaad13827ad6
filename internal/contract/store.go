package contract

import (
	"context"

	id "pactum/pkg/domain"
)

// DraftStore persists main-contract drafts, one per transaction.
//
// Save is optimistic: a draft loaded at version N is written back only if the
// stored row is still at version N (new drafts carry version 0 and insert).
// A lost race returns sentinel.ErrConflict; absence returns
// sentinel.ErrNotFound.
type DraftStore interface {
	Get(ctx context.Context, txnID id.TransactionID) (*Draft, error)
	Save(ctx context.Context, draft *Draft) error
	Delete(ctx context.Context, txnID id.TransactionID) error
}

// NdaDraftStore persists NDA signing drafts with the same versioning rules
// as DraftStore.
type NdaDraftStore interface {
	Get(ctx context.Context, txnID id.TransactionID) (*NdaDraft, error)
	Save(ctx context.Context, draft *NdaDraft) error
	Delete(ctx context.Context, txnID id.TransactionID) error
}

// RecordStore is the append-only archive of signed contracts. List queries
// return metadata only (Document nil); Get loads the full PDF bytes.
type RecordStore interface {
	Append(ctx context.Context, record *Record) error
	Get(ctx context.Context, recordID id.RecordID) (*Record, error)
	ListByCompany(ctx context.Context, companyUserID id.UserID) ([]Record, error)
	ListByTransaction(ctx context.Context, txnID id.TransactionID) ([]Record, error)
}

// ChatStore is the append-only chat log, ordered oldest first.
type ChatStore interface {
	Append(ctx context.Context, msg *ChatMessage) error
	ListByTransaction(ctx context.Context, txnID id.TransactionID) ([]ChatMessage, error)
}
