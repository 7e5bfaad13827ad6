package transaction

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "pactum/pkg/domain"
	"pactum/pkg/platform/audit"
	auditpg "pactum/pkg/platform/audit/store/postgres"
)

func seedTransaction(t *testing.T, store *InMemoryStore, status SubmissionStatus) id.TransactionID {
	t.Helper()
	txnID := id.TransactionID(uuid.New())
	store.Seed(&Transaction{
		ID:            txnID,
		ClientID:      id.UserID(uuid.New()),
		CompanyUserID: id.UserID(uuid.New()),
		ClientKind:    ClientIndividual,
		Status:        status,
	})
	return txnID
}

func Test_StatusWorker_AdvancesOnMilestones(t *testing.T) {
	tests := []struct {
		name   string
		action audit.AuditEvent
		want   SubmissionStatus
	}{
		{"nda fully signed moves to reviewing", audit.EventNdaFullySigned, StatusReviewing},
		{"contract archived completes", audit.EventContractArchived, StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewInMemoryStore()
			txnID := seedTransaction(t, store, StatusSigning)

			worker := NewStatusWorker(store, nil, slog.New(slog.DiscardHandler))
			worker.apply(context.Background(), audit.Event{
				Action:        string(tt.action),
				TransactionID: txnID,
				Timestamp:     time.Now(),
			})

			txn, err := store.Get(context.Background(), txnID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, txn.Status)
		})
	}
}

func Test_StatusWorker_IgnoresOtherEvents(t *testing.T) {
	store := NewInMemoryStore()
	txnID := seedTransaction(t, store, StatusSigning)

	worker := NewStatusWorker(store, nil, slog.New(slog.DiscardHandler))
	worker.apply(context.Background(), audit.Event{
		Action:        string(audit.EventDraftSaved),
		TransactionID: txnID,
	})

	txn, err := store.Get(context.Background(), txnID)
	require.NoError(t, err)
	assert.Equal(t, StatusSigning, txn.Status)
}

func Test_StatusWorker_RunDrainsInbox(t *testing.T) {
	store := NewInMemoryStore()
	txnID := seedTransaction(t, store, StatusSigning)

	inbox := make(chan audit.Event, 1)
	worker := NewStatusWorker(store, inbox, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	inbox <- audit.Event{Action: string(audit.EventContractArchived), TransactionID: txnID}

	assert.Eventually(t, func() bool {
		txn, err := store.Get(context.Background(), txnID)
		return err == nil && txn.Status == StatusCompleted
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func Test_StatusWorker_HandleOutbox_AdvancesDurably(t *testing.T) {
	tests := []struct {
		name      string
		eventType audit.AuditEvent
		want      SubmissionStatus
	}{
		{"nda fully signed moves to reviewing", audit.EventNdaFullySigned, StatusReviewing},
		{"contract archived completes", audit.EventContractArchived, StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewInMemoryStore()
			txnID := seedTransaction(t, store, StatusSigning)

			worker := NewStatusWorker(store, nil, slog.New(slog.DiscardHandler))
			require.NoError(t, worker.HandleOutbox(context.Background(), auditpg.PendingEntry{
				ID:            uuid.New(),
				EventType:     string(tt.eventType),
				TransactionID: txnID,
			}))

			txn, err := store.Get(context.Background(), txnID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, txn.Status)
		})
	}
}

func Test_StatusWorker_HandleOutbox_IgnoresOtherEvents(t *testing.T) {
	store := NewInMemoryStore()
	txnID := seedTransaction(t, store, StatusSigning)

	worker := NewStatusWorker(store, nil, slog.New(slog.DiscardHandler))
	require.NoError(t, worker.HandleOutbox(context.Background(), auditpg.PendingEntry{
		ID:            uuid.New(),
		EventType:     string(audit.EventDraftSaved),
		TransactionID: txnID,
	}))

	txn, err := store.Get(context.Background(), txnID)
	require.NoError(t, err)
	assert.Equal(t, StatusSigning, txn.Status)
}

func Test_StatusWorker_HandleOutbox_DropsUnknownTransaction(t *testing.T) {
	worker := NewStatusWorker(NewInMemoryStore(), nil, slog.New(slog.DiscardHandler))

	// A transaction that will never exist must not wedge the outbox.
	err := worker.HandleOutbox(context.Background(), auditpg.PendingEntry{
		ID:            uuid.New(),
		EventType:     string(audit.EventContractArchived),
		TransactionID: id.TransactionID(uuid.New()),
	})
	assert.NoError(t, err)
}

type failingStatusStore struct {
	Store
}

func (failingStatusStore) UpdateStatus(context.Context, id.TransactionID, SubmissionStatus) error {
	return errors.New("connection reset")
}

func Test_StatusWorker_HandleOutbox_SurfacesStoreErrors(t *testing.T) {
	worker := NewStatusWorker(failingStatusStore{}, nil, slog.New(slog.DiscardHandler))

	// A transient store failure keeps the row pending for retry.
	err := worker.HandleOutbox(context.Background(), auditpg.PendingEntry{
		ID:            uuid.New(),
		EventType:     string(audit.EventContractArchived),
		TransactionID: id.TransactionID(uuid.New()),
	})
	assert.Error(t, err)
}
