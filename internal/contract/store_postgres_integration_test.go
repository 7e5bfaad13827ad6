//go:build integration

package contract_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pactum/internal/contract"
	id "pactum/pkg/domain"
	"pactum/pkg/platform/sentinel"
	"pactum/pkg/testutil/containers"
)

func seedTransaction(t *testing.T, pg *containers.PostgresContainer) id.TransactionID {
	t.Helper()
	txnID := uuid.New()
	now := time.Now().UTC()
	_, err := pg.DB.Exec(`
		INSERT INTO transactions
			(id, client_id, company_user_id, client_kind, status, project_name, created_at, updated_at)
		VALUES ($1, $2, $3, 'individual', 'signing', 'Inventory Platform', $4, $4)`,
		txnID, uuid.New(), uuid.New(), now)
	require.NoError(t, err)
	return id.TransactionID(txnID)
}

func TestPostgresDraftStoreRoundTrip(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../migrations")
	ctx := context.Background()
	store := contract.NewPostgresDraftStore(pg.DB)
	txnID := seedTransaction(t, pg)

	_, err := store.Get(ctx, txnID)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	now := time.Now().UTC().Truncate(time.Microsecond)
	draft := contract.NewDraft(txnID, now)
	draft.ApplyPayload(`{"sections":[]}`, now)
	require.NoError(t, store.Save(ctx, draft))
	assert.Equal(t, int64(1), draft.Version)

	loaded, err := store.Get(ctx, txnID)
	require.NoError(t, err)
	assert.Equal(t, `{"sections":[]}`, loaded.Payload)
	assert.Equal(t, contract.StateDrafted, loaded.State)
	assert.Equal(t, int64(1), loaded.Version)

	loaded.Results = []contract.Violation{{Source: contract.SourceAI, ClauseID: "c1", Reason: "vague"}}
	require.NoError(t, store.Save(ctx, loaded))

	reloaded, err := store.Get(ctx, txnID)
	require.NoError(t, err)
	require.Len(t, reloaded.Results, 1)
	assert.Equal(t, contract.SourceAI, reloaded.Results[0].Source)
}

func TestPostgresDraftStoreDetectsLostUpdates(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../migrations")
	ctx := context.Background()
	store := contract.NewPostgresDraftStore(pg.DB)
	txnID := seedTransaction(t, pg)

	now := time.Now().UTC()
	draft := contract.NewDraft(txnID, now)
	require.NoError(t, store.Save(ctx, draft))

	first, err := store.Get(ctx, txnID)
	require.NoError(t, err)
	second, err := store.Get(ctx, txnID)
	require.NoError(t, err)

	first.ApplyPayload(`{"a":1}`, now)
	require.NoError(t, store.Save(ctx, first))

	second.ApplyPayload(`{"b":2}`, now)
	require.ErrorIs(t, store.Save(ctx, second), sentinel.ErrConflict)

	// Inserting over an existing row is also a conflict.
	fresh := contract.NewDraft(txnID, now)
	require.ErrorIs(t, store.Save(ctx, fresh), sentinel.ErrConflict)

	require.NoError(t, store.Delete(ctx, txnID))
	require.ErrorIs(t, store.Delete(ctx, txnID), sentinel.ErrNotFound)
}

func TestPostgresRecordStoreListsNewestFirst(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../migrations")
	ctx := context.Background()
	store := contract.NewPostgresRecordStore(pg.DB)
	txnID := seedTransaction(t, pg)

	companyUserID := id.UserID(uuid.New())
	base := time.Now().UTC().Truncate(time.Microsecond)
	var newest id.RecordID
	for i := 0; i < 2; i++ {
		rec := &contract.Record{
			ID:            id.RecordID(uuid.New()),
			TransactionID: txnID,
			CompanyUserID: companyUserID,
			Type:          contract.TypeMain,
			Document:      []byte("%PDF-1.4 test"),
			FileName:      "Contract-test.pdf",
			FileSize:      13,
			SignedAt:      base.Add(time.Duration(i) * time.Minute),
			CreatedAt:     base,
		}
		require.NoError(t, store.Append(ctx, rec))
		newest = rec.ID
	}

	listed, err := store.ListByCompany(ctx, companyUserID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, newest, listed[0].ID)
	assert.Nil(t, listed[0].Document, "lists carry metadata only")

	byTxn, err := store.ListByTransaction(ctx, txnID)
	require.NoError(t, err)
	assert.Len(t, byTxn, 2)

	full, err := store.Get(ctx, newest)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 test"), full.Document)
}

func TestPostgresChatStoreOrdersByTime(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../migrations")
	ctx := context.Background()
	store := contract.NewPostgresChatStore(pg.DB)
	txnID := seedTransaction(t, pg)

	base := time.Now().UTC().Truncate(time.Microsecond)
	sender := id.UserID(uuid.New())
	for i, text := range []string{"first", "second"} {
		require.NoError(t, store.Append(ctx, &contract.ChatMessage{
			ID:            uuid.New(),
			TransactionID: txnID,
			SenderID:      sender,
			Message:       text,
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		}))
	}

	messages, err := store.ListByTransaction(ctx, txnID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Message)
	assert.Equal(t, "second", messages[1].Message)
}
