package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pactum/internal/contract"
	"pactum/internal/transaction"
	dErrors "pactum/pkg/domain-errors"
	"pactum/pkg/platform/audit"
	auditpg "pactum/pkg/platform/audit/store/postgres"
	"pactum/pkg/platform/sentinel"
)

func TestSendToClient(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected before both validations pass", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.SaveDraft(ctx, f.txnID, f.companyID, samplePayload)
		require.NoError(t, err)

		_, err = f.svc.SendToClient(ctx, f.txnID, f.companyID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

		_, err = f.svc.ValidateWithAI(ctx, f.txnID, f.companyID)
		require.NoError(t, err)
		_, err = f.svc.SendToClient(ctx, f.txnID, f.companyID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("client cannot send", func(t *testing.T) {
		f := newFixture(t)
		f.validatedDraft(t, ctx)
		_, err := f.svc.SendToClient(ctx, f.txnID, f.clientID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("succeeds once validated", func(t *testing.T) {
		f := newFixture(t)
		f.validatedDraft(t, ctx)

		draft, err := f.svc.SendToClient(ctx, f.txnID, f.companyID)
		require.NoError(t, err)
		assert.True(t, draft.SentToClient())
	})
}

func TestMainContractSigning(t *testing.T) {
	ctx := context.Background()

	sentDraft := func(t *testing.T) *fixture {
		f := newFixture(t)
		f.validatedDraft(t, ctx)
		_, err := f.svc.SendToClient(ctx, f.txnID, f.companyID)
		require.NoError(t, err)
		return f
	}

	t.Run("client cannot sign before send", func(t *testing.T) {
		f := newFixture(t)
		f.validatedDraft(t, ctx)
		_, err := f.svc.SignClient(ctx, f.txnID, f.clientID, "sig", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("company cannot sign before the client", func(t *testing.T) {
		f := sentDraft(t)
		_, err := f.svc.SignCompany(ctx, f.txnID, f.companyID, "sig", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("wrong actor is rejected", func(t *testing.T) {
		f := sentDraft(t)
		_, err := f.svc.SignClient(ctx, f.txnID, f.companyID, "sig", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		_, err = f.svc.SignCompany(ctx, f.txnID, f.clientID, "sig", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("full execution archives and deletes the draft", func(t *testing.T) {
		f := sentDraft(t)

		_, err := f.svc.SignClient(ctx, f.txnID, f.clientID, "client-sig", "")
		require.NoError(t, err)

		signed, err := f.svc.SignCompany(ctx, f.txnID, f.companyID, "company-sig", "")
		require.NoError(t, err)
		assert.True(t, signed.CompanySigned())

		// The draft is gone; reads fall back to the safe default.
		_, err = f.drafts.Get(ctx, f.txnID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		fresh, err := f.svc.GetDraft(ctx, f.txnID, f.clientID)
		require.NoError(t, err)
		assert.Equal(t, "{}", fresh.Payload)

		// The immutable record replaced it, PDF included.
		records, err := f.records.ListByCompany(ctx, f.companyID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, contract.TypeMain, records[0].Type)
		assert.Positive(t, records[0].FileSize)

		record, err := f.records.Get(ctx, records[0].ID)
		require.NoError(t, err)
		assert.NotEmpty(t, record.Document)
		assert.Equal(t, "%PDF", string(record.Document[:4]))

		// Archive event reached the outbox and the status worker feed.
		events, err := f.audit.ListByTransaction(ctx, f.txnID)
		require.NoError(t, err)
		var archived bool
		for _, e := range events {
			if e.Action == string(audit.EventContractArchived) {
				archived = true
			}
		}
		assert.True(t, archived)

		var notified bool
		for len(f.events) > 0 {
			if e := <-f.events; e.Action == string(audit.EventContractArchived) {
				notified = true
			}
		}
		assert.True(t, notified)
	})

	t.Run("re-signing either side fails", func(t *testing.T) {
		f := sentDraft(t)
		_, err := f.svc.SignClient(ctx, f.txnID, f.clientID, "sig", "")
		require.NoError(t, err)
		_, err = f.svc.SignClient(ctx, f.txnID, f.clientID, "sig", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

		_, err = f.svc.SignCompany(ctx, f.txnID, f.companyID, "sig", "")
		require.NoError(t, err)
		// The draft no longer exists after archival.
		_, err = f.svc.SignCompany(ctx, f.txnID, f.companyID, "sig", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("missing signature rejected", func(t *testing.T) {
		f := sentDraft(t)
		_, err := f.svc.SignClient(ctx, f.txnID, f.clientID, "  ", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestNdaFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("default draft before anyone signs", func(t *testing.T) {
		f := newFixture(t)
		draft, err := f.svc.GetNdaDraft(ctx, f.txnID, f.clientID)
		require.NoError(t, err)
		assert.False(t, draft.ClientSigned())
		assert.Equal(t, "{}", draft.Payload)
	})

	t.Run("company cannot sign before the client", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.SignNdaCompany(ctx, f.txnID, f.companyID, "sig", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("client signing creates the draft", func(t *testing.T) {
		f := newFixture(t)
		payload := `{"purpose":"Evaluation of a proposed engagement","duration":"2 years"}`

		draft, err := f.svc.SignNdaClient(ctx, f.txnID, f.clientID, "client-sig", payload)
		require.NoError(t, err)
		assert.True(t, draft.ClientSigned())
		assert.Equal(t, payload, draft.Payload)

		_, err = f.svc.SignNdaClient(ctx, f.txnID, f.clientID, "again", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("countersigning archives the NDA and notifies", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.SignNdaClient(ctx, f.txnID, f.clientID, "client-sig", `{"purpose":"poc"}`)
		require.NoError(t, err)

		signed, err := f.svc.SignNdaCompany(ctx, f.txnID, f.companyID, "company-sig", "")
		require.NoError(t, err)
		assert.True(t, signed.CompanySigned())

		_, err = f.ndaDrafts.Get(ctx, f.txnID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		records, err := f.records.ListByCompany(ctx, f.companyID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, contract.TypeNDA, records[0].Type)

		var fullySigned bool
		for len(f.events) > 0 {
			if e := <-f.events; e.Action == string(audit.EventNdaFullySigned) {
				fullySigned = true
			}
		}
		assert.True(t, fullySigned)
	})
}

func TestRecordAccess(t *testing.T) {
	ctx := context.Background()

	archived := func(t *testing.T) (*fixture, contract.Record) {
		f := newFixture(t)
		f.validatedDraft(t, ctx)
		_, err := f.svc.SendToClient(ctx, f.txnID, f.companyID)
		require.NoError(t, err)
		_, err = f.svc.SignClient(ctx, f.txnID, f.clientID, "c-sig", "")
		require.NoError(t, err)
		_, err = f.svc.SignCompany(ctx, f.txnID, f.companyID, "co-sig", "")
		require.NoError(t, err)

		records, err := f.records.ListByCompany(ctx, f.companyID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		return f, records[0]
	}

	t.Run("company and client can fetch the PDF", func(t *testing.T) {
		f, record := archived(t)

		got, err := f.svc.RecordPDF(ctx, record.ID, f.companyID)
		require.NoError(t, err)
		assert.NotEmpty(t, got.Document)

		got, err = f.svc.RecordPDF(ctx, record.ID, f.clientID)
		require.NoError(t, err)
		assert.NotEmpty(t, got.Document)
	})

	t.Run("strangers see not found", func(t *testing.T) {
		f, record := archived(t)
		_, err := f.svc.RecordPDF(ctx, record.ID, f.stranger)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("signed projects list the client's archive", func(t *testing.T) {
		f, record := archived(t)

		projects, err := f.svc.SignedProjects(ctx, f.clientID)
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, record.ID, projects[0].RecordID)
		assert.Equal(t, "Inventory Platform", projects[0].ProjectName)
		assert.Equal(t, "Acme Software", projects[0].CompanyName)
		assert.Equal(t, contract.TypeMain, projects[0].ContractType)
		assert.Positive(t, projects[0].FileSize)
	})
}

// A stalled fast-path channel must not lose the status advance: the event
// still commits to the outbox and reaches the worker through the relay.
func TestStatusAdvanceSurvivesDroppedChannelEvent(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	// Unbuffered and never read, so every non-blocking notify is dropped.
	f.svc.events = make(chan audit.Event)

	f.validatedDraft(t, ctx)
	_, err := f.svc.SendToClient(ctx, f.txnID, f.companyID)
	require.NoError(t, err)
	_, err = f.svc.SignClient(ctx, f.txnID, f.clientID, "client-sig", "")
	require.NoError(t, err)
	_, err = f.svc.SignCompany(ctx, f.txnID, f.companyID, "company-sig", "")
	require.NoError(t, err)

	// The archive committed durably even though no notification got out.
	events, err := f.audit.ListByTransaction(ctx, f.txnID)
	require.NoError(t, err)
	var archived bool
	for _, e := range events {
		if e.Action == string(audit.EventContractArchived) {
			archived = true
		}
	}
	require.True(t, archived)

	txn, err := f.txns.Get(ctx, f.txnID)
	require.NoError(t, err)
	require.Equal(t, transaction.StatusSigning, txn.Status, "fast path was dropped")

	// Replaying the committed events through the durable path advances the
	// status the channel failed to deliver.
	worker := transaction.NewStatusWorker(f.txns, nil, slog.New(slog.DiscardHandler))
	for _, e := range events {
		require.NoError(t, worker.HandleOutbox(ctx, auditpg.PendingEntry{
			EventType:     e.Action,
			TransactionID: e.TransactionID,
		}))
	}

	txn, err = f.txns.Get(ctx, f.txnID)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusCompleted, txn.Status)
}
