package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "pactum/pkg/domain"
	dErrors "pactum/pkg/domain-errors"
)

func newTestDraft(t *testing.T) *Draft {
	t.Helper()
	txnID, err := id.ParseTransactionID("5f0c3a52-1f0e-4b3d-9a51-8a1f4c7e9b10")
	require.NoError(t, err)
	return NewDraft(txnID, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func TestDraftApplyPayload(t *testing.T) {
	now := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)

	t.Run("change resets validation state", func(t *testing.T) {
		d := newTestDraft(t)
		d.AIValidated = true
		d.PolicyValidated = true
		d.ComplianceScore = 62.5
		d.Results = []Violation{{Source: SourceAI, ClauseID: "c1"}}

		changed := d.ApplyPayload(`{"sections":[]}`, now)

		assert.True(t, changed)
		assert.False(t, d.AIValidated)
		assert.False(t, d.PolicyValidated)
		assert.Equal(t, float64(100), d.ComplianceScore)
		assert.Empty(t, d.Results)
		assert.Equal(t, StateDrafted, d.State)
	})

	t.Run("identical payload is a no-op", func(t *testing.T) {
		d := newTestDraft(t)
		d.ApplyPayload(`{"sections":[]}`, now)
		d.AIValidated = true
		d.PolicyValidated = true
		d.Results = []Violation{{Source: SourcePolicy, ClauseID: "c2"}}

		changed := d.ApplyPayload(`{"sections":[]}`, now.Add(time.Minute))

		assert.False(t, changed)
		assert.True(t, d.AIValidated)
		assert.True(t, d.PolicyValidated)
		assert.Len(t, d.Results, 1)
	})
}

func TestDraftSendGate(t *testing.T) {
	now := time.Now()

	t.Run("rejects until both validators approved", func(t *testing.T) {
		d := newTestDraft(t)
		d.ApplyPayload(`{"a":1}`, now)
		d.AIValidated = true

		err := d.MarkSent(now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("succeeds when both approved", func(t *testing.T) {
		d := newTestDraft(t)
		d.ApplyPayload(`{"a":1}`, now)
		d.AIValidated = true
		d.PolicyValidated = true

		require.NoError(t, d.MarkSent(now))
		assert.True(t, d.SentToClient())
	})
}

func TestDraftSigningOrder(t *testing.T) {
	now := time.Now()

	readyDraft := func(t *testing.T) *Draft {
		d := newTestDraft(t)
		d.ApplyPayload(`{"a":1}`, now)
		d.AIValidated = true
		d.PolicyValidated = true
		require.NoError(t, d.MarkSent(now))
		return d
	}

	t.Run("client cannot sign before send", func(t *testing.T) {
		d := newTestDraft(t)
		err := d.SignClient("sig", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("company cannot sign before client", func(t *testing.T) {
		d := readyDraft(t)
		err := d.SignCompany("sig", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("full order succeeds and re-signing fails", func(t *testing.T) {
		d := readyDraft(t)
		require.NoError(t, d.SignClient("client-sig", "", now))
		assert.True(t, d.ClientSigned())
		require.NotNil(t, d.ClientSignedAt)

		err := d.SignClient("again", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

		require.NoError(t, d.SignCompany("company-sig", "", now))
		assert.True(t, d.CompanySigned())

		err = d.SignCompany("again", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("signing captures final payload revision", func(t *testing.T) {
		d := readyDraft(t)
		require.NoError(t, d.SignClient("sig", `{"a":2}`, now))
		assert.Equal(t, `{"a":2}`, d.Payload)
		// The late edit does not reopen validation.
		assert.True(t, d.AIValidated)
		assert.True(t, d.PolicyValidated)
	})
}

func TestNdaDraftSigningOrder(t *testing.T) {
	now := time.Now()
	txnID, err := id.ParseTransactionID("5f0c3a52-1f0e-4b3d-9a51-8a1f4c7e9b10")
	require.NoError(t, err)

	t.Run("company cannot sign first", func(t *testing.T) {
		d := NewNdaDraft(txnID, "{}", now)
		err := d.SignCompany("sig", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("client then company", func(t *testing.T) {
		d := NewNdaDraft(txnID, "{}", now)
		require.NoError(t, d.SignClient("c-sig", `{"purpose":"poc"}`, now))
		assert.Equal(t, `{"purpose":"poc"}`, d.Payload)

		err := d.SignClient("again", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

		require.NoError(t, d.SignCompany("co-sig", "", now))
		assert.True(t, d.CompanySigned())
	})
}

func TestMergeViolations(t *testing.T) {
	existing := []Violation{
		{Source: SourceAI, ClauseID: "c1"},
		{Source: SourcePolicy, ClauseID: "c2"},
		{Source: SourceAI, ClauseID: "c3"},
	}
	fresh := []Violation{{Source: SourceAI, ClauseID: "c9"}}

	merged := MergeViolations(existing, SourceAI, fresh)

	require.Len(t, merged, 2)
	assert.Equal(t, SourcePolicy, merged[0].Source)
	assert.Equal(t, "c2", merged[0].ClauseID)
	assert.Equal(t, "c9", merged[1].ClauseID)

	// Clearing one source keeps the other intact.
	cleared := MergeViolations(merged, SourceAI, nil)
	require.Len(t, cleared, 1)
	assert.Equal(t, SourcePolicy, cleared[0].Source)
}
