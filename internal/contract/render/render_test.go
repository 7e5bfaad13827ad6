package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pactum/internal/contract"
)

func samplePayload() contract.Payload {
	return contract.Payload{
		PartyA: &contract.Party{
			Name:      "Acme Software",
			Signatory: "Dana Idris",
			Title:     "CEO",
			Email:     "dana@acme.example",
			Details:   "CR: 12345",
		},
		PartyB: &contract.Party{
			Name:      "Individual Client",
			Signatory: "Sami Farouk",
			Title:     "Authorized Representative",
			Email:     "sami@client.example",
			Details:   "National ID: 98765",
		},
		Sections: []contract.Section{
			{ID: "s1", Num: 1, Title: "Scope of Work", Clauses: []contract.Clause{
				{ID: "c1", Text: "The supplier shall deliver the agreed software."},
			}},
		},
		Purpose:           "Evaluation of a proposed engagement",
		Duration:          "2 years",
		DisputeResolution: "Arbitration in Cairo",
		Provisions:        "None",
	}
}

func TestRenderMain(t *testing.T) {
	r := New()

	pdf, err := r.RenderMain(samplePayload(), true, true)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	// Deterministic for identical input.
	again, err := r.RenderMain(samplePayload(), true, true)
	require.NoError(t, err)
	assert.Equal(t, pdf, again)
}

func TestRenderNDA(t *testing.T) {
	r := New()

	pdf, err := r.RenderNDA(samplePayload(), false, true)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestRenderToleratesEmptyPayload(t *testing.T) {
	r := New()

	pdf, err := r.RenderMain(contract.Payload{}, false, false)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)

	pdf, err = r.RenderNDA(contract.Payload{}, false, false)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
}
