// Package contract owns the contract lifecycle: the draft state machine, the
// NDA signing flow, the immutable signed-record archive, and the
// transaction-scoped chat log. Stores live in this package; orchestration,
// rendering, and HTTP live in subpackages.
package contract

import (
	"time"

	id "pactum/pkg/domain"
	dErrors "pactum/pkg/domain-errors"

	"github.com/google/uuid"
)

// Type distinguishes the two documents a transaction can produce.
type Type string

const (
	TypeNDA  Type = "NDA"
	TypeMain Type = "MAIN_CONTRACT"
)

// DraftState is the explicit lifecycle position of a main-contract draft.
// Validation is tracked separately: AIValidated and PolicyValidated are
// independent flags that can flip in either order and are reset whenever the
// payload changes.
type DraftState string

const (
	StateNew           DraftState = "new"
	StateDrafted       DraftState = "drafted"
	StateSentToClient  DraftState = "sent_to_client"
	StateClientSigned  DraftState = "client_signed"
	StateCompanySigned DraftState = "company_signed"
)

var stateRank = map[DraftState]int{
	StateNew:           0,
	StateDrafted:       1,
	StateSentToClient:  2,
	StateClientSigned:  3,
	StateCompanySigned: 4,
}

func (s DraftState) atLeast(t DraftState) bool {
	return stateRank[s] >= stateRank[t]
}

// ViolationSource tags which validator produced a finding.
type ViolationSource string

const (
	SourceAI     ViolationSource = "ai"
	SourcePolicy ViolationSource = "policy"
)

// Violation is one finding against one clause, from either validator.
// AI findings carry Reason/Suggestion from the analyzer; policy findings
// additionally identify the offending policy in ViolatedLaw.
type Violation struct {
	Source      ViolationSource   `json:"source"`
	ClauseID    string            `json:"clauseId"`
	ClauseText  string            `json:"clauseText"`
	Reason      string            `json:"reason"`
	Suggestion  string            `json:"suggestion"`
	Confidence  float64           `json:"confidence"`
	ViolatedLaw map[string]string `json:"violatedLaw,omitempty"`
}

// MergeViolations replaces all findings from the given source with fresh ones,
// preserving the other source's findings and their order. Each validator owns
// its own slice of the merged result.
func MergeViolations(existing []Violation, source ViolationSource, fresh []Violation) []Violation {
	merged := make([]Violation, 0, len(existing)+len(fresh))
	for _, v := range existing {
		if v.Source != source {
			merged = append(merged, v)
		}
	}
	return append(merged, fresh...)
}

// Draft is the mutable working copy of a main contract for one transaction.
// At most one live draft exists per transaction; it is deleted the moment the
// company countersigns and an immutable Record takes its place.
type Draft struct {
	TransactionID id.TransactionID
	// Payload is the caller-defined contract JSON (sections, clauses, parties).
	Payload         string
	State           DraftState
	AIValidated     bool
	PolicyValidated bool
	// ComplianceScore is the minimum analyzer score seen across all clauses
	// in the most recent AI run. 100 until AI validation has run.
	ComplianceScore  float64
	ClientSignature  string
	ClientSignedAt   *time.Time
	CompanySignature string
	CompanySignedAt  *time.Time
	Results          []Violation
	// Version guards against lost updates; stores reject a save whose
	// version does not match the stored row.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDraft returns an empty draft for the transaction.
func NewDraft(txnID id.TransactionID, now time.Time) *Draft {
	return &Draft{
		TransactionID:   txnID,
		Payload:         "{}",
		State:           StateNew,
		ComplianceScore: 100,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// SentToClient reports whether the draft has been released to the client.
func (d *Draft) SentToClient() bool { return d.State.atLeast(StateSentToClient) }

// ClientSigned reports whether the client's signature is recorded.
func (d *Draft) ClientSigned() bool { return d.State.atLeast(StateClientSigned) }

// CompanySigned reports whether the company has countersigned.
func (d *Draft) CompanySigned() bool { return d.State.atLeast(StateCompanySigned) }

// ApplyPayload stores a new payload. A byte-for-byte identical payload is a
// no-op; any change voids both validation approvals and discards prior
// findings. Returns true when the payload actually changed.
func (d *Draft) ApplyPayload(payload string, now time.Time) bool {
	if payload == d.Payload {
		return false
	}
	d.Payload = payload
	d.AIValidated = false
	d.PolicyValidated = false
	d.ComplianceScore = 100
	d.Results = nil
	if d.State == StateNew {
		d.State = StateDrafted
	}
	d.UpdatedAt = now
	return true
}

// MarkSent releases the draft to the client. Both validators must have
// approved the current payload first.
func (d *Draft) MarkSent(now time.Time) error {
	if d.ClientSigned() {
		return dErrors.New(dErrors.CodeInvalidState, "client has already signed")
	}
	if !d.AIValidated || !d.PolicyValidated {
		return dErrors.New(dErrors.CodeInvalidState, "contract must be validated by both AI and policy engines before sending to client")
	}
	d.State = StateSentToClient
	d.UpdatedAt = now
	return nil
}

// SignClient records the client's signature. The draft must have been sent
// and not yet signed by the client. An optional final payload revision is
// captured as-is; it is not re-validated.
func (d *Draft) SignClient(signature, payload string, now time.Time) error {
	if !d.SentToClient() {
		return dErrors.New(dErrors.CodeInvalidState, "contract must be sent to client first")
	}
	if d.ClientSigned() {
		return dErrors.New(dErrors.CodeInvalidState, "client has already signed")
	}
	d.ClientSignature = signature
	t := now
	d.ClientSignedAt = &t
	if payload != "" {
		d.Payload = payload
	}
	d.State = StateClientSigned
	d.UpdatedAt = now
	return nil
}

// SignCompany records the company countersignature, the terminal transition.
// The client must already have signed.
func (d *Draft) SignCompany(signature, payload string, now time.Time) error {
	if !d.ClientSigned() {
		return dErrors.New(dErrors.CodeInvalidState, "client must sign first")
	}
	if d.CompanySigned() {
		return dErrors.New(dErrors.CodeInvalidState, "company has already signed")
	}
	d.CompanySignature = signature
	t := now
	d.CompanySignedAt = &t
	if payload != "" {
		d.Payload = payload
	}
	d.State = StateCompanySigned
	d.UpdatedAt = now
	return nil
}

// NdaDraft is the lighter signing draft for the NDA document. It has no
// validation gates; it exists only to collect the two signatures in order.
type NdaDraft struct {
	TransactionID    id.TransactionID
	Payload          string
	ClientSignature  string
	ClientSignedAt   *time.Time
	CompanySignature string
	CompanySignedAt  *time.Time
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewNdaDraft returns an unsigned NDA draft for the transaction.
func NewNdaDraft(txnID id.TransactionID, payload string, now time.Time) *NdaDraft {
	if payload == "" {
		payload = "{}"
	}
	return &NdaDraft{
		TransactionID: txnID,
		Payload:       payload,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ClientSigned reports whether Party B has signed.
func (d *NdaDraft) ClientSigned() bool { return d.ClientSignedAt != nil }

// CompanySigned reports whether Party A has countersigned.
func (d *NdaDraft) CompanySigned() bool { return d.CompanySignedAt != nil }

// SignClient records the client signature; re-signing is rejected.
func (d *NdaDraft) SignClient(signature, payload string, now time.Time) error {
	if d.ClientSigned() {
		return dErrors.New(dErrors.CodeInvalidState, "client has already signed")
	}
	d.ClientSignature = signature
	t := now
	d.ClientSignedAt = &t
	if payload != "" {
		d.Payload = payload
	}
	d.UpdatedAt = now
	return nil
}

// SignCompany records the company countersignature; the client signs first.
func (d *NdaDraft) SignCompany(signature, payload string, now time.Time) error {
	if !d.ClientSigned() {
		return dErrors.New(dErrors.CodeInvalidState, "client must sign first")
	}
	if d.CompanySigned() {
		return dErrors.New(dErrors.CodeInvalidState, "company has already signed")
	}
	d.CompanySignature = signature
	t := now
	d.CompanySignedAt = &t
	if payload != "" {
		d.Payload = payload
	}
	d.UpdatedAt = now
	return nil
}

// Record is an immutable, fully-signed contract document.
type Record struct {
	ID            id.RecordID
	TransactionID id.TransactionID
	CompanyUserID id.UserID
	Type          Type
	// Document holds the rendered PDF. List queries leave it nil; only a
	// direct fetch loads the bytes.
	Document  []byte
	FileName  string
	FileSize  int64
	SignedAt  time.Time
	CreatedAt time.Time
}

// ChatMessage is one entry in a transaction's append-only chat log.
type ChatMessage struct {
	ID            uuid.UUID
	TransactionID id.TransactionID
	SenderID      id.UserID
	Message       string
	CreatedAt     time.Time
}
