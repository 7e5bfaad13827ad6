// Package service is the contract state machine: it authorizes every
// operation through the actor resolver, enforces the draft's legal ordering,
// fans out to the two validators, and archives the final document.
package service

import (
	"context"
	"errors"
	"log/slog"

	"pactum/internal/actor"
	"pactum/internal/analyzer"
	"pactum/internal/contract"
	"pactum/internal/contract/metrics"
	"pactum/internal/policy"
	"pactum/internal/policy/matcher"
	"pactum/internal/transaction"
	id "pactum/pkg/domain"
	dErrors "pactum/pkg/domain-errors"
	"pactum/pkg/platform/audit"
	"pactum/pkg/platform/sentinel"
	"pactum/pkg/requestcontext"
)

// Analyzer is the slice of the clause analysis client this service needs.
type Analyzer interface {
	Analyze(ctx context.Context, numberedClause string) (*analyzer.Result, error)
}

// PolicyMatcher runs a company's policy set against a clause set.
type PolicyMatcher interface {
	Run(ctx context.Context, companyName string, policies []*policy.Policy, clauses []matcher.Clause) matcher.Outcome
}

// Renderer produces the archived PDF for a finalized payload.
type Renderer interface {
	RenderMain(payload contract.Payload, companySigned, clientSigned bool) ([]byte, error)
	RenderNDA(payload contract.Payload, companySigned, clientSigned bool) ([]byte, error)
}

// Service orchestrates the contract lifecycle for both document types.
type Service struct {
	actors       actor.Resolver
	transactions transaction.Store
	drafts       contract.DraftStore
	ndaDrafts    contract.NdaDraftStore
	records      contract.RecordStore
	chat         contract.ChatStore
	policies     policy.Store
	analyzer     Analyzer
	matcher      PolicyMatcher
	renderer     Renderer
	audit        audit.Store
	// events feeds the in-process status worker; the outbox relay serves
	// external consumers independently.
	events  chan<- audit.Event
	tx      TxRunner
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Config struct {
	Actors       actor.Resolver
	Transactions transaction.Store
	Drafts       contract.DraftStore
	NdaDrafts    contract.NdaDraftStore
	Records      contract.RecordStore
	Chat         contract.ChatStore
	Policies     policy.Store
	Analyzer     Analyzer
	Matcher      PolicyMatcher
	Renderer     Renderer
	Audit        audit.Store
	Events       chan<- audit.Event
	Tx           TxRunner
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

func New(cfg Config) *Service {
	tx := cfg.Tx
	if tx == nil {
		tx = NopTxRunner{}
	}
	return &Service{
		actors:       cfg.Actors,
		transactions: cfg.Transactions,
		drafts:       cfg.Drafts,
		ndaDrafts:    cfg.NdaDrafts,
		records:      cfg.Records,
		chat:         cfg.Chat,
		policies:     cfg.Policies,
		analyzer:     cfg.Analyzer,
		matcher:      cfg.Matcher,
		renderer:     cfg.Renderer,
		audit:        cfg.Audit,
		events:       cfg.Events,
		tx:           tx,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// requireParticipant resolves the caller's role and rejects outsiders.
func (s *Service) requireParticipant(ctx context.Context, txnID id.TransactionID, callerID id.UserID) (actor.Role, error) {
	role, err := s.actors.Resolve(ctx, txnID, callerID)
	if err != nil {
		return actor.RoleNone, err
	}
	if role == actor.RoleNone {
		return actor.RoleNone, dErrors.New(dErrors.CodeUnauthorized, "not a participant in this transaction")
	}
	return role, nil
}

// requireRole additionally demands a specific side of the transaction.
func (s *Service) requireRole(ctx context.Context, txnID id.TransactionID, callerID id.UserID, want actor.Role, reason string) error {
	role, err := s.requireParticipant(ctx, txnID, callerID)
	if err != nil {
		return err
	}
	if role != want {
		return dErrors.New(dErrors.CodeForbidden, reason)
	}
	return nil
}

// Parties is the display-ready view of both sides of a transaction.
type Parties struct {
	Actor      actor.Role
	ClientKind transaction.ClientKind
	PartyA     contract.Party
	PartyB     contract.Party
}

// GetParties assembles the party blocks for the document header. Party A is
// always the software company; Party B's rendering depends on whether the
// client is an individual or a corporate entity.
func (s *Service) GetParties(ctx context.Context, txnID id.TransactionID, callerID id.UserID) (*Parties, error) {
	role, err := s.requireParticipant(ctx, txnID, callerID)
	if err != nil {
		return nil, err
	}

	txn, err := s.transactions.Get(ctx, txnID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "transaction not found")
		}
		return nil, err
	}

	partyA := contract.Party{
		Name:      txn.Company.Name,
		Signatory: txn.Company.Signatory,
		Title:     txn.Company.Title,
		Email:     txn.Company.Email,
	}
	if txn.Company.Registration != "" {
		partyA.Details = "CR: " + txn.Company.Registration
	}

	var partyB contract.Party
	if txn.ClientKind == transaction.ClientCorporate {
		partyB = contract.Party{
			Name:      txn.Client.Name,
			Signatory: txn.Client.Signatory,
			Title:     txn.Client.Title,
			Email:     txn.Client.Email,
		}
		if txn.Client.Registration != "" {
			partyB.Details = "CR: " + txn.Client.Registration
		}
	} else {
		partyB = contract.Party{
			Name:      "Individual Client",
			Signatory: txn.Client.Signatory,
			Title:     "Authorized Representative",
			Email:     txn.Client.Email,
		}
		if txn.Client.Registration != "" {
			partyB.Details = "National ID: " + txn.Client.Registration
		}
	}

	return &Parties{Actor: role, ClientKind: txn.ClientKind, PartyA: partyA, PartyB: partyB}, nil
}

// SaveDraft creates or updates the working payload. Either party may edit;
// a changed payload voids both validation approvals.
func (s *Service) SaveDraft(ctx context.Context, txnID id.TransactionID, callerID id.UserID, payload string) (*contract.Draft, error) {
	role, err := s.requireParticipant(ctx, txnID, callerID)
	if err != nil {
		return nil, err
	}
	if payload == "" {
		payload = "{}"
	}

	now := requestcontext.Now(ctx)
	draft, err := s.drafts.Get(ctx, txnID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		draft = contract.NewDraft(txnID, now)
	case err != nil:
		return nil, err
	}

	changed := draft.ApplyPayload(payload, now)
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, mapStoreErr(err)
	}
	if changed {
		s.emit(ctx, audit.EventDraftSaved, txnID, callerID, string(contract.TypeMain), "actor="+string(role))
	}
	return draft, nil
}

// GetDraft returns the working draft, or a safe default when none exists.
// Reading never creates a draft.
func (s *Service) GetDraft(ctx context.Context, txnID id.TransactionID, callerID id.UserID) (*contract.Draft, error) {
	if _, err := s.requireParticipant(ctx, txnID, callerID); err != nil {
		return nil, err
	}
	draft, err := s.drafts.Get(ctx, txnID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return contract.NewDraft(txnID, requestcontext.Now(ctx)), nil
	}
	if err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, txnID id.TransactionID, actorID id.UserID, contractType, detail string) {
	event := s.buildEvent(ctx, action, txnID, actorID, contractType, detail)
	if s.audit != nil {
		if err := s.audit.Append(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "failed to append audit event", "action", string(action), "error", err)
		}
	}
	s.notify(ctx, event)
}

func (s *Service) buildEvent(ctx context.Context, action audit.AuditEvent, txnID id.TransactionID, actorID id.UserID, contractType, detail string) audit.Event {
	return audit.Event{
		Category:      action.Category(),
		Timestamp:     requestcontext.Now(ctx),
		TransactionID: txnID,
		ActorID:       actorID,
		Action:        string(action),
		ContractType:  contractType,
		Detail:        detail,
		RequestID:     requestcontext.RequestID(ctx),
	}
}

// notify hands the event to the in-process status worker. The worker keeps
// up in practice; a full channel drops the event rather than stalling a
// request, the outbox still has it.
func (s *Service) notify(ctx context.Context, event audit.Event) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- event:
	default:
		s.logger.WarnContext(ctx, "status worker channel full, dropping event", "action", event.Action)
	}
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "draft was modified concurrently, reload and retry")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "draft not found")
	default:
		return err
	}
}
