package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pactum/internal/actor"
	"pactum/internal/contract"
	id "pactum/pkg/domain"
	dErrors "pactum/pkg/domain-errors"
	"pactum/pkg/platform/audit"
	"pactum/pkg/platform/sentinel"
	"pactum/pkg/requestcontext"
)

// SendToClient releases a fully-validated draft to the client for signature.
func (s *Service) SendToClient(ctx context.Context, txnID id.TransactionID, callerID id.UserID) (*contract.Draft, error) {
	if err := s.requireRole(ctx, txnID, callerID, actor.RoleCompany, "only the company can send the contract to the client"); err != nil {
		return nil, err
	}

	draft, err := s.drafts.Get(ctx, txnID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if err := draft.MarkSent(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, mapStoreErr(err)
	}

	s.emit(ctx, audit.EventContractSent, txnID, callerID, string(contract.TypeMain), "")
	return draft, nil
}

// SignClient records the client's signature on the main contract, optionally
// capturing a final payload revision. The revision is archived as-is; it is
// not re-validated.
func (s *Service) SignClient(ctx context.Context, txnID id.TransactionID, callerID id.UserID, signature, payload string) (*contract.Draft, error) {
	if err := s.requireRole(ctx, txnID, callerID, actor.RoleClient, "only the client can sign as Party B"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(signature) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "signature is required")
	}

	draft, err := s.drafts.Get(ctx, txnID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if err := draft.SignClient(signature, payload, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, mapStoreErr(err)
	}

	s.metrics.RecordSignature(string(contract.TypeMain), string(actor.RoleClient))
	s.emit(ctx, audit.EventContractSigned, txnID, callerID, string(contract.TypeMain), "actor=client")
	return draft, nil
}

// SignCompany records the company countersignature and archives the
// document: render the PDF, insert the immutable record, delete the draft
// and append the lifecycle events, all in one storage transaction. A render
// failure aborts everything; no partial signature state survives.
func (s *Service) SignCompany(ctx context.Context, txnID id.TransactionID, callerID id.UserID, signature, payload string) (*contract.Draft, error) {
	if err := s.requireRole(ctx, txnID, callerID, actor.RoleCompany, "only the company can countersign"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(signature) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "signature is required")
	}

	now := requestcontext.Now(ctx)
	var (
		signed *contract.Draft
		events []audit.Event
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		draft, err := s.drafts.Get(ctx, txnID)
		if err != nil {
			return mapStoreErr(err)
		}
		if err := draft.SignCompany(signature, payload, now); err != nil {
			return err
		}

		parsed, err := contract.ParsePayload(draft.Payload)
		if err != nil {
			return err
		}
		pdf, err := s.renderer.RenderMain(parsed, draft.CompanySigned(), draft.ClientSigned())
		if err != nil {
			return err
		}

		record := &contract.Record{
			ID:            id.RecordID(uuid.New()),
			TransactionID: txnID,
			CompanyUserID: callerID,
			Type:          contract.TypeMain,
			Document:      pdf,
			FileName:      fmt.Sprintf("Contract-%s-%d.pdf", txnID.String(), now.UnixMilli()),
			FileSize:      int64(len(pdf)),
			SignedAt:      now,
			CreatedAt:     now,
		}
		if err := s.records.Append(ctx, record); err != nil {
			return err
		}
		if err := s.drafts.Delete(ctx, txnID); err != nil {
			return err
		}

		events = []audit.Event{
			s.buildEvent(ctx, audit.EventContractSigned, txnID, callerID, string(contract.TypeMain), "actor=company"),
			s.buildEvent(ctx, audit.EventContractArchived, txnID, callerID, string(contract.TypeMain), "record_id="+record.ID.String()),
		}
		if s.audit != nil {
			for _, event := range events {
				if err := s.audit.Append(ctx, event); err != nil {
					return err
				}
			}
		}
		signed = draft
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSignature(string(contract.TypeMain), string(actor.RoleCompany))
	s.metrics.RecordArchive(string(contract.TypeMain))
	for _, event := range events {
		s.notify(ctx, event)
	}
	return signed, nil
}

// GetNdaDraft returns the NDA signing draft, or an unsigned default when the
// client has not signed yet.
func (s *Service) GetNdaDraft(ctx context.Context, txnID id.TransactionID, callerID id.UserID) (*contract.NdaDraft, error) {
	if _, err := s.requireParticipant(ctx, txnID, callerID); err != nil {
		return nil, err
	}
	draft, err := s.ndaDrafts.Get(ctx, txnID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return contract.NewNdaDraft(txnID, "{}", requestcontext.Now(ctx)), nil
	}
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// SignNdaClient records the client's NDA signature. Signing creates the
// draft when none exists; the NDA has no validation gates.
func (s *Service) SignNdaClient(ctx context.Context, txnID id.TransactionID, callerID id.UserID, signature, payload string) (*contract.NdaDraft, error) {
	if err := s.requireRole(ctx, txnID, callerID, actor.RoleClient, "only the client may sign as Party B"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(signature) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "signature is required")
	}

	now := requestcontext.Now(ctx)
	draft, err := s.ndaDrafts.Get(ctx, txnID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		draft = contract.NewNdaDraft(txnID, payload, now)
	case err != nil:
		return nil, err
	}

	if err := draft.SignClient(signature, payload, now); err != nil {
		return nil, err
	}
	if err := s.ndaDrafts.Save(ctx, draft); err != nil {
		return nil, mapStoreErr(err)
	}

	s.metrics.RecordSignature(string(contract.TypeNDA), string(actor.RoleClient))
	s.emit(ctx, audit.EventContractSigned, txnID, callerID, string(contract.TypeNDA), "actor=client")
	return draft, nil
}

// SignNdaCompany countersigns the NDA and archives it. The archived record,
// the draft deletion and the nda_fully_signed event commit atomically; the
// status worker then moves the transaction to reviewing.
func (s *Service) SignNdaCompany(ctx context.Context, txnID id.TransactionID, callerID id.UserID, signature, payload string) (*contract.NdaDraft, error) {
	if err := s.requireRole(ctx, txnID, callerID, actor.RoleCompany, "only the software company may sign as Party A"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(signature) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "signature is required")
	}

	now := requestcontext.Now(ctx)
	var (
		signed *contract.NdaDraft
		events []audit.Event
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		draft, err := s.ndaDrafts.Get(ctx, txnID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeInvalidState, "no draft found, client must sign first")
			}
			return err
		}
		if err := draft.SignCompany(signature, payload, now); err != nil {
			return err
		}

		parsed, err := contract.ParsePayload(draft.Payload)
		if err != nil {
			return err
		}
		pdf, err := s.renderer.RenderNDA(parsed, draft.CompanySigned(), draft.ClientSigned())
		if err != nil {
			return err
		}

		record := &contract.Record{
			ID:            id.RecordID(uuid.New()),
			TransactionID: txnID,
			CompanyUserID: callerID,
			Type:          contract.TypeNDA,
			Document:      pdf,
			FileName:      fmt.Sprintf("NDA-%s-%d.pdf", txnID.String(), now.UnixMilli()),
			FileSize:      int64(len(pdf)),
			SignedAt:      now,
			CreatedAt:     now,
		}
		if err := s.records.Append(ctx, record); err != nil {
			return err
		}
		if err := s.ndaDrafts.Delete(ctx, txnID); err != nil {
			return err
		}

		events = []audit.Event{
			s.buildEvent(ctx, audit.EventContractSigned, txnID, callerID, string(contract.TypeNDA), "actor=company"),
			s.buildEvent(ctx, audit.EventNdaFullySigned, txnID, callerID, string(contract.TypeNDA), "record_id="+record.ID.String()),
		}
		if s.audit != nil {
			for _, event := range events {
				if err := s.audit.Append(ctx, event); err != nil {
					return err
				}
			}
		}
		signed = draft
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSignature(string(contract.TypeNDA), string(actor.RoleCompany))
	s.metrics.RecordArchive(string(contract.TypeNDA))
	for _, event := range events {
		s.notify(ctx, event)
	}
	return signed, nil
}
