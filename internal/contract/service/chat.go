package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"pactum/internal/contract"
	"pactum/internal/transaction"
	id "pactum/pkg/domain"
	dErrors "pactum/pkg/domain-errors"
	"pactum/pkg/platform/audit"
	"pactum/pkg/requestcontext"
)

// ChatEntry is a stored message plus the sender's resolved display name.
type ChatEntry struct {
	contract.ChatMessage
	SenderName string
}

// SendChatMessage appends one message to the transaction's chat log.
func (s *Service) SendChatMessage(ctx context.Context, txnID id.TransactionID, callerID id.UserID, message string) (*ChatEntry, error) {
	if _, err := s.requireParticipant(ctx, txnID, callerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(message) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "message must not be empty")
	}

	msg := &contract.ChatMessage{
		ID:            uuid.New(),
		TransactionID: txnID,
		SenderID:      callerID,
		Message:       message,
		CreatedAt:     requestcontext.Now(ctx),
	}
	if err := s.chat.Append(ctx, msg); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.EventChatMessageSent, txnID, callerID, "", "")
	return &ChatEntry{ChatMessage: *msg, SenderName: s.senderName(ctx, txnID, callerID)}, nil
}

// ChatMessages returns the transaction's chat log, oldest first.
func (s *Service) ChatMessages(ctx context.Context, txnID id.TransactionID, callerID id.UserID) ([]ChatEntry, error) {
	if _, err := s.requireParticipant(ctx, txnID, callerID); err != nil {
		return nil, err
	}
	msgs, err := s.chat.ListByTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}

	// One transaction lookup covers every sender in the log.
	txn, txnErr := s.transactions.Get(ctx, txnID)
	out := make([]ChatEntry, 0, len(msgs))
	for _, msg := range msgs {
		name := "Unknown"
		if txnErr == nil {
			name = displayName(txn, msg.SenderID)
		}
		out = append(out, ChatEntry{ChatMessage: msg, SenderName: name})
	}
	return out, nil
}

func (s *Service) senderName(ctx context.Context, txnID id.TransactionID, senderID id.UserID) string {
	txn, err := s.transactions.Get(ctx, txnID)
	if err != nil {
		return "Unknown"
	}
	return displayName(txn, senderID)
}

// displayName maps a sender to the party display data: corporate clients and
// companies show their entity name, individual clients show the person.
func displayName(txn *transaction.Transaction, senderID id.UserID) string {
	switch senderID {
	case txn.ClientID:
		if txn.ClientKind == transaction.ClientCorporate {
			if txn.Client.Name != "" {
				return txn.Client.Name
			}
			return "Client"
		}
		if txn.Client.Signatory != "" {
			return txn.Client.Signatory
		}
		return "Client"
	case txn.CompanyUserID:
		if txn.Company.Name != "" {
			return txn.Company.Name
		}
		return "Company"
	default:
		return "Unknown"
	}
}
