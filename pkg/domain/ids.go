// Package domain defines the typed identifiers shared across bounded contexts.
//
// Each ID is a distinct type over uuid.UUID so the compiler rejects a
// TransactionID where a PolicyID is expected. Parse functions enforce the
// invariant that IDs are valid, non-nil UUIDs at trust boundaries (HTTP
// handlers, external payloads); internal code constructs IDs directly.
package domain

import (
	"github.com/google/uuid"

	dErrors "pactum/pkg/domain-errors"
)

// TransactionID identifies one client–company pairing around one proposal.
type TransactionID uuid.UUID

// UserID identifies an authenticated caller (client user or company user).
type UserID uuid.UUID

// PolicyID identifies a company compliance policy.
type PolicyID uuid.UUID

// RecordID identifies an archived, fully-signed contract record.
type RecordID uuid.UUID

func (id TransactionID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id PolicyID) String() string      { return uuid.UUID(id).String() }
func (id RecordID) String() string      { return uuid.UUID(id).String() }

func (id TransactionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id PolicyID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseTransactionID parses and validates a transaction ID from its string form.
func ParseTransactionID(raw string) (TransactionID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return TransactionID(uuid.Nil), err
	}
	return TransactionID(parsed), nil
}

// ParseUserID parses and validates a user ID from its string form.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID(uuid.Nil), err
	}
	return UserID(parsed), nil
}

// ParsePolicyID parses and validates a policy ID from its string form.
func ParsePolicyID(raw string) (PolicyID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return PolicyID(uuid.Nil), err
	}
	return PolicyID(parsed), nil
}

// ParseRecordID parses and validates a record ID from its string form.
func ParseRecordID(raw string) (RecordID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return RecordID(uuid.Nil), err
	}
	return RecordID(parsed), nil
}
