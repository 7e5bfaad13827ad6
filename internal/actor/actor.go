// Package actor resolves which role a caller occupies within a transaction.
// Every contract operation consults it as its authorization gate.
package actor

import (
	"context"

	id "pactum/pkg/domain"
)

// Role is the position a caller holds in a transaction.
type Role string

const (
	RoleClient  Role = "client"
	RoleCompany Role = "company"
	RoleNone    Role = "none"
)

// ParseRole maps a wire value to a Role, defaulting to none.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleClient, RoleCompany:
		return Role(raw)
	default:
		return RoleNone
	}
}

// Verifier answers who a caller is within a transaction. The remote
// implementation asks the proposal subsystem; the resolver falls back to a
// local lookup when it fails.
type Verifier interface {
	VerifyActor(ctx context.Context, transactionID id.TransactionID, callerID id.UserID) (Role, error)
}
