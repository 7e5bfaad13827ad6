package transaction

import (
	"time"

	id "pactum/pkg/domain"
)

// ClientKind distinguishes how the client side of a transaction is rendered
// and addressed in contract documents.
type ClientKind string

const (
	ClientIndividual ClientKind = "individual"
	ClientCorporate  ClientKind = "corporate"
)

// SubmissionStatus is the coarse lifecycle of the proposal the transaction
// belongs to. It is owned by the proposal subsystem; the core only advances
// it through the status worker when contract milestones are reached, and the
// two views are allowed to drift in between.
type SubmissionStatus string

const (
	StatusWaitingForCompany SubmissionStatus = "waiting_for_company"
	StatusAccepted          SubmissionStatus = "accepted"
	StatusReviewing         SubmissionStatus = "reviewing"
	StatusValidation        SubmissionStatus = "validation"
	StatusSigning           SubmissionStatus = "signing"
	StatusCompleted         SubmissionStatus = "completed"
)

// Party holds the display data one side of a transaction contributes to a
// contract document.
type Party struct {
	Name      string
	Signatory string
	Title     string
	Email     string
	// Registration is the company registration number for corporate parties
	// and the national ID for individuals.
	Registration string
}

// Transaction is the read-model of one client–company pairing. The core
// reads it to resolve actors and party display data; only Status is ever
// advanced from this side.
type Transaction struct {
	ID            id.TransactionID
	ClientID      id.UserID
	CompanyUserID id.UserID
	ClientKind    ClientKind
	Status        SubmissionStatus
	ProjectName   string
	Client        Party
	Company       Party
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
