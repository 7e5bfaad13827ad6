package audit

import (
	"context"
	"time"

	id "pactum/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. Compliance
// events (signatures, archives) need long retention; operations events
// (draft saves, validations) can be sampled.
type EventCategory string

const (
	CategoryCompliance EventCategory = "compliance"
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key contract lifecycle
// actions. Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category      EventCategory
	Timestamp     time.Time
	TransactionID id.TransactionID
	ActorID       id.UserID
	Action        string
	// ContractType distinguishes the NDA flow from the main contract where the
	// action applies to a document ("NDA" | "MAIN_CONTRACT").
	ContractType string
	// Detail carries action-specific context, e.g. which validator ran and
	// whether it passed.
	Detail    string
	RequestID string
}

type AuditEvent string

const (
	EventDraftSaved        AuditEvent = "draft_saved"
	EventContractValidated AuditEvent = "contract_validated"
	EventContractSent      AuditEvent = "contract_sent"
	EventContractSigned    AuditEvent = "contract_signed"
	EventContractArchived  AuditEvent = "contract_archived"
	EventNdaFullySigned    AuditEvent = "nda_fully_signed"
	EventPolicyCreated     AuditEvent = "policy_created"
	EventPolicyDeleted     AuditEvent = "policy_deleted"
	EventChatMessageSent   AuditEvent = "chat_message_sent"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventDraftSaved:        CategoryOperations,
	EventContractValidated: CategoryOperations,
	EventContractSent:      CategoryCompliance,
	EventContractSigned:    CategoryCompliance,
	EventContractArchived:  CategoryCompliance,
	EventNdaFullySigned:    CategoryCompliance,
	EventPolicyCreated:     CategoryOperations,
	EventPolicyDeleted:     CategoryOperations,
	EventChatMessageSent:   CategoryOperations,
}

// Category returns the category for an event action, defaulting to operations.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}

// Store persists audit events. The postgres implementation writes to the
// transactional outbox; the relay publishes outbox rows to Kafka.
type Store interface {
	Append(ctx context.Context, event Event) error
}
