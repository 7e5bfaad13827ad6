package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "pactum/pkg/domain"
	"pactum/pkg/platform/audit"
	txcontext "pactum/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table in the caller's transaction and
// published to Kafka by the outbox relay, so an archived contract and its
// lifecycle event commit or roll back together.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka. Field names match
// audit.Event for deserialization by consumers.
type outboxPayload struct {
	ID            string `json:"ID"`
	Category      string `json:"Category"`
	Timestamp     string `json:"Timestamp"`
	TransactionID string `json:"TransactionID,omitempty"`
	ActorID       string `json:"ActorID,omitempty"`
	Action        string `json:"Action"`
	ContractType  string `json:"ContractType,omitempty"`
	Detail        string `json:"Detail,omitempty"`
	RequestID     string `json:"RequestID,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Category is always derived from the action so producers cannot disagree.
	category := audit.AuditEvent(event.Action).Category()

	payload := outboxPayload{
		ID:           eventID.String(),
		Category:     string(category),
		Timestamp:    event.Timestamp.Format(time.RFC3339Nano),
		Action:       event.Action,
		ContractType: event.ContractType,
		Detail:       event.Detail,
		RequestID:    event.RequestID,
	}
	if !event.TransactionID.IsNil() {
		payload.TransactionID = event.TransactionID.String()
	}
	if !event.ActorID.IsNil() {
		payload.ActorID = event.ActorID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	if !event.TransactionID.IsNil() {
		aggregateType = "transaction"
		aggregateID = event.TransactionID.String()
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		eventID,
		aggregateType,
		aggregateID,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// PendingEntry is one unpublished outbox row.
type PendingEntry struct {
	ID            uuid.UUID
	AggregateID   string
	EventType     string
	Payload       []byte
	TransactionID id.TransactionID
}

// Pending returns up to limit unpublished outbox rows in insertion order.
func (s *Store) Pending(ctx context.Context, limit int) ([]PendingEntry, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox: %w", err)
	}
	defer rows.Close()

	var entries []PendingEntry
	for rows.Next() {
		var e PendingEntry
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		if parsed, err := id.ParseTransactionID(e.AggregateID); err == nil {
			e.TransactionID = parsed
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkPublished stamps an outbox row after its Kafka produce was acknowledged.
func (s *Store) MarkPublished(ctx context.Context, entryID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET published_at = $1 WHERE id = $2`, time.Now(), entryID)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
