package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditpg "pactum/pkg/platform/audit/store/postgres"
)

// OutboxSource is the slice of the audit store the relay needs.
type OutboxSource interface {
	Pending(ctx context.Context, limit int) ([]auditpg.PendingEntry, error)
	MarkPublished(ctx context.Context, entryID uuid.UUID) error
}

// Publisher produces one record to the lifecycle topic.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Sink receives every outbox row before it is marked published. Sinks back
// in-process consumers (the status worker) with the durable outbox cursor,
// so an event missed on the fast channel path is still delivered here.
type Sink interface {
	HandleOutbox(ctx context.Context, entry auditpg.PendingEntry) error
}

// Relay drains unpublished outbox rows to the local sinks and to Kafka. It
// delivers at-least-once: a crash before MarkPublished re-delivers the row on
// restart, so sinks and consumers must treat events as idempotent. A nil
// publisher skips the Kafka leg; the sinks still see every row.
type Relay struct {
	source    OutboxSource
	publisher Publisher
	sinks     []Sink
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewRelay(source OutboxSource, publisher Publisher, logger *slog.Logger, sinks ...Sink) *Relay {
	return &Relay{
		source:    source,
		publisher: publisher,
		sinks:     sinks,
		logger:    logger,
		interval:  time.Second,
		batchSize: 100,
	}
}

// Run polls the outbox until the context is canceled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drain(ctx); err != nil && ctx.Err() == nil {
				r.logger.ErrorContext(ctx, "outbox relay drain failed", "error", err)
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	for {
		entries, err := r.source.Pending(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		for _, entry := range entries {
			// Sinks run before the producer; a sink failure keeps the row
			// pending for retry.
			for _, sink := range r.sinks {
				if err := sink.HandleOutbox(ctx, entry); err != nil {
					return err
				}
			}
			if r.publisher != nil {
				if err := r.publisher.Publish(ctx, entry.AggregateID, entry.Payload); err != nil {
					// Stop the batch on the first produce failure so ordering
					// per aggregate is preserved on retry.
					return err
				}
			}
			if err := r.source.MarkPublished(ctx, entry.ID); err != nil {
				return err
			}
		}

		if len(entries) < r.batchSize {
			return nil
		}
	}
}
