package transaction

import (
	"context"
	"errors"
	"log/slog"

	"pactum/pkg/platform/audit"
	auditpg "pactum/pkg/platform/audit/store/postgres"
	"pactum/pkg/platform/sentinel"
)

// StatusWorker advances the coarse submission status when contract
// milestones occur. A fully signed NDA moves the transaction into review; an
// archived main contract completes it. All other events are ignored.
//
// Milestones arrive on two paths: the in-process lifecycle channel (fast,
// lossy) and the outbox relay (durable, at-least-once). Advances are
// idempotent, so seeing the same milestone on both paths is harmless.
type StatusWorker struct {
	store  Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewStatusWorker(store Store, inbox <-chan audit.Event, logger *slog.Logger) *StatusWorker {
	return &StatusWorker{store: store, inbox: inbox, logger: logger}
}

func (w *StatusWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			w.apply(ctx, event)
		}
	}
}

// HandleOutbox is the durable path: the outbox relay delivers every committed
// lifecycle event here before marking it published. Returning an error keeps
// the row pending so the advance is retried; a missing transaction is dropped
// after logging, since retrying cannot make it appear.
func (w *StatusWorker) HandleOutbox(ctx context.Context, entry auditpg.PendingEntry) error {
	next, ok := statusFor(entry.EventType)
	if !ok || entry.TransactionID.IsNil() {
		return nil
	}

	if err := w.store.UpdateStatus(ctx, entry.TransactionID, next); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			w.logger.WarnContext(ctx, "status advance for unknown transaction, dropping",
				"transaction_id", entry.TransactionID.String(),
				"status", string(next),
			)
			return nil
		}
		return err
	}
	return nil
}

func (w *StatusWorker) apply(ctx context.Context, event audit.Event) {
	next, ok := statusFor(event.Action)
	if !ok {
		return
	}

	if err := w.store.UpdateStatus(ctx, event.TransactionID, next); err != nil {
		// On the channel path a failed advance is logged, never fatal; the
		// outbox path re-delivers the milestone.
		w.logger.ErrorContext(ctx, "failed to advance submission status",
			"transaction_id", event.TransactionID.String(),
			"status", string(next),
			"error", err,
		)
	}
}

func statusFor(action string) (SubmissionStatus, bool) {
	switch audit.AuditEvent(action) {
	case audit.EventNdaFullySigned:
		return StatusReviewing, true
	case audit.EventContractArchived:
		return StatusCompleted, true
	default:
		return "", false
	}
}
