package actor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"pactum/internal/actor/metrics"
	"pactum/internal/transaction"
	id "pactum/pkg/domain"
	"pactum/pkg/platform/circuit"
	"pactum/pkg/platform/sentinel"
)

// Resolver answers resolveActor for the state machine. The contract service
// depends on this interface so tests can stub roles directly.
type Resolver interface {
	Resolve(ctx context.Context, transactionID id.TransactionID, callerID id.UserID) (Role, error)
}

// Service resolves actors through two strategies composed first-success:
// the remote verify-actor endpoint behind a circuit breaker, then a local
// comparison against the transaction read-model. Remote failures are
// absorbed; only the local path having nothing to say yields none.
type Service struct {
	remote       Verifier
	transactions transaction.Store
	breaker      *circuit.Breaker
	cache        Cache
	logger       *slog.Logger
	metrics      *metrics.Metrics

	// probeCounter spaces out primary probes while the breaker is open.
	probeCounter atomic.Uint64
}

const probeEvery = 10

func NewService(remote Verifier, transactions transaction.Store, cache Cache, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		remote:       remote,
		transactions: transactions,
		breaker:      circuit.New("verify-actor", circuit.WithFailureThreshold(3)),
		cache:        cache,
		logger:       logger,
		metrics:      m,
	}
}

// Resolve returns the caller's role in the transaction. It never returns an
// error for upstream unavailability; it degrades to the local lookup and,
// when that fails too, to RoleNone.
func (s *Service) Resolve(ctx context.Context, transactionID id.TransactionID, callerID id.UserID) (Role, error) {
	if s.cache != nil {
		if role, ok := s.cache.Get(ctx, transactionID, callerID); ok {
			s.metrics.RecordResolution("cache", string(role))
			return role, nil
		}
	}

	if role, ok := s.resolveRemote(ctx, transactionID, callerID); ok {
		s.metrics.RecordResolution("remote", string(role))
		s.cacheRole(ctx, transactionID, callerID, role)
		return role, nil
	}

	role := s.resolveLocal(ctx, transactionID, callerID)
	s.metrics.RecordResolution("local", string(role))
	s.cacheRole(ctx, transactionID, callerID, role)
	return role, nil
}

func (s *Service) resolveRemote(ctx context.Context, transactionID id.TransactionID, callerID id.UserID) (Role, bool) {
	if s.remote == nil {
		return RoleNone, false
	}
	if s.breaker.IsOpen() && s.probeCounter.Add(1)%probeEvery != 0 {
		return RoleNone, false
	}

	role, err := s.remote.VerifyActor(ctx, transactionID, callerID)
	if err != nil {
		_, change := s.breaker.RecordFailure()
		if change.Opened {
			s.metrics.RecordBreakerOpened()
			s.logger.WarnContext(ctx, "verify-actor circuit opened", "error", err)
		}
		s.metrics.RecordRemoteFallback()
		s.logger.WarnContext(ctx, "remote actor verification failed, using local lookup",
			"transaction_id", transactionID.String(),
			"error", err,
		)
		return RoleNone, false
	}

	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "verify-actor circuit closed")
	}
	return role, true
}

func (s *Service) resolveLocal(ctx context.Context, transactionID id.TransactionID, callerID id.UserID) Role {
	txn, err := s.transactions.Get(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "local actor lookup failed",
				"transaction_id", transactionID.String(),
				"error", err,
			)
		}
		return RoleNone
	}

	switch callerID {
	case txn.ClientID:
		return RoleClient
	case txn.CompanyUserID:
		return RoleCompany
	default:
		return RoleNone
	}
}

func (s *Service) cacheRole(ctx context.Context, transactionID id.TransactionID, callerID id.UserID, role Role) {
	if s.cache != nil {
		s.cache.Set(ctx, transactionID, callerID, role)
	}
}
