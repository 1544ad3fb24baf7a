package relay

import (
	"context"
	"sync"

	"github.com/goliatone/go-ledger/adapters/gologger"
	"github.com/goliatone/go-ledger/core"
	"github.com/holiman/uint256"
)

// NonceChecker lets the submitter reject operations whose nonce the ledger
// has already consumed.
type NonceChecker interface {
	NonceUsed(signer core.Address, namespace core.NonceNamespace, nonce *uint256.Int) bool
}

// Throttle gates submissions per signer and learns from settled jobs.
type Throttle interface {
	BeforeSubmit(ctx context.Context, signer core.Address, namespace core.NonceNamespace) error
	RecordOutcome(ctx context.Context, signer core.Address, namespace core.NonceNamespace, cause error, terminal bool) error
}

// Settler is told when a relay job leaves the queue for good. applied is
// false for dead-lettered jobs, whose nonce the ledger never consumed.
type Settler interface {
	Settle(key string, applied bool)
}

type SubmitterOption func(*Submitter)

func WithNonceChecker(checker NonceChecker) SubmitterOption {
	return func(s *Submitter) {
		s.nonces = checker
	}
}

func WithSubmitterThrottle(throttle Throttle) SubmitterOption {
	return func(s *Submitter) {
		s.throttle = throttle
	}
}

func WithSubmitterLogger(provider core.LoggerProvider, logger core.Logger) SubmitterOption {
	return func(s *Submitter) {
		s.logger = gologger.Component("relay.submitter", provider, logger)
	}
}

// Submitter validates signed operations and enqueues them for a Worker.
// A key stays reserved while its job is queued. Settle frees it once the
// job is dead-lettered, or once it is applied when a NonceChecker guards
// replays. Without a NonceChecker applied keys stay reserved.
type Submitter struct {
	enqueuer core.JobEnqueuer
	nonces   NonceChecker
	throttle Throttle
	logger   core.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewSubmitter(enqueuer core.JobEnqueuer, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		enqueuer: enqueuer,
		seen:     map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = gologger.Component("relay.submitter", nil, nil)
	}
	return s
}

func (s *Submitter) Submit(ctx context.Context, op Operation) (*core.JobExecutionMessage, error) {
	if s == nil || s.enqueuer == nil {
		return nil, relayDependencyError("relay: enqueuer is required")
	}
	msg, err := op.Encode()
	if err != nil {
		return nil, err
	}
	key := msg.IdempotencyKey
	if s.nonces != nil && s.nonces.NonceUsed(op.Owner, op.Kind.Namespace(), op.Nonce) {
		return nil, relayNonceUsedError(key)
	}
	if !s.claim(key) {
		return nil, relayDuplicateError(key)
	}
	if s.throttle != nil {
		if err := s.throttle.BeforeSubmit(ctx, op.Owner, op.Kind.Namespace()); err != nil {
			s.release(key)
			s.logger.Warn("relay submission throttled", "job_id", msg.JobID, "idempotency_key", key, "error", err)
			return nil, err
		}
	}
	if err := s.enqueuer.Enqueue(ctx, msg); err != nil {
		s.release(key)
		s.logger.Error("relay enqueue failed", "job_id", msg.JobID, "idempotency_key", key, "error", err)
		return nil, err
	}
	s.logger.Info("relay operation enqueued", "job_id", msg.JobID, "idempotency_key", key)
	return msg, nil
}

func (s *Submitter) claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

func (s *Submitter) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, key)
}

// Settle releases the reservation held for key. Wire it to a Worker with
// WithSettler.
func (s *Submitter) Settle(key string, applied bool) {
	if s == nil || key == "" {
		return
	}
	if applied && s.nonces == nil {
		return
	}
	s.release(key)
	s.logger.Debug("relay key settled", "idempotency_key", key, "applied", applied)
}

// Pending reports how many idempotency keys are reserved.
func (s *Submitter) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
