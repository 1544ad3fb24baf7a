package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-ledger/adapters/gojob"
	"github.com/goliatone/go-ledger/adapters/gologger"
	"github.com/goliatone/go-ledger/core"
)

const defaultPollInterval = 250 * time.Millisecond

// Service is the ledger surface a relay worker applies operations to.
type Service interface {
	Reserve(ctx context.Context, req core.ReserveRequest) (core.Reservation, error)
	MetaTransfer(ctx context.Context, req core.MetaTransferRequest) (core.Receipt, error)
	MetaMint(ctx context.Context, req core.MetaMintRequest) (core.Receipt, error)
	MetaBurn(ctx context.Context, req core.MetaBurnRequest) (core.Receipt, error)
}

type WorkerOption func(*Worker)

func WithRetryPolicy(policy gojob.RetryPolicy) WorkerOption {
	return func(w *Worker) {
		w.policy = policy
	}
}

func WithWorkerLogger(provider core.LoggerProvider, logger core.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = gologger.Component("relay.worker", provider, logger)
	}
}

func WithWorkerHook(hook core.JobWorkerHook) WorkerOption {
	return func(w *Worker) {
		w.hook = hook
	}
}

func WithWorkerThrottle(throttle Throttle) WorkerOption {
	return func(w *Worker) {
		w.throttle = throttle
	}
}

// WithSettler reports applied and dead-lettered jobs, usually to the
// Submitter that enqueued them.
func WithSettler(settler Settler) WorkerOption {
	return func(w *Worker) {
		w.settler = settler
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) WorkerOption {
	return func(w *Worker) {
		if recorder != nil {
			w.metrics = recorder
		}
	}
}

func WithPollInterval(interval time.Duration) WorkerOption {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

func WithWorkerClock(now func() time.Time) WorkerOption {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// Worker drains relay jobs and applies them as the configured relayer.
type Worker struct {
	dequeuer     core.JobDequeuer
	service      Service
	relayer      core.Address
	policy       gojob.RetryPolicy
	logger       core.Logger
	hook         core.JobWorkerHook
	throttle     Throttle
	settler      Settler
	metrics      core.MetricsRecorder
	pollInterval time.Duration
	now          func() time.Time

	mu       sync.Mutex
	attempts map[string]int
}

func NewWorker(dequeuer core.JobDequeuer, service Service, relayer core.Address, opts ...WorkerOption) (*Worker, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("relay: dequeuer is required")
	}
	if service == nil {
		return nil, fmt.Errorf("relay: ledger service is required")
	}
	if relayer == core.ZeroAddress {
		return nil, fmt.Errorf("relay: relayer address is required")
	}
	w := &Worker{
		dequeuer:     dequeuer,
		service:      service,
		relayer:      relayer,
		policy:       gojob.DefaultRetryPolicy(),
		metrics:      core.NopMetricsRecorder{},
		pollInterval: defaultPollInterval,
		now:          time.Now,
		attempts:     map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	if w.logger == nil {
		w.logger = gologger.Component("relay.worker", nil, nil)
	}
	return w, nil
}

// RunOnce processes at most one delivery. It reports whether a delivery was
// handled; the error is reserved for queue failures, job failures are
// settled through nack.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if delivery == nil {
		return false, nil
	}
	msg := delivery.Message()
	key := attemptKey(msg)
	attempt := w.nextAttempt(key)
	event := core.JobWorkerEvent{Message: msg, Attempt: attempt, StartedAt: w.now()}
	w.onStart(ctx, event)

	op, jobErr := DecodeOperation(msg)
	decoded := jobErr == nil
	if decoded {
		jobErr = w.apply(ctx, op)
	}
	event.Duration = w.now().Sub(event.StartedAt)
	if jobErr == nil {
		w.forget(key)
		w.recordOutcome(ctx, op, nil, false)
		if err := delivery.Ack(ctx); err != nil {
			return true, err
		}
		w.settle(key, true)
		w.record(ctx, msg, "success")
		w.onSuccess(ctx, event)
		w.logger.Info("relay job applied", "job_id", jobID(msg), "idempotency_key", key, "attempt", attempt)
		return true, nil
	}

	event.Err = jobErr
	terminal := IsTerminal(jobErr)
	if decoded {
		w.recordOutcome(ctx, op, jobErr, terminal)
	}
	nack := w.policy.FailureNack(jobErr, attempt, terminal)
	event.Delay = nack.Delay
	if nack.DeadLetter {
		w.forget(key)
	}
	if err := delivery.Nack(ctx, nack); err != nil {
		return true, err
	}
	if nack.Requeue {
		w.record(ctx, msg, "retry")
		w.onRetry(ctx, event)
		w.logger.Warn("relay job requeued", "job_id", jobID(msg), "idempotency_key", key, "attempt", attempt, "delay_ms", nack.Delay.Milliseconds(), "error", jobErr)
	} else {
		w.settle(key, false)
		w.record(ctx, msg, "dead_letter")
		w.onFailure(ctx, event)
		w.logger.Error("relay job dead-lettered", "job_id", jobID(msg), "idempotency_key", key, "attempt", attempt, "error", jobErr)
	}
	return true, nil
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		processed, err := w.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("relay queue failure", "error", err)
		}
		if processed && err == nil {
			continue
		}
		timer := time.NewTimer(w.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (w *Worker) apply(ctx context.Context, op Operation) error {
	var err error
	switch op.Kind {
	case core.SignedTransfer:
		_, err = w.service.MetaTransfer(ctx, core.MetaTransferRequest{
			Submitter: w.relayer,
			Owner:     op.Owner,
			Recipient: op.Recipient,
			Amount:    op.Amount,
			Fee:       op.Fee,
			Nonce:     op.Nonce,
			Signature: op.Signature,
		})
	case core.SignedReserve:
		_, err = w.service.Reserve(ctx, core.ReserveRequest{
			Owner:        op.Owner,
			Recipient:    op.Recipient,
			Executor:     op.Executor,
			Amount:       op.Amount,
			Fee:          op.Fee,
			Nonce:        op.Nonce,
			ExpiryHeight: op.ExpiryHeight,
			Signature:    op.Signature,
		})
	case core.SignedMint:
		_, err = w.service.MetaMint(ctx, core.MetaMintRequest{
			Submitter: w.relayer,
			Owner:     op.Owner,
			Amount:    op.Amount,
			Fee:       op.Fee,
			Nonce:     op.Nonce,
			Signature: op.Signature,
		})
	case core.SignedBurn:
		_, err = w.service.MetaBurn(ctx, core.MetaBurnRequest{
			Submitter: w.relayer,
			Owner:     op.Owner,
			Amount:    op.Amount,
			Fee:       op.Fee,
			Nonce:     op.Nonce,
			Signature: op.Signature,
		})
	default:
		err = relayValidationError(paramOperation, fmt.Sprintf("operation %q is not relayable", op.Kind))
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("relay: apply interrupted: %w", err)
	}
	return err
}

func (w *Worker) recordOutcome(ctx context.Context, op Operation, cause error, terminal bool) {
	if w.throttle == nil {
		return
	}
	if err := w.throttle.RecordOutcome(ctx, op.Owner, op.Kind.Namespace(), cause, terminal); err != nil {
		w.logger.Warn("relay throttle update failed", "owner", op.Owner.Hex(), "error", err)
	}
}

func (w *Worker) settle(key string, applied bool) {
	if w.settler != nil {
		w.settler.Settle(key, applied)
	}
}

func (w *Worker) nextAttempt(key string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts[key]++
	return w.attempts[key]
}

func (w *Worker) forget(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.attempts, key)
}

func (w *Worker) record(ctx context.Context, msg *core.JobExecutionMessage, status string) {
	w.metrics.IncCounter(ctx, "ledger.relay.jobs.total", 1, map[string]string{
		"job_id": jobID(msg),
		"status": status,
	})
}

func (w *Worker) onStart(ctx context.Context, event core.JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnStart(ctx, event)
	}
}

func (w *Worker) onSuccess(ctx context.Context, event core.JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnSuccess(ctx, event)
	}
}

func (w *Worker) onFailure(ctx context.Context, event core.JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnFailure(ctx, event)
	}
}

func (w *Worker) onRetry(ctx context.Context, event core.JobWorkerEvent) {
	if w.hook != nil {
		w.hook.OnRetry(ctx, event)
	}
}

func attemptKey(msg *core.JobExecutionMessage) string {
	if msg == nil {
		return ""
	}
	if msg.IdempotencyKey != "" {
		return msg.IdempotencyKey
	}
	return msg.JobID
}

func jobID(msg *core.JobExecutionMessage) string {
	if msg == nil {
		return ""
	}
	return msg.JobID
}
