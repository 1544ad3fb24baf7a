package gojob

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-ledger/core"
)

type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

// Enqueue only accepts relay jobs; anything else belongs on another queue.
func (a *EnqueuerAdapter) Enqueue(ctx context.Context, msg *core.JobExecutionMessage) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if msg == nil {
		return fmt.Errorf("gojob: execution message is required")
	}
	if !IsRelayJob(msg.JobID) {
		return fmt.Errorf("gojob: %q is not a relay job", msg.JobID)
	}
	return a.enqueuer.Enqueue(ctx, ToExecutionMessage(msg))
}

// DequeuerAdapter counts redeliveries per idempotency key so nacks are
// bounded by the retry policy even when the queue does not track attempts.
type DequeuerAdapter struct {
	dequeuer queue.Dequeuer
	policy   RetryPolicy

	mu         sync.Mutex
	deliveries map[string]int
}

func NewDequeuerAdapter(dequeuer queue.Dequeuer, policy RetryPolicy) *DequeuerAdapter {
	return &DequeuerAdapter{
		dequeuer:   dequeuer,
		policy:     policy,
		deliveries: map[string]int{},
	}
}

func (a *DequeuerAdapter) Dequeue(ctx context.Context) (core.JobDelivery, error) {
	if a == nil || a.dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := a.dequeuer.Dequeue(ctx)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, nil
	}
	msg := FromExecutionMessage(delivery.Message())
	key := ""
	if msg != nil {
		key = msg.IdempotencyKey
	}
	return &DeliveryAdapter{
		owner:    a,
		delivery: delivery,
		message:  msg,
		key:      key,
		attempt:  a.track(key),
	}, nil
}

// Attempts reports how many times the job with key has been handed out
// without being acked or dead-lettered.
func (a *DequeuerAdapter) Attempts(key string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.deliveries[key]
}

func (a *DequeuerAdapter) track(key string) int {
	if key == "" {
		return 1
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deliveries[key]++
	return a.deliveries[key]
}

func (a *DequeuerAdapter) settle(key string) {
	if key == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.deliveries, key)
}

type DeliveryAdapter struct {
	owner    *DequeuerAdapter
	delivery queue.Delivery
	message  *core.JobExecutionMessage
	key      string
	attempt  int
}

func (d *DeliveryAdapter) Message() *core.JobExecutionMessage {
	if d == nil {
		return nil
	}
	return d.message
}

// Attempt is the 1-based delivery count for this job.
func (d *DeliveryAdapter) Attempt() int {
	if d == nil {
		return 0
	}
	return d.attempt
}

func (d *DeliveryAdapter) Ack(ctx context.Context) error {
	if d == nil || d.delivery == nil {
		return fmt.Errorf("gojob: delivery is not configured")
	}
	if err := d.delivery.Ack(ctx); err != nil {
		return err
	}
	d.owner.settle(d.key)
	return nil
}

func (d *DeliveryAdapter) Nack(ctx context.Context, opts core.JobNackOptions) error {
	if d == nil || d.delivery == nil {
		return fmt.Errorf("gojob: delivery is not configured")
	}
	bounded := d.owner.policy.Bound(opts, d.attempt)
	err := d.delivery.Nack(ctx, queue.NackOptions{
		Delay:      bounded.Delay,
		Requeue:    bounded.Requeue,
		DeadLetter: bounded.DeadLetter,
		Reason:     bounded.Reason,
	})
	if err == nil && bounded.DeadLetter {
		d.owner.settle(d.key)
	}
	return err
}

var (
	_ core.JobEnqueuer = (*EnqueuerAdapter)(nil)
	_ core.JobDelivery = (*DeliveryAdapter)(nil)
	_ core.JobDequeuer = (*DequeuerAdapter)(nil)
)
