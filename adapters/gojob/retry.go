package gojob

import (
	"strings"
	"time"

	"github.com/goliatone/go-ledger/core"
)

// RetryPolicy bounds how often a relay job is redelivered before it is
// dead-lettered.
type RetryPolicy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		BaseDelay:       time.Second,
		MaxDelay:        time.Minute,
		DeadLetterOnMax: true,
	}
}

// Backoff is BaseDelay doubled for every attempt after the first, capped at
// MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 || attempt <= 0 {
		return 0
	}
	delay := p.BaseDelay
	for n := attempt; n > 1; n-- {
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			break
		}
		delay *= 2
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

func (p RetryPolicy) exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt >= p.MaxAttempts
}

// Bound clamps a nack to the policy. A nack always either requeues or
// dead-letters, never both, and the attempt that reaches MaxAttempts stops
// requeueing.
func (p RetryPolicy) Bound(opts core.JobNackOptions, attempt int) core.JobNackOptions {
	opts.Reason = strings.TrimSpace(opts.Reason)
	opts.Delay = max(opts.Delay, 0)
	if p.MaxDelay > 0 {
		opts.Delay = min(opts.Delay, p.MaxDelay)
	}

	switch {
	case opts.DeadLetter:
		opts.Requeue = false
	case p.exhausted(attempt):
		opts.Requeue = false
		opts.DeadLetter = p.DeadLetterOnMax
		if !opts.DeadLetter {
			opts.Requeue = true
		}
	default:
		opts.Requeue = true
	}
	if opts.DeadLetter {
		opts.Delay = 0
	}
	return opts
}

// FailureNack builds the nack for a relay job that failed on attempt.
// Terminal ledger rejections dead-letter at once.
func (p RetryPolicy) FailureNack(err error, attempt int, terminal bool) core.JobNackOptions {
	reason := "relay job failed"
	if err != nil {
		reason = err.Error()
	}
	if terminal {
		return p.Bound(core.JobNackOptions{DeadLetter: true, Reason: reason}, attempt)
	}
	return p.Bound(core.JobNackOptions{Delay: p.Backoff(attempt), Requeue: true, Reason: reason}, attempt)
}
