package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-ledger/core"
)

const ErrorThrottled = "LEDGER_RELAY_THROTTLED"

var ErrStateNotFound = errors.New("ratelimit: state not found")

// Key identifies a throttle bucket: one signer within one nonce namespace.
type Key struct {
	Signer    core.Address
	Namespace core.NonceNamespace
}

func (k Key) String() string {
	return strings.ToLower(k.Signer.Hex()) + "|" + strings.ToLower(strings.TrimSpace(string(k.Namespace)))
}

type State struct {
	Key            Key
	Limit          int
	Remaining      int
	ResetAt        *time.Time
	ThrottledUntil *time.Time
	Rejections     int
	LastOutcome    string
	UpdatedAt      time.Time
}

type StateStore interface {
	Get(ctx context.Context, key Key) (State, error)
	Upsert(ctx context.Context, state State) error
}

type ThrottledError struct {
	Key        Key
	RetryAfter time.Duration
}

func (e ThrottledError) Error() string {
	return fmt.Sprintf(
		"ratelimit: signer %s namespace %q throttled for %s",
		e.Key.Signer.Hex(),
		strings.TrimSpace(string(e.Key.Namespace)),
		e.RetryAfter,
	)
}

func (e ThrottledError) ToLedgerError() *goerrors.Error {
	metadata := map[string]any{
		"signer":    e.Key.Signer.Hex(),
		"namespace": strings.TrimSpace(string(e.Key.Namespace)),
	}
	if e.RetryAfter > 0 {
		metadata["retry_after_ms"] = e.RetryAfter.Milliseconds()
	}
	return core.TagErrorCode(goerrors.New(e.Error(), goerrors.CategoryRateLimit).
		WithCode(http.StatusTooManyRequests).
		WithTextCode(ErrorThrottled).
		WithMetadata(metadata))
}

// AdaptivePolicy gates relay submissions per signer. Each bucket admits Limit
// submissions per Window, and every ledger rejection of a relayed operation
// pushes the signer into an exponential backoff that clears on the next
// accepted operation.
type AdaptivePolicy struct {
	Store          StateStore
	Now            func() time.Time
	Limit          int
	Window         time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func NewAdaptivePolicy(store StateStore) *AdaptivePolicy {
	return &AdaptivePolicy{
		Store:          store,
		Now:            func() time.Time { return time.Now().UTC() },
		Limit:          30,
		Window:         time.Minute,
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
	}
}

// BeforeSubmit consumes one slot of the signer's quota or returns a
// ThrottledError rich error.
func (p *AdaptivePolicy) BeforeSubmit(ctx context.Context, signer core.Address, namespace core.NonceNamespace) error {
	if p == nil || p.Store == nil {
		return nil
	}
	key := normalizeKey(Key{Signer: signer, Namespace: namespace})
	now := p.now()
	state, err := p.Store.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrStateNotFound) {
		return err
	}
	if errors.Is(err, ErrStateNotFound) {
		state = State{Key: key}
	}

	if until := state.ThrottledUntil; until != nil && now.Before(*until) {
		return ThrottledError{Key: key, RetryAfter: until.Sub(now)}.ToLedgerError()
	}
	if p.Limit > 0 {
		if state.ResetAt == nil || !now.Before(*state.ResetAt) {
			resetAt := now.Add(p.window())
			state.ResetAt = &resetAt
			state.Limit = p.Limit
			state.Remaining = p.Limit
		}
		if state.Remaining <= 0 {
			return ThrottledError{Key: key, RetryAfter: state.ResetAt.Sub(now)}.ToLedgerError()
		}
		state.Remaining--
	}
	state.UpdatedAt = now
	return p.Store.Upsert(ctx, state)
}

// RecordOutcome feeds a settled relay job back into the signer's bucket.
// Only terminal rejections count against the signer; transient failures are
// the relay's problem, not the signer's.
func (p *AdaptivePolicy) RecordOutcome(ctx context.Context, signer core.Address, namespace core.NonceNamespace, cause error, terminal bool) error {
	if p == nil || p.Store == nil {
		return nil
	}
	if cause != nil && !terminal {
		return nil
	}
	key := normalizeKey(Key{Signer: signer, Namespace: namespace})
	now := p.now()
	state, err := p.Store.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrStateNotFound) {
		return err
	}
	if errors.Is(err, ErrStateNotFound) {
		state = State{Key: key}
	}
	state.UpdatedAt = now

	if cause == nil {
		state.Rejections = 0
		state.ThrottledUntil = nil
		state.LastOutcome = "accepted"
		return p.Store.Upsert(ctx, state)
	}

	state.Rejections++
	state.LastOutcome = strings.TrimSpace(cause.Error())
	until := now.Add(p.nextBackoff(state.Rejections))
	state.ThrottledUntil = &until
	return p.Store.Upsert(ctx, state)
}

func (p *AdaptivePolicy) now() time.Time {
	if p != nil && p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *AdaptivePolicy) window() time.Duration {
	if p.Window > 0 {
		return p.Window
	}
	return time.Minute
}

func (p *AdaptivePolicy) nextBackoff(attempt int) time.Duration {
	initial := p.InitialBackoff
	if initial <= 0 {
		initial = time.Second
	}
	maximum := p.MaxBackoff
	if maximum <= 0 {
		maximum = time.Minute
	}
	if attempt <= 0 {
		return initial
	}
	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maximum {
			return maximum
		}
	}
	if delay > maximum {
		return maximum
	}
	return delay
}

func normalizeKey(key Key) Key {
	return Key{
		Signer:    key.Signer,
		Namespace: core.NonceNamespace(strings.TrimSpace(strings.ToLower(string(key.Namespace)))),
	}
}

type MemoryStateStore struct {
	mu    sync.RWMutex
	items map[string]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{items: map[string]State{}}
}

func (s *MemoryStateStore) Get(_ context.Context, key Key) (State, error) {
	if s == nil {
		return State{}, fmt.Errorf("ratelimit: state store is nil")
	}
	normalized := normalizeKey(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.items[normalized.String()]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return state, nil
}

func (s *MemoryStateStore) Upsert(_ context.Context, state State) error {
	if s == nil {
		return fmt.Errorf("ratelimit: state store is nil")
	}
	state.Key = normalizeKey(state.Key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[state.Key.String()] = state
	return nil
}
