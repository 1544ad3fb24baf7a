package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

type hookStage int

const (
	stagePreCommit hookStage = iota
	stagePostCommit
)

func (s hookStage) String() string {
	if s == stagePreCommit {
		return "pre-commit"
	}
	return "post-commit"
}

type hookRegistration struct {
	id         uint64
	stage      hookStage
	hook       CommitHook
	operations []string
}

func (r hookRegistration) matches(changes ChangeSet) bool {
	return len(r.operations) == 0 || slices.Contains(r.operations, normalizeOperation(changes.Operation))
}

// CommitHookCoordinator runs hooks around every ledger commit. Pre-commit
// hooks see the staged change set and can veto it; post-commit hooks see the
// applied change set and cannot.
type CommitHookCoordinator struct {
	mu     sync.RWMutex
	nextID uint64
	hooks  []hookRegistration
}

func NewCommitHookCoordinator() *CommitHookCoordinator {
	return &CommitHookCoordinator{}
}

// RegisterPreCommit adds a veto hook. When operations are given the hook
// only runs for change sets produced by those operations. The returned func
// removes the hook. Veto hooks run under the ledger write lock and must not
// call Ledger methods.
func (c *CommitHookCoordinator) RegisterPreCommit(hook CommitHook, operations ...string) func() {
	return c.register(stagePreCommit, hook, operations)
}

// RegisterPostCommit adds a hook that runs after state is applied.
func (c *CommitHookCoordinator) RegisterPostCommit(hook CommitHook, operations ...string) func() {
	return c.register(stagePostCommit, hook, operations)
}

func (c *CommitHookCoordinator) register(stage hookStage, hook CommitHook, operations []string) func() {
	if c == nil || hook == nil {
		return func() {}
	}
	filter := make([]string, 0, len(operations))
	for _, op := range operations {
		if normalized := normalizeOperation(op); normalized != "" {
			filter = append(filter, normalized)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.hooks = append(c.hooks, hookRegistration{id: id, stage: stage, hook: hook, operations: filter})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.hooks = slices.DeleteFunc(c.hooks, func(r hookRegistration) bool { return r.id == id })
		})
	}
}

// ExecutePreCommit stops at the first failing hook.
func (c *CommitHookCoordinator) ExecutePreCommit(ctx context.Context, changes ChangeSet) error {
	for _, reg := range c.matching(stagePreCommit, changes) {
		if err := reg.hook.OnCommit(ctx, changes); err != nil {
			return hookError(reg, changes, err)
		}
	}
	return nil
}

// ExecutePostCommit runs every matching hook and joins their errors.
func (c *CommitHookCoordinator) ExecutePostCommit(ctx context.Context, changes ChangeSet) error {
	var errs []error
	for _, reg := range c.matching(stagePostCommit, changes) {
		if err := reg.hook.OnCommit(ctx, changes); err != nil {
			errs = append(errs, hookError(reg, changes, err))
		}
	}
	return errors.Join(errs...)
}

// Len reports how many hooks are registered for both stages.
func (c *CommitHookCoordinator) Len() (pre, post int) {
	if c == nil {
		return 0, 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, reg := range c.hooks {
		if reg.stage == stagePreCommit {
			pre++
		} else {
			post++
		}
	}
	return pre, post
}

func (c *CommitHookCoordinator) matching(stage hookStage, changes ChangeSet) []hookRegistration {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]hookRegistration, 0, len(c.hooks))
	for _, reg := range c.hooks {
		if reg.stage == stage && reg.matches(changes) {
			out = append(out, reg)
		}
	}
	return out
}

func hookError(reg hookRegistration, changes ChangeSet, err error) error {
	name := strings.TrimSpace(reg.hook.Name())
	if name == "" {
		name = "unnamed"
	}
	return fmt.Errorf("core: %s hook %q failed on %s #%d: %w", reg.stage, name, changes.Operation, changes.Sequence, err)
}
