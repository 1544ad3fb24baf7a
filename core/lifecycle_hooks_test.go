package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func recordingHook(name string, calls *[]string, err error) CommitHookFunc {
	return CommitHookFunc{
		HookName: name,
		Fn: func(context.Context, ChangeSet) error {
			*calls = append(*calls, name)
			return err
		},
	}
}

func TestCommitHookCoordinator_PreCommitStopsAtFirstVeto(t *testing.T) {
	coordinator := NewCommitHookCoordinator()
	var calls []string
	coordinator.RegisterPreCommit(recordingHook("first", &calls, nil))
	coordinator.RegisterPreCommit(recordingHook("second", &calls, errors.New("fail")))
	coordinator.RegisterPreCommit(recordingHook("third", &calls, nil))

	err := coordinator.ExecutePreCommit(context.Background(), ChangeSet{Sequence: 1, Operation: "mint"})
	if err == nil || !strings.Contains(err.Error(), `pre-commit hook "second" failed on mint #1`) {
		t.Fatalf("expected named pre-commit failure, got %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected the veto to stop the chain after 2 calls, got %v", calls)
	}
}

func TestCommitHookCoordinator_PostCommitJoinsErrors(t *testing.T) {
	coordinator := NewCommitHookCoordinator()
	var calls []string
	coordinator.RegisterPostCommit(recordingHook("one", &calls, errors.New("boom-1")))
	coordinator.RegisterPostCommit(recordingHook("two", &calls, nil))
	coordinator.RegisterPostCommit(recordingHook("", &calls, errors.New("boom-3")))

	err := coordinator.ExecutePostCommit(context.Background(), ChangeSet{Sequence: 2, Operation: "transfer"})
	if err == nil {
		t.Fatalf("expected joined post-commit error")
	}
	if !strings.Contains(err.Error(), "boom-1") || !strings.Contains(err.Error(), `"unnamed"`) {
		t.Fatalf("expected both failures reported, got %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("expected every post-commit hook to run, got %v", calls)
	}
}

func TestCommitHookCoordinator_OperationFilter(t *testing.T) {
	coordinator := NewCommitHookCoordinator()
	var calls []string
	coordinator.RegisterPostCommit(recordingHook("supply", &calls, nil), "Mint", "burn")
	coordinator.RegisterPostCommit(recordingHook("all", &calls, nil))

	_ = coordinator.ExecutePostCommit(context.Background(), ChangeSet{Operation: "transfer"})
	_ = coordinator.ExecutePostCommit(context.Background(), ChangeSet{Operation: "mint"})

	want := []string{"all", "supply", "all"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, calls)
	}
}

func TestCommitHookCoordinator_Unregister(t *testing.T) {
	coordinator := NewCommitHookCoordinator()
	var calls []string
	remove := coordinator.RegisterPreCommit(recordingHook("gone", &calls, errors.New("veto")))
	coordinator.RegisterPostCommit(recordingHook("kept", &calls, nil))
	if pre, post := coordinator.Len(); pre != 1 || post != 1 {
		t.Fatalf("expected one hook per stage, got %d/%d", pre, post)
	}

	remove()
	remove()
	if err := coordinator.ExecutePreCommit(context.Background(), ChangeSet{Operation: "mint"}); err != nil {
		t.Fatalf("expected removed hook not to veto, got %v", err)
	}
	if pre, post := coordinator.Len(); pre != 0 || post != 1 {
		t.Fatalf("expected only the post-commit hook left, got %d/%d", pre, post)
	}
}

func TestCommitHookCoordinator_NilSafe(t *testing.T) {
	var coordinator *CommitHookCoordinator
	coordinator.RegisterPreCommit(CommitHookFunc{HookName: "ignored"})()
	if err := coordinator.ExecutePreCommit(context.Background(), ChangeSet{}); err != nil {
		t.Fatalf("expected nil coordinator to be a no-op, got %v", err)
	}
	if pre, post := coordinator.Len(); pre != 0 || post != 0 {
		t.Fatalf("expected nil coordinator to report no hooks")
	}
}
