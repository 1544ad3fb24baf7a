package gojob

import (
	"testing"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-ledger/core"
)

func TestJobIDFor_CoversEverySignedOperation(t *testing.T) {
	cases := map[core.SignedOperation]string{
		core.SignedTransfer: JobIDRelayTransfer,
		core.SignedReserve:  JobIDRelayReserve,
		core.SignedMint:     JobIDRelayMint,
		core.SignedBurn:     JobIDRelayBurn,
	}
	for op, want := range cases {
		if got := JobIDFor(op); got != want {
			t.Fatalf("%s: expected %s, got %s", op, want, got)
		}
		back, ok := OperationFor(" " + want + " ")
		if !ok || back != op {
			t.Fatalf("%s: expected reverse lookup, got %s %v", want, back, ok)
		}
	}
	if got := JobIDFor("unknown"); got != JobIDRelayTransfer {
		t.Fatalf("expected transfer fallback, got %s", got)
	}
	if IsRelayJob("billing.invoice") {
		t.Fatalf("expected foreign job id to be rejected")
	}
}

func TestExecutionMessageMapping(t *testing.T) {
	original := &core.JobExecutionMessage{
		JobID:          JobIDRelayTransfer,
		Parameters:     map[string]any{"owner": "0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0", "amount": "100"},
		IdempotencyKey: " 0xffcf8fdee72ac11b5c542428b35eef5769c409f0:transfer:1 ",
		DedupPolicy:    "drop",
	}

	converted := ToExecutionMessage(original)
	if converted.ScriptPath != JobIDRelayTransfer {
		t.Fatalf("expected script path to default to job id, got %q", converted.ScriptPath)
	}
	if converted.DedupPolicy != job.DeduplicationPolicy("drop") {
		t.Fatalf("expected dedup policy to map, got %q", converted.DedupPolicy)
	}

	back := FromExecutionMessage(converted)
	if back.IdempotencyKey != "0xffcf8fdee72ac11b5c542428b35eef5769c409f0:transfer:1" {
		t.Fatalf("expected trimmed idempotency key, got %q", back.IdempotencyKey)
	}
	if back.Parameters["amount"] != "100" {
		t.Fatalf("expected parameters to survive mapping")
	}

	original.Parameters["amount"] = "999"
	if converted.Parameters["amount"] != "100" {
		t.Fatalf("expected mapped parameters to be copied")
	}
	if ToExecutionMessage(nil) != nil || FromExecutionMessage(nil) != nil {
		t.Fatalf("expected nil messages to map to nil")
	}
}
