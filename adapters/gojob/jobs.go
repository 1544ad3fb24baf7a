package gojob

import (
	"strings"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-ledger/core"
)

const (
	JobIDRelayTransfer = "ledger.relay.transfer"
	JobIDRelayReserve  = "ledger.relay.reserve"
	JobIDRelayMint     = "ledger.relay.mint"
	JobIDRelayBurn     = "ledger.relay.burn"
)

var relayJobs = map[string]core.SignedOperation{
	JobIDRelayTransfer: core.SignedTransfer,
	JobIDRelayReserve:  core.SignedReserve,
	JobIDRelayMint:     core.SignedMint,
	JobIDRelayBurn:     core.SignedBurn,
}

// JobIDFor returns the queue job id that carries a signed operation.
// Unknown operations fall back to the transfer job.
func JobIDFor(op core.SignedOperation) string {
	for id, candidate := range relayJobs {
		if candidate == op {
			return id
		}
	}
	return JobIDRelayTransfer
}

// OperationFor reports which signed operation a relay job carries.
func OperationFor(jobID string) (core.SignedOperation, bool) {
	op, ok := relayJobs[strings.TrimSpace(jobID)]
	return op, ok
}

func IsRelayJob(jobID string) bool {
	_, ok := OperationFor(jobID)
	return ok
}

// ToExecutionMessage maps a relay message onto go-job. ScriptPath defaults to
// the job id since relay jobs are dispatched by id, not by script.
func ToExecutionMessage(msg *core.JobExecutionMessage) *job.ExecutionMessage {
	if msg == nil {
		return nil
	}
	jobID := strings.TrimSpace(msg.JobID)
	script := strings.TrimSpace(msg.ScriptPath)
	if script == "" {
		script = jobID
	}
	return &job.ExecutionMessage{
		JobID:          jobID,
		ScriptPath:     script,
		Parameters:     cloneParams(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    job.DeduplicationPolicy(strings.TrimSpace(msg.DedupPolicy)),
	}
}

func FromExecutionMessage(msg *job.ExecutionMessage) *core.JobExecutionMessage {
	if msg == nil {
		return nil
	}
	return &core.JobExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		ScriptPath:     strings.TrimSpace(msg.ScriptPath),
		Parameters:     cloneParams(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    strings.TrimSpace(string(msg.DedupPolicy)),
	}
}

func cloneParams(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
