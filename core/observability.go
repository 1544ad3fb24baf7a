package core

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	outcomeApplied  = "applied"
	outcomeRejected = "rejected"
	outcomeFaulted  = "faulted"
)

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// operationFamily groups ledger operations for dashboards.
var operationFamily = map[string]string{
	"mint":          "supply",
	"burn":          "supply",
	"meta_mint":     "supply",
	"meta_burn":     "supply",
	"wrapper_mint":  "custody",
	"wrapper_burn":  "custody",
	"transfer":      "transfer",
	"transfer_from": "transfer",
	"meta_transfer": "transfer",
	"approve":       "allowance",
	"reserve":       "reservation",
	"execute":       "reservation",
	"reclaim":       "reservation",
	"grant_role":    "access",
	"revoke_role":   "access",
	"renounce_role": "access",
}

// outcomeOf separates rejections, where the ledger refused a well formed
// request for a business reason, from faults in the ledger or its storage.
func outcomeOf(err error) string {
	if err == nil {
		return outcomeApplied
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return outcomeFaulted
	}
	switch rich.Category {
	case goerrors.CategoryInternal, goerrors.CategoryExternal:
		return outcomeFaulted
	default:
		return outcomeRejected
	}
}

// observeOperation emits one structured log line and the
// ledger.<operation>.total and ledger.<operation>.duration_ms metrics for a
// finished ledger call.
func (l *Ledger) observeOperation(ctx context.Context, startedAt time.Time, operation string, err error, fields map[string]any) {
	if l == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	elapsed := time.Since(startedAt)
	outcome := outcomeOf(err)

	entry := maps.Clone(fields)
	if entry == nil {
		entry = map[string]any{}
	}
	entry["event_type"] = operation
	entry["outcome"] = outcome
	entry["duration_ms"] = elapsed.Milliseconds()

	tags := map[string]string{"operation": operation, "outcome": outcome}
	if family, ok := operationFamily[operation]; ok {
		tags["family"] = family
	}
	if err != nil {
		entry["error"] = err.Error()
		if code := describeError(entry, err); code != "" {
			tags["error_text_code"] = code
		}
	}

	if l.metricsRecorder != nil {
		l.metricsRecorder.IncCounter(ctx, "ledger."+operation+".total", 1, maps.Clone(tags))
		l.metricsRecorder.ObserveHistogram(ctx, "ledger."+operation+".duration_ms", float64(elapsed.Milliseconds()), maps.Clone(tags))
	}

	switch outcome {
	case outcomeApplied:
		l.logInfo(ctx, operation+" applied", entry)
	case outcomeRejected:
		l.logWarn(ctx, operation+" rejected", entry)
	default:
		l.logError(ctx, operation+" faulted", entry)
	}
}

func (l *Ledger) logInfo(ctx context.Context, message string, fields map[string]any) {
	if logger := l.loggerFor(ctx, fields); logger != nil {
		logger.Info(message, flattenFields(fields)...)
	}
}

func (l *Ledger) logWarn(ctx context.Context, message string, fields map[string]any) {
	if logger := l.loggerFor(ctx, fields); logger != nil {
		logger.Warn(message, flattenFields(fields)...)
	}
}

func (l *Ledger) logError(ctx context.Context, message string, fields map[string]any) {
	if logger := l.loggerFor(ctx, fields); logger != nil {
		logger.Error(message, flattenFields(fields)...)
	}
}

func (l *Ledger) loggerFor(ctx context.Context, fields map[string]any) Logger {
	if l == nil || l.logger == nil {
		return nil
	}
	logger := l.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if withFields, ok := logger.(FieldsLogger); ok {
		logger = withFields.WithFields(maps.Clone(fields))
	}
	return logger
}

// describeError copies the rich error envelope into fields and returns its
// text code.
func describeError(fields map[string]any, err error) string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return ""
	}
	fields["error_category"] = string(rich.Category)
	fields["error_severity"] = rich.Severity.String()
	if len(rich.Metadata) > 0 {
		fields["error_metadata"] = maps.Clone(rich.Metadata)
	}
	code := strings.TrimSpace(rich.TextCode)
	if code != "" {
		fields["error_text_code"] = code
	}
	return code
}

func flattenFields(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	return strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(operation)))
}
