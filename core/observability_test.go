package core

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: maps.Clone(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: maps.Clone(tags)})
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFieldMap(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFieldMap(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFieldMap(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func cloneFieldMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}

func TestLedgerObservability_MintApplied(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	f := newLedgerFixture(t, nil,
		WithMetricsRecorder(metrics),
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
	)

	if _, err := f.ledger.Mint(context.Background(), f.admin.addr, f.admin.addr, amt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	counter, ok := findCounter(metrics.counters, "ledger.mint.total", outcomeApplied)
	if !ok {
		t.Fatalf("expected ledger.mint.total applied counter, got %+v", metrics.counters)
	}
	if counter.tags["family"] != "supply" {
		t.Fatalf("expected supply family tag, got %q", counter.tags["family"])
	}
	if !hasHistogram(metrics.histograms, "ledger.mint.duration_ms", outcomeApplied) {
		t.Fatalf("expected ledger.mint.duration_ms histogram")
	}
	entry, ok := findLog(logger.snapshot(), "info", "mint applied")
	if !ok || entry.fields["amount"] != "10" {
		t.Fatalf("expected mint applied log with amount, got %+v", entry)
	}
}

func TestLedgerObservability_BusinessRejectionLogsWarn(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	f := newLedgerFixture(t, nil,
		WithMetricsRecorder(metrics),
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
	)

	if _, err := f.ledger.Execute(context.Background(), f.admin.addr, f.admin.addr, amt(1)); err == nil {
		t.Fatalf("expected execute error for missing reservation")
	}
	counter, ok := findCounter(metrics.counters, "ledger.execute.total", outcomeRejected)
	if !ok {
		t.Fatalf("expected execute rejected counter, got %+v", metrics.counters)
	}
	if counter.tags["family"] != "reservation" || counter.tags["error_text_code"] == "" {
		t.Fatalf("expected family and text code tags, got %+v", counter.tags)
	}
	if _, ok := findLog(logger.snapshot(), "warn", "execute rejected"); !ok {
		t.Fatalf("expected execute rejection warning")
	}
}

func TestLedgerObservability_FaultsLogErrorWithEnvelope(t *testing.T) {
	logger := newCaptureLogger()
	metrics := &captureMetricsRecorder{}
	f := newLedgerFixture(t, nil,
		WithMetricsRecorder(metrics),
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
	)

	richErr := goerrors.New("custodian timeout", goerrors.CategoryExternal).
		WithCode(502).
		WithTextCode(LedgerErrorCustodyFailed).
		WithSeverity(goerrors.SeverityCritical).
		WithMetadata(map[string]any{"operation": "release"})
	f.ledger.observeOperation(
		context.Background(),
		time.Now().UTC().Add(-100*time.Millisecond),
		"Wrapper-Burn",
		richErr,
		map[string]any{"caller": "0x01"},
	)

	last, ok := findLog(logger.snapshot(), "error", "wrapper_burn faulted")
	if !ok {
		t.Fatalf("expected wrapper_burn faulted log")
	}
	if last.fields["error_category"] != "external" {
		t.Fatalf("expected error_category external, got %#v", last.fields["error_category"])
	}
	if last.fields["error_text_code"] != LedgerErrorCustodyFailed {
		t.Fatalf("expected error_text_code %q, got %#v", LedgerErrorCustodyFailed, last.fields["error_text_code"])
	}
	if last.fields["error_severity"] != goerrors.SeverityCritical.String() {
		t.Fatalf("expected critical severity, got %#v", last.fields["error_severity"])
	}
	metadata, ok := last.fields["error_metadata"].(map[string]any)
	if !ok || metadata["operation"] != "release" {
		t.Fatalf("expected error_metadata map, got %#v", last.fields["error_metadata"])
	}
	if _, ok := findCounter(metrics.counters, "ledger.wrapper_burn.total", outcomeFaulted); !ok {
		t.Fatalf("expected faulted counter")
	}
}

func TestOutcomeOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, outcomeApplied},
		{"plain error", errors.New("disk full"), outcomeFaulted},
		{"bad input", badInputError("core: bad", nil), outcomeRejected},
		{"internal", goerrors.New("boom", goerrors.CategoryInternal), outcomeFaulted},
	}
	for _, tc := range cases {
		if got := outcomeOf(tc.err); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func findCounter(items []capturedCounter, name string, outcome string) (capturedCounter, bool) {
	for _, item := range items {
		if item.name == name && item.tags["outcome"] == outcome {
			return item, true
		}
	}
	return capturedCounter{}, false
}

func hasHistogram(items []capturedHistogram, name string, outcome string) bool {
	for _, item := range items {
		if item.name == name && item.tags["outcome"] == outcome {
			return true
		}
	}
	return false
}

func findLog(items []capturedLog, level string, message string) (capturedLog, bool) {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].level == level && items[i].msg == message {
			return items[i], true
		}
	}
	return capturedLog{}, false
}
