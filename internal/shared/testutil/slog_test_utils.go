package testutil

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log call with its attributes flattened,
// including those bound with Logger.With
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// recorder is the storage shared by a handler and its derived handlers
type recorder struct {
	mu      sync.Mutex
	records []LogRecord
}

// RecordingHandler captures log records for assertions
type RecordingHandler struct {
	rec    *recorder
	bound  []slog.Attr
	prefix string
	t      testing.TB
}

// NewRecordingHandler creates a handler that captures every level and
// mirrors records to t.Logf
func NewRecordingHandler(t testing.TB) *RecordingHandler {
	return &RecordingHandler{rec: &recorder{}, t: t}
}

// NewTestLogger creates a logger backed by a recording handler
func NewTestLogger(t testing.TB) (*slog.Logger, *RecordingHandler) {
	h := NewRecordingHandler(t)
	return slog.New(h), h
}

// Enabled implements slog.Handler
func (h *RecordingHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler
func (h *RecordingHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.bound)+r.NumAttrs())
	for _, a := range h.bound {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.prefix+a.Key] = a.Value.Any()
		return true
	})

	h.rec.mu.Lock()
	h.rec.records = append(h.rec.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.rec.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

// WithAttrs implements slog.Handler
func (h *RecordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := slices.Clone(h.bound)
	for _, a := range attrs {
		bound = append(bound, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &RecordingHandler{rec: h.rec, bound: bound, prefix: h.prefix, t: h.t}
}

// WithGroup implements slog.Handler; group names become dotted key prefixes
func (h *RecordingHandler) WithGroup(name string) slog.Handler {
	return &RecordingHandler{rec: h.rec, bound: h.bound, prefix: h.prefix + name + ".", t: h.t}
}

// GetRecords returns a copy of every captured record
func (h *RecordingHandler) GetRecords() []LogRecord {
	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()
	return slices.Clone(h.rec.records)
}

// RecordsAt returns the records logged at level
func (h *RecordingHandler) RecordsAt(level slog.Level) []LogRecord {
	var out []LogRecord
	for _, r := range h.GetRecords() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the first record whose message contains message
func (h *RecordingHandler) Find(message string) (LogRecord, bool) {
	for _, r := range h.GetRecords() {
		if strings.Contains(r.Message, message) {
			return r, true
		}
	}
	return LogRecord{}, false
}

// AssertLogContains fails t unless a record at level contains message
func AssertLogContains(t testing.TB, h *RecordingHandler, level slog.Level, message string) {
	t.Helper()

	records := h.RecordsAt(level)
	for _, r := range records {
		if strings.Contains(r.Message, message) {
			return
		}
	}
	t.Errorf("no %s log containing %q", level, message)
	for _, r := range records {
		t.Logf("  got: %s", r.Message)
	}
}

// AssertLogAttr fails t unless some record carries key with value
func AssertLogAttr(t testing.TB, h *RecordingHandler, key string, value any) {
	t.Helper()

	for _, r := range h.GetRecords() {
		if v, ok := r.Attrs[key]; ok && v == value {
			return
		}
	}
	t.Errorf("no log with attribute %s=%v", key, value)
	for _, r := range h.GetRecords() {
		t.Logf("  got: %s %v", r.Message, r.Attrs)
	}
}

// AssertNoErrors fails t if anything was logged at error level
func AssertNoErrors(t testing.TB, h *RecordingHandler) {
	t.Helper()

	for _, r := range h.RecordsAt(slog.LevelError) {
		t.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
	}
}
