package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"mlxcli/internal/config"
)

// InitializeLogger builds the logger for cfg, writing console output to
// console, and installs it as the slog default. The returned func closes the
// log file, if one was opened.
func InitializeLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, func() error, error) {
	logger, file, err := NewLogger(cfg, console)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)

	closeFn := func() error { return nil }
	if file != nil {
		closeFn = file.Close
	}
	return logger, closeFn, nil
}

// GetLogger returns the process logger
func GetLogger() *slog.Logger {
	return slog.Default()
}

// NewLogger builds a logger for cfg writing console output to console. The
// returned file is the opened log file, if any; the caller closes it.
func NewLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, *os.File, error) {
	level := ParseLogLevel(cfg.Level)

	var (
		handlers []slog.Handler
		file     *os.File
	)

	output := strings.ToLower(cfg.Output)
	if output == "file" || output == "both" {
		f, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		file = f
		// Log files are always JSON
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{AddSource: true, Level: level}))
	}
	if output != "file" {
		handlers = append(handlers, newConsoleHandler(console, cfg.Format, level))
	}

	var handler slog.Handler = handlers[0]
	if len(handlers) > 1 {
		handler = fanoutHandler(handlers)
	}
	return slog.New(&traceHandler{Handler: handler}), file, nil
}

// newConsoleHandler returns a JSON handler, or a tint handler for the text
// format with colour only when w is a terminal
func newConsoleHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	if strings.ToLower(format) != "text" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(w) || runtime.GOOS == "windows",
		AddSource:  level <= slog.LevelDebug,
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// traceHandler wraps a slog.Handler to inject the run ID and the active
// span's trace ID from context
type traceHandler struct {
	slog.Handler
}

// Handle adds run_id and trace_id to the record if present in context
func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if runID := GetRunID(ctx); runID != "" {
		r.AddAttrs(slog.String("run_id", runID))
	}
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		r.AddAttrs(slog.String("trace_id", traceID))
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs returns a new Handler with additional attributes
func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup returns a new Handler with the given group name
func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// fanoutHandler sends each record to every handler that accepts its level
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// ParseLogLevel converts string log level to slog.Level
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openLogFile opens or creates a log file in append mode
func openLogFile(filePath string) (*os.File, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}
	return file, nil
}
