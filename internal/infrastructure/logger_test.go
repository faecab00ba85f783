package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlxcli/internal/config"
)

func decodeJSONLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry), "line %q", line)
		out = append(out, entry)
	}
	return out
}

func TestNewLogger_ConsoleJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, file, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "console"}, &buf)
	require.NoError(t, err)
	assert.Nil(t, file)

	ctx := WithRunID(context.Background(), "run-123")
	logger.InfoContext(ctx, "File parsed", slog.String("file", "a.txt"))
	logger.Debug("hidden")

	entries := decodeJSONLines(t, buf.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, "File parsed", entries[0]["msg"])
	assert.Equal(t, "a.txt", entries[0]["file"])
	assert.Equal(t, "run-123", entries[0]["run_id"])
	assert.Equal(t, "INFO", entries[0]["level"])
}

func TestNewLogger_ConsoleText(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "text", Output: "console"}, &buf)
	require.NoError(t, err)

	logger.Debug("Sheet written", slog.String("sheet", "F1_MS"))

	out := buf.String()
	assert.Contains(t, out, "Sheet written")
	assert.Contains(t, out, "sheet=F1_MS")
	assert.NotContains(t, out, "\x1b[", "no colour when not a terminal")
}

func TestNewLogger_Both(t *testing.T) {
	var buf bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "logs", "combiner.log")

	logger, file, err := NewLogger(config.LoggingConfig{
		Level:    "warn",
		Format:   "text",
		Output:   "both",
		FilePath: logFile,
	}, &buf)
	require.NoError(t, err)
	require.NotNil(t, file)

	logger.With(slog.String("component", "combine_service")).Warn("File skipped", slog.String("file", "b.txt"))
	logger.Info("not at warn level")
	require.NoError(t, file.Close())

	assert.Contains(t, buf.String(), "File skipped")
	assert.NotContains(t, buf.String(), "not at warn level")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	entries := decodeJSONLines(t, content)
	require.Len(t, entries, 1)
	assert.Equal(t, "File skipped", entries[0]["msg"])
	assert.Equal(t, "combine_service", entries[0]["component"])
	assert.Equal(t, "b.txt", entries[0]["file"])
}

func TestNewLogger_FileOnly(t *testing.T) {
	var buf bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "only.log")

	logger, file, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "file", FilePath: logFile}, &buf)
	require.NoError(t, err)
	logger.Info("to file")
	require.NoError(t, file.Close())

	assert.Empty(t, buf.String())
	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "to file"))
}

func TestNewLogger_BadFilePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, _, err := NewLogger(config.LoggingConfig{Output: "file", FilePath: filepath.Join(blocker, "x.log")}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestInitializeLogger(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	logFile := filepath.Join(t.TempDir(), "test.log")
	logger, closeFn, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Same(t, logger, GetLogger())

	slog.Info("test message", "key", "value")
	require.NoError(t, closeFn())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	entries := decodeJSONLines(t, content)
	require.Len(t, entries, 1)
	assert.Equal(t, "value", entries[0]["key"])
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestRunID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRunID(ctx))

	ctx = EnsureRunID(ctx)
	id := GetRunID(ctx)
	assert.Len(t, id, 36)
	assert.Equal(t, id, GetRunID(EnsureRunID(ctx)), "an existing run ID is kept")
}
