package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingHandler(t *testing.T) {
	t.Run("captures records at every level", func(t *testing.T) {
		logger, h := NewTestLogger(t)

		logger.Debug("parsing", slog.Int("line", 3))
		logger.Warn("skipped", slog.String("file", "a.txt"))

		records := h.GetRecords()
		require.Len(t, records, 2)
		assert.Equal(t, slog.LevelDebug, records[0].Level)
		assert.Equal(t, int64(3), records[0].Attrs["line"])
		assert.Len(t, h.RecordsAt(slog.LevelWarn), 1)

		AssertLogContains(t, h, slog.LevelWarn, "skip")
		AssertLogAttr(t, h, "file", "a.txt")
	})

	t.Run("keeps bound attributes and groups", func(t *testing.T) {
		logger, h := NewTestLogger(t)

		logger.With(slog.String("component", "parser")).
			WithGroup("stats").
			Info("done", slog.Int("pairs", 7))

		r, ok := h.Find("done")
		require.True(t, ok)
		assert.Equal(t, "parser", r.Attrs["component"])
		assert.Equal(t, int64(7), r.Attrs["stats.pairs"])
	})

	t.Run("derived loggers share storage", func(t *testing.T) {
		logger, h := NewTestLogger(t)
		child := logger.With("component", "aggregator")

		logger.Info("one")
		child.Info("two")

		assert.Len(t, h.GetRecords(), 2)
		AssertNoErrors(t, h)
	})
}
