package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("keeps attributes bound with With", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("component", "loader").Info("rows loaded", "rows", 20)

		record, ok := handler.FindRecord("rows loaded")
		require.True(t, ok)
		assert.Equal(t, "loader", record.Attrs["component"])
		assert.Equal(t, int64(20), record.Attrs["rows"])
	})

	t.Run("prefixes grouped keys", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.WithGroup("step").Info("done", "name", "render")

		assert.True(t, handler.ContainsAttr("step.name", "render"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("clear functionality", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("message 1")
		logger.Info("message 2")
		assert.Equal(t, 2, handler.Count())

		handler.Clear()
		assert.Equal(t, 0, handler.Count())
	})

	t.Run("assertion helpers", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("important message", slog.String("component", "test"))
		logger.Warn("warning message", slog.Int("retry", 3))

		AssertLogContains(t, handler, slog.LevelInfo, "important")
		AssertLogAttr(t, handler, "component", "test")
		AssertNoErrors(t, handler)
	})

	t.Run("thread safety", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.Info("concurrent log", slog.Int("goroutine", n))
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 10, handler.Count())
	})
}

func TestSampleReadings(t *testing.T) {
	readings := SampleReadings()
	require.Len(t, readings, 20)

	perStation := map[string]int{}
	months := map[string]bool{}
	for _, r := range readings {
		perStation[r.Station]++
		months[r.Timestamp.Format("2006-01")] = true
	}
	assert.Equal(t, map[string]int{StationNorte: 10, StationCentro: 10}, perStation)
	assert.Len(t, months, 2)
	assert.Equal(t, StationNorte, readings[0].Station)
}

func TestDecimalComma(t *testing.T) {
	assert.Equal(t, "12,5", DecimalComma(12.5))
	assert.Equal(t, "40", DecimalComma(40))
}
