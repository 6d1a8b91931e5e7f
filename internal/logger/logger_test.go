package logger_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/como-monitor/como/internal/logger"
)

func TestNew(t *testing.T) {
	t.Run("json format honours level", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := logger.New(&buf, "json", "warn")
		require.NoError(t, err)

		log.Info("hidden")
		log.Warn("shown", logger.Component("server"))

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `"msg":"shown"`)
		assert.Contains(t, out, `"component":"server"`)
	})

	t.Run("empty format defaults to text", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := logger.New(&buf, "", "")
		require.NoError(t, err)

		log.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		_, err := logger.New(&bytes.Buffer{}, "xml", "info")
		assert.Error(t, err)
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := logger.New(&bytes.Buffer{}, "text", "loud")
		assert.Error(t, err)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logger.ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAttrHelpers(t *testing.T) {
	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, "error", logger.Error(errors.New("boom")).Key)
	assert.Equal(t, slog.Attr{}, logger.Remote(""))
	assert.Equal(t, slog.Attr{}, logger.SessionID(""))
	assert.Equal(t, slog.Attr{}, logger.SourceName("", ""))
	assert.Equal(t, "source", logger.SourceName("a", "b").Key)
}
