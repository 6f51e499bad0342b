package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
	require.Equal(t, slog.LevelWarn, parseLevel("warn"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestNewWithWriterFormats(t *testing.T) {
	var buf bytes.Buffer
	newWithWriter(&buf, "api", "info", "json").Info("hello")
	require.Contains(t, buf.String(), `"service":"api"`)

	buf.Reset()
	newWithWriter(&buf, "api", "info", "").Info("hello")
	require.Contains(t, buf.String(), "service=api")

	buf.Reset()
	newWithWriter(&buf, "api", "warn", "").Info("hidden")
	require.Empty(t, buf.String())
}
