package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestFromContext_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	orig := Logger()
	t.Cleanup(func() {
		logger = orig
		slog.SetDefault(orig)
	})
	Setup(&buf, "info")

	ctx := WithCorrelationID(context.Background(), "corr-1")
	require.Equal(t, "corr-1", CorrelationID(ctx))
	FromContext(ctx).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "hello", line["msg"])
	require.Equal(t, "corr-1", line["correlation_id"])
}

func TestFromContext_WithoutID(t *testing.T) {
	require.Equal(t, "", CorrelationID(context.Background()))
	require.Same(t, Logger(), FromContext(context.Background()))
}

func TestSetup_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	orig := Logger()
	t.Cleanup(func() {
		logger = orig
		slog.SetDefault(orig)
	})
	Setup(&buf, "warn")

	Logger().Info("dropped")
	require.Zero(t, buf.Len())
	Logger().Warn("kept")
	require.Contains(t, buf.String(), "kept")
}
