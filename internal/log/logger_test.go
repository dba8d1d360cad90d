package log

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Setup(Options{Level: level, Output: &buf}))
	t.Cleanup(func() { _ = Setup(Options{Output: os.Stderr}) })
	return &buf
}

func TestComponentLoggerFields(t *testing.T) {
	buf := capture(t, "debug")

	ctx := ContextWithRunID(context.Background(), "run-7")
	l := FromContext(ctx, "engine")
	l.Info().Str("event", "afterSolarNoon").Msg("event triggered")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, Service, entry["service"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "run-7", entry["run_id"])
	assert.Equal(t, "afterSolarNoon", entry["event"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestSetupLevelFilters(t *testing.T) {
	buf := capture(t, "WARN")

	l := WithComponent("config")
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetupUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	err := Setup(Options{Level: "loud", Output: &buf})
	t.Cleanup(func() { _ = Setup(Options{Output: os.Stderr}) })
	require.Error(t, err)

	l := WithComponent("main")
	l.Info().Msg("still logging at info")
	assert.Contains(t, buf.String(), "still logging at info")
}
