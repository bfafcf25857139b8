package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	logger.Info("routine updated", "day", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "routine updated", entry["msg"])
	assert.Equal(t, float64(3), entry["day"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "text", Output: &buf})

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestSetLevelTakesEffect(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "text", Output: &buf})

	logger.Debug("before")
	assert.Empty(t, buf.String())

	logger.SetLevel("debug")
	logger.Debug("after")
	assert.Contains(t, buf.String(), "after")
}

func TestWithComponentPropagatesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "text", Output: &buf})
	scoped := logger.WithComponent("store")

	logger.SetLevel("error")
	scoped.Warn("dropped")
	assert.Empty(t, buf.String())
}

func TestPrettyHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(NewPrettyHandler(&buf, level))

	logger.Info("flushed", "counter", 7)
	out := buf.String()
	assert.Contains(t, out, "flushed")
	assert.Contains(t, out, "counter")
	assert.Contains(t, out, "=7")
}
