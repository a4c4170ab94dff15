package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"INFO":    LogLevelInfo,
		"":        LogLevelInfo,
		"warning": LogLevelWarn,
		" error ": LogLevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LogLevelWarn, Format: "json", Output: &buf, Component: "loop"})

	logger.Info("dropped")
	logger.Warn("kept", "task", 3)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "loop", entry["component"])
	assert.EqualValues(t, 3, entry["task"])
}

func TestComponentScoping(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(&Config{Level: LogLevelDebug, Format: "text", Output: &buf}), "databind")
	logger.Debug("projected", "class", "Point")
	assert.Contains(t, buf.String(), "component=databind")
	assert.Contains(t, buf.String(), "class=Point")

	assert.Equal(t, NoOpLogger{}, Component(NoOpLogger{}, "x"))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}
