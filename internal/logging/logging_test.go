package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), tt.input)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Level: "warn"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "bytes", 42)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &record))
	assert.Equal(t, "shown", record["msg"])
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, float64(42), record["bytes"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug"}, &buf)
	JobLogger(logger, "abc").Debug("hello")

	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "job_id=abc")
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Setup(Config{Format: "text", Level: "info"}, &buf)
	assert.Same(t, logger, slog.Default())

	Component("writer").Info("started")
	assert.Contains(t, buf.String(), "component=writer")
	assert.Contains(t, buf.String(), "msg=started")
}

func TestValid(t *testing.T) {
	assert.True(t, ValidFormat("JSON"))
	assert.True(t, ValidFormat(""))
	assert.False(t, ValidFormat("xml"))
	assert.True(t, ValidLevel("Warning"))
	assert.False(t, ValidLevel("trace"))
}

func TestJobID(t *testing.T) {
	id := NewJobID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewJobID())

	ctx := WithJobID(context.Background(), id)
	assert.Equal(t, id, JobID(ctx))
	assert.Empty(t, JobID(context.Background()))
}
