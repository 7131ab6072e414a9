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
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"  DEBUG  ", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestParseLevel_Unknown(t *testing.T) {
	_, err := ParseLevel("verbose")
	assert.EqualError(t, err, `logging: unknown level "verbose"`)
}

func TestNew_TextFiltersLevel(t *testing.T) {
	var buf bytes.Buffer

	log, err := New(Config{Level: "warn", Output: &buf})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "k=v")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer

	log, err := New(Config{Level: "debug", Format: "JSON", Output: &buf})
	require.NoError(t, err)

	log.Debug("hello", "chat_id", 42)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.InDelta(t, 42, rec["chat_id"], 0)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{Format: "xml"})
	assert.EqualError(t, err, `logging: unknown format "xml"`)

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}
