package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBaseLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(
		WithLevel(WarnLevel),
		WithFormatter(&TextFormatter{DisableColors: true, DisableTimestamp: true}),
		WithOutput(NewConsoleOutput(WithCustomWriter(&buf), WithCustomErrorWriter(&buf))),
	)

	logger.Info("hidden")
	logger.Warn("shown", Str("k", "v"))

	assert.Equal(t, "WRN shown k=v\n", buf.String())
}

func TestBaseLogger_WithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(
		WithFormatter(&TextFormatter{DisableColors: true, DisableTimestamp: true}),
		WithOutput(NewConsoleOutput(WithCustomWriter(&buf))),
	)

	child := parent.WithComponent("launcher")
	child.Info("from child")
	parent.Info("from parent")

	assert.Equal(t, "INF from child component=launcher\nINF from parent\n", buf.String())
}

func TestJSONFormatter(t *testing.T) {
	f := &JSONFormatter{}
	out, err := f.Format(&Entry{
		Level:     ErrorLevel,
		Message:   "boom",
		Fields:    Fields{"process": "rviz2-1", "level": "ignored"},
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "ERROR", decoded["level"])
	assert.Equal(t, "boom", decoded["message"])
	assert.Equal(t, "rviz2-1", decoded["process"])
	assert.Equal(t, "2024-01-02T03:04:05Z", decoded["timestamp"])
}

func TestApplyConfig(t *testing.T) {
	t.Run("invalid format", func(t *testing.T) {
		_, err := ApplyConfig(&Config{Level: "info", Format: "xml"})
		require.Error(t, err)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := ApplyConfig(&Config{Level: "chatty"})
		require.Error(t, err)
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "launch.log")
		logger, err := ApplyConfig(&Config{Level: "debug", Format: "json", File: path})
		require.NoError(t, err)

		logger.Debug("written", RunID("abc"))
		require.NoError(t, logger.(*BaseLogger).Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"run_id":"abc"`)
	})
}

func TestTestLogger_SharedSink(t *testing.T) {
	logger := NewTestLogger()
	logger.With(Process("slam_toolbox-1")).Warn("exited")

	entries := logger.GetEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "slam_toolbox-1", entries[0].Fields[ProcessKey])
	assert.True(t, logger.HasMessage(WarnLevel, "exit"))
}
