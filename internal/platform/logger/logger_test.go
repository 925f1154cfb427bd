package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestRedactingHandler_MasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	h := NewRedactingHandler(slog.NewJSONHandler(&buf, nil), sensitiveKeys)
	l := slog.New(h)

	l.Info("request",
		slog.String("api_key", "hr_live_abc123"),
		slog.String("Signature", "t=1,v1=deadbeef"),
		slog.String("task_id", "tsk_001"),
	)

	m := decodeLine(t, &buf)
	assert.Equal(t, "[REDACTED]", m["api_key"])
	assert.Equal(t, "[REDACTED]", m["Signature"])
	assert.Equal(t, "tsk_001", m["task_id"])
}

func TestRedactingHandler_MasksSensitiveValues(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		masked bool
	}{
		{"live key", "hr_live_secret", true},
		{"test key", "hr_test_secret", true},
		{"webhook secret", "whsec_abcdef", true},
		{"bearer header", "Bearer hr_live_x", true},
		{"plain value", "posted", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := NewRedactingHandler(slog.NewJSONHandler(&buf, nil), sensitiveKeys)
			slog.New(h).Info("msg", slog.String("field", tt.value))

			m := decodeLine(t, &buf)
			if tt.masked {
				assert.Equal(t, "[REDACTED]", m["field"])
			} else {
				assert.Equal(t, tt.value, m["field"])
			}
		})
	}
}

func TestRedactingHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewRedactingHandler(slog.NewJSONHandler(&buf, nil), sensitiveKeys)
	l := slog.New(h).With(slog.String("secret", "whsec_123"))

	l.Info("msg")

	m := decodeLine(t, &buf)
	assert.Equal(t, "[REDACTED]", m["secret"])
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	l := slog.New(h)

	l.Debug("quiet")
	l.Warn("loud")

	assert.Contains(t, a.String(), "quiet")
	assert.Contains(t, a.String(), "loud")
	assert.NotContains(t, b.String(), "quiet")
	assert.Contains(t, b.String(), "loud")
}

func TestMultiHandler_Enabled(t *testing.T) {
	h := NewMultiHandler(
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, levelFromString(tt.in, slog.LevelInfo), tt.in)
	}
}

func TestNew_WithFileSink(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	l := New(Options{Env: "test", App: "webhookd", File: file, FileLevel: "debug"})
	require.NotNil(t, l)

	l.Info("hello", slog.String("api_key", "hr_live_x"))

	require.NoError(t, Close(l))
	assert.FileExists(t, file)
}

func TestClose_NoFileSink(t *testing.T) {
	l := New(Options{Env: "test", App: "cli"})
	assert.NoError(t, Close(l))
}
