package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_JSONFormatInProduction(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Environment: "production"})

	l.Info("category created", "id", "cat-123")

	out := buf.String()
	assert.Contains(t, out, `"msg":"category created"`)
	assert.Contains(t, out, `"id":"cat-123"`)
}

func TestNew_PrettyFormatInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Environment: "development"})

	l.Info("server started", "port", 8080)

	out := buf.String()
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "server started")
	assert.Contains(t, out, "port=8080")
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: "pretty", Level: slog.LevelWarn})

	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestPrettyHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: "pretty"})

	l.With("request_id", "req-1").Info("handled")

	assert.Contains(t, buf.String(), "request_id=req-1")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: "json"})

	l.WithError(assert.AnError).Error("operation failed")

	assert.Contains(t, buf.String(), assert.AnError.Error())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestPrettyHandler_OneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: "pretty"})

	l.Info("first")
	l.Info("second")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
}
