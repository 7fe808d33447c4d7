package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	return result
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(Config{Level: "info", Format: "json", ServiceName: "test-service"}, &buf)
	log.Info().Msg("test message")

	result := decode(t, &buf)
	assert.Equal(t, "info", result["level"])
	assert.Equal(t, "test message", result["message"])
	assert.Equal(t, "test-service", result["service"])
	assert.NotEmpty(t, result["time"])
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(Config{Level: "info", Format: "console", ServiceName: "test-service"}, &buf)
	log.Info().Msg("test message")

	assert.Contains(t, buf.String(), "test message")
	assert.Contains(t, buf.String(), "INF")
}

func TestNewLogger_LogLevelFiltering(t *testing.T) {
	tests := []struct {
		name        string
		configLevel string
		logLevel    zerolog.Level
		shouldLog   bool
	}{
		{"debug logged at debug level", "debug", zerolog.DebugLevel, true},
		{"debug not logged at info level", "info", zerolog.DebugLevel, false},
		{"warn logged at info level", "info", zerolog.WarnLevel, true},
		{"info not logged at warn level", "warn", zerolog.InfoLevel, false},
		{"invalid level falls back to info", "loud", zerolog.InfoLevel, true},
		{"empty level falls back to info", "", zerolog.DebugLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithOutput(Config{Level: tt.configLevel, Format: "json", ServiceName: "test"}, &buf)
			log.WithLevel(tt.logLevel).Msg("test")

			if tt.shouldLog {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestNewLogger_WithCaller(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(Config{Level: "info", Format: "json", ServiceName: "test", EnableCaller: true}, &buf)
	log.Info().Msg("test")

	result := decode(t, &buf)
	require.Contains(t, result, "caller")
	assert.Contains(t, result["caller"].(string), "logger_test.go")
}

func TestLogger_ContextFields(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*Logger) *Logger
		key   string
		value string
	}{
		{"request id", func(l *Logger) *Logger { return l.WithRequestID("req-123") }, "request_id", "req-123"},
		{"provider", func(l *Logger) *Logger { return l.WithProvider("duffel") }, "provider", "duffel"},
		{"search key", func(l *Logger) *Logger { return l.WithSearchKey("search:v1:abc") }, "search_key", "search:v1:abc"},
		{"session", func(l *Logger) *Logger { return l.WithSession("sess-1") }, "routing_session", "sess-1"},
		{"custom", func(l *Logger) *Logger { return l.WithContext("custom_field", "v") }, "custom_field", "v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithOutput(Config{Level: "info", Format: "json", ServiceName: "test"}, &buf)
			tt.apply(log).Info().Msg("test")

			assert.Equal(t, tt.value, decode(t, &buf)[tt.key])
		})
	}
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(Config{Level: "info", Format: "json", ServiceName: "test"}, &buf)
	c := log.Component("combiner")
	c.Info().Msg("test")

	assert.Equal(t, "combiner", decode(t, &buf)["component"])
}

func TestFromContext(t *testing.T) {
	var fallbackBuf, ctxBuf bytes.Buffer
	fallback := zerolog.New(&fallbackBuf)
	attached := zerolog.New(&ctxBuf)

	l := FromContext(context.Background(), fallback)
	l.Info().Msg("fallback")
	assert.NotEmpty(t, fallbackBuf.String())

	ctx := IntoContext(context.Background(), attached)
	l = FromContext(ctx, fallback)
	l.Info().Msg("attached")
	assert.Contains(t, ctxBuf.String(), "attached")
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.Equal(t, zerolog.Disabled, log.GetLevel())
}
