package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferLogger(t *testing.T, cfg *Config) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := newLogger(cfg, &buf, nil)
	require.NoError(t, err)
	return logger, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_JSONWithContextFields(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "json"
	cfg.Level = zapcore.InfoLevel
	logger, buf := newBufferLogger(t, cfg)

	ctx := WithWorkflowID(WithSessionID(context.Background(), "sess-1"), "wf-42")
	logger.Info(ctx, "feedback captured", zap.String("kind", "correction"))

	entry := decodeLine(t, buf)
	assert.Equal(t, "feedback captured", entry["msg"])
	assert.Equal(t, "sess-1", entry["session.id"])
	assert.Equal(t, "wf-42", entry["workflow.id"])
	assert.Equal(t, "correction", entry["kind"])
	assert.Equal(t, "aura-frog", entry["service"])
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "json"
	logger, buf := newBufferLogger(t, cfg)

	logger.Info(context.Background(), "hidden")
	assert.Zero(t, buf.Len(), "info is below the default warn level")

	logger.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"
	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
}

func TestConfigFrom(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{"defaults", "", "", zapcore.WarnLevel, false},
		{"debug json", "debug", "json", zapcore.DebugLevel, false},
		{"unknown level", "verbose", "", zapcore.WarnLevel, true},
		{"unknown format", "info", "yaml", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ConfigFrom(tt.level, tt.format, false)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, cfg.Level)
		})
	}
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()), "missing logger falls back to nop")

	logger := Nop()
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestWithSessionID_EmptyIgnored(t *testing.T) {
	ctx := WithSessionID(context.Background(), "")
	assert.Empty(t, SessionIDFromContext(ctx))
	assert.Empty(t, ContextFields(ctx))
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithSessionID(context.Background(), "abc")
	tl.Warn(ctx, "store unavailable", zap.String("mode", "remote"))

	tl.AssertLogged(t, zapcore.WarnLevel, "store unavailable")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "store unavailable")
	tl.AssertField(t, "store unavailable", "session.id", "abc")
	tl.AssertField(t, "store unavailable", "mode", "remote")
	assert.Len(t, tl.All(), 1)
}
