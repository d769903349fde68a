package logger

import (
	"testing"

	"jobboard-portal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_ProductionConfig(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Env: "production"},
		Log:    config.LogConfig{Level: "info", Format: "json"},
	}

	err := Init(cfg)
	require.NoError(t, err)
	assert.NotNil(t, Logger)

	Close()
	Logger = nil
}

func TestInit_DevelopmentConfig(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Env: "development"},
		Log:    config.LogConfig{Level: "debug", Format: "console"},
	}

	err := Init(cfg)
	require.NoError(t, err)
	assert.NotNil(t, Logger)
	assert.True(t, Logger.Core().Enabled(zap.DebugLevel))

	Close()
	Logger = nil
}

func TestBuild_SilentDropsEverything(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Env: "development"},
		Log:    config.LogConfig{Level: "silent", Format: "console"},
	}

	l, err := Build(cfg)
	require.NoError(t, err)
	defer func() { _ = l.Sync() }()

	for _, lvl := range []zapcore.Level{zap.DebugLevel, zap.InfoLevel, zap.WarnLevel, zap.ErrorLevel, zap.DPanicLevel, zap.PanicLevel, zap.FatalLevel} {
		assert.False(t, l.Core().Enabled(lvl), lvl.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"info", zap.InfoLevel},
		{"warn", zap.WarnLevel},
		{"error", zap.ErrorLevel},
		{"silent", SilentLevel},
		{"invalid-level", zap.InfoLevel},
		{"", zap.InfoLevel},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLoggingWithNilLogger(t *testing.T) {
	Logger = nil

	assert.NotPanics(t, func() {
		Debug("debug")
		Info("info")
		Warn("warn")
		Error("error")
		Close()
	})
	assert.NotNil(t, Named("drafts"))
	assert.NotNil(t, With(zap.String("k", "v")))
}

func TestNamedAndWith(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Logger = zap.New(core)
	defer func() { Logger = nil }()

	Named("board").Info("filtered", zap.Int("matches", 3))
	With(zap.String("session_id", "abc")).Warn("store degraded")
	Info("plain")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "board", entries[0].LoggerName)
	assert.Equal(t, int64(3), entries[0].ContextMap()["matches"])
	assert.Equal(t, "abc", entries[1].ContextMap()["session_id"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "plain", entries[2].Message)
}
