package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func resetGlobal(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })
	Logger = nil
}

func TestInit_EnvironmentDefaults(t *testing.T) {
	tests := []struct {
		env   string
		level zapcore.Level
	}{
		{"production", zapcore.InfoLevel},
		{"development", zapcore.DebugLevel},
		{"", zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			resetGlobal(t)

			require.NoError(t, Init(tt.env, ""))
			assert.True(t, Logger.Core().Enabled(tt.level))
			assert.False(t, Logger.Core().Enabled(tt.level-1))
		})
	}
}

func TestInit_LevelOverride(t *testing.T) {
	resetGlobal(t)

	require.NoError(t, Init("development", "warn"))
	assert.False(t, Logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Logger.Core().Enabled(zapcore.WarnLevel))
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	resetGlobal(t)

	err := Init("production", "loud")
	require.Error(t, err)
	assert.Nil(t, Logger)
}

func TestGet_FallbackIsShared(t *testing.T) {
	resetGlobal(t)

	first := Get()
	require.NotNil(t, first)
	assert.Same(t, first, Get())
}

func TestFor_NamesComponent(t *testing.T) {
	resetGlobal(t)
	require.NoError(t, Init("production", ""))

	l := For(StoreSQLite)
	assert.Equal(t, "store.sqlite", l.Name())
}
