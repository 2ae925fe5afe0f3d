package config

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"upper case", "DEBUG", slog.LevelDebug},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &AppConfig{LogLevel: tt.logLevel}
			assert.Equal(t, tt.want, c.SlogLevel())
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("EMITTER_LOG_LEVEL", "debug")
	t.Setenv("EMITTER_LOG_DIR", "/tmp/emitter-logs")
	t.Setenv("EMITTER_LOG_MAX_SIZE_MB", "25")
	t.Setenv("EMITTER_NO_COLOR", "true")
	t.Setenv("EMITTER_SCENARIO_DIR", "/tmp/scenarios")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/emitter-logs", cfg.LogDir)
	assert.Equal(t, 25, cfg.LogMaxSizeMB)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "/tmp/scenarios", cfg.ScenarioDir)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"EMITTER_LOG_LEVEL",
		"EMITTER_LOG_DIR",
		"EMITTER_LOG_MAX_SIZE_MB",
		"EMITTER_NO_COLOR",
		"EMITTER_SCENARIO_DIR",
	} {
		// Setenv restores the original value after the test.
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.LogDir)
	assert.Equal(t, 10, cfg.LogMaxSizeMB)
	assert.False(t, cfg.NoColor)
	assert.Equal(t, "./scenarios", cfg.ScenarioDir)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not a number", "lots"},
		{"zero", "0"},
		{"negative", "-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EMITTER_LOG_MAX_SIZE_MB", tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "loading config")
		})
	}
}
