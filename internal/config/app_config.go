package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"EMITTER_LOG_LEVEL" default:"info"`

	// LogDir is where system.log is written. Empty means log to stderr.
	LogDir string `envconfig:"EMITTER_LOG_DIR"`

	// LogMaxSizeMB is the size at which system.log is rotated.
	LogMaxSizeMB int `envconfig:"EMITTER_LOG_MAX_SIZE_MB" default:"10"`

	// NoColor disables styled terminal output.
	NoColor bool `envconfig:"EMITTER_NO_COLOR" default:"false"`

	// ScenarioDir is read by `run` when no scenario files are given.
	ScenarioDir string `envconfig:"EMITTER_SCENARIO_DIR" default:"./scenarios"`
}

// Load reads AppConfig from environment variables using envconfig.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.LogMaxSizeMB <= 0 {
		return nil, fmt.Errorf("loading config: EMITTER_LOG_MAX_SIZE_MB must be positive, got %d", c.LogMaxSizeMB)
	}
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
