// Package logger provides structured slog loggers for the CLI.
//
// Logs go either to stderr as text, or as JSON to a size-rotated file:
//
//	<logDir>/system.log
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/shaharia-lab/eventemitter/internal/eventbus"
)

// NewSystemLogger creates a JSON slog.Logger that writes to <logDir>/system.log.
// The file is rotated once it reaches maxSizeMB. The directory is created if
// it does not exist.
func NewSystemLogger(logDir string, level slog.Level, maxSizeMB int) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, nil, fmt.Errorf("creating log directory %q: %w", logDir, err)
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "system.log"),
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), w, nil
}

// NewConsoleLogger creates a text slog.Logger writing to w.
func NewConsoleLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// EventTap returns a handler that logs every event it receives at debug level.
// Register it under eventbus.Wildcard.
func EventTap[P any](l *slog.Logger) *eventbus.Handler[P] {
	return eventbus.WildcardFunc(func(t eventbus.EventType, payload P) error {
		l.Debug("event dispatched", "type", string(t), "payload", payload)
		return nil
	})
}
