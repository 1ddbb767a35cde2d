package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Configure installs a process-wide slog default logger writing text to w.
//
// Supported levels: debug, info, warn, error.
func Configure(level string, w io.Writer) (*slog.Logger, error) {
	parsed, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parsed}))
	slog.SetDefault(logger)
	return logger, nil
}

// ParseLevel converts a level name to a slog level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", LevelInfo:
		return slog.LevelInfo, nil
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelWarn:
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", level)
	}
}
