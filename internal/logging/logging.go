// Package logging builds the slog logger shared by the catalog and the CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the optional log file.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 30
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level: "debug", "info", "warn" or "error".
	Level string

	// File, if set, receives JSON logs through a rotating writer in addition
	// to the text logs on the console writer.
	File string
}

// New returns a logger writing text to console and, if cfg.File is set, JSON
// to a rotating file. The returned closer releases the file.
func New(console io.Writer, cfg Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	consoleHandler := slog.NewTextHandler(console, opts)

	if cfg.File == "" {
		return slog.New(consoleHandler), nopCloser{}, nil
	}

	mkdirErr := os.MkdirAll(filepath.Dir(cfg.File), 0o750)
	if mkdirErr != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", mkdirErr)
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}

	fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(fanout{consoleHandler, fileHandler}), rotating, nil
}

// ParseLevel maps a level name to a slog level. Empty means warn.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q (expected debug, info, warn, error)", name)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
