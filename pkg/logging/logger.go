// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the console writer (default: os.Stderr).
	Output io.Writer

	// File, when set, also receives every line as plain text with an
	// ISO-8601 timestamp. The file is appended to, never truncated.
	File string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger. The returned close function
// releases the log file and is safe to call when no file was opened.
func Setup(cfg Config) (zerolog.Logger, func() error, error) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	console := cfg.Output
	if console == nil {
		console = os.Stderr
	}
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
	}

	output := console
	closeFn := func() error { return nil }

	if cfg.File != "" {
		file, err := openLogFile(cfg.File)
		if err != nil {
			return zerolog.Nop(), closeFn, err
		}
		closeFn = file.Close

		fileWriter := zerolog.ConsoleWriter{
			Out:        file,
			NoColor:    true,
			TimeFormat: time.RFC3339,
		}
		output = zerolog.MultiLevelWriter(console, fileWriter)
	}

	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger, closeFn, nil
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

// ValidLevel reports whether s names a supported level.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: page bookkeeping
//   - Cache operations (hit/miss, key, TTL)
//   - Conditional requests and ETags
//   - Per-page record counts, rel="last" hints
//
// Info: normal run events
//   - Each page request
//   - Credential validation, export paths, conversions
//   - Run completion with page and record totals
//
// Warn: conditions that don't stop the run
//   - Rate budget at or below the threshold, pauses
//   - Cache errors (page fetched without revalidation)
//   - Non-2xx page responses
//
// Error: conditions that stop or degrade the run
//   - Failed page requests, partial results
//   - Rate budget unavailable
//
// Context Fields:
//   - component: emitting package (github-client, fetch, export, convert, cli)
//   - url: page address (never carries the token)
//   - status: HTTP status code
//   - error_class: client, server, rate_limit, network, parse
//   - remaining, reset_at: rate budget
//   - resume_from: cursor of the page that was not completed
