package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}

	if cfg.Pretty != false {
		t.Error("Expected default pretty to be false")
	}

	if cfg.File != "" {
		t.Error("Expected no log file by default")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name    string
		level   LogLevel
		testMsg string
	}{
		{name: "info_level", level: LevelInfo, testMsg: "test info message"},
		{name: "debug_level", level: LevelDebug, testMsg: "test debug message"},
		{name: "warn_level", level: LevelWarn, testMsg: "test warn message"},
		{name: "error_level", level: LevelError, testMsg: "test error message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}

			logger, closeFn, err := Setup(Config{Level: tt.level, Output: buf})
			if err != nil {
				t.Fatalf("Setup() error = %v", err)
			}
			defer closeFn()

			switch tt.level {
			case LevelDebug:
				logger.Debug().Msg(tt.testMsg)
			case LevelInfo:
				logger.Info().Msg(tt.testMsg)
			case LevelWarn:
				logger.Warn().Msg(tt.testMsg)
			case LevelError:
				logger.Error().Msg(tt.testMsg)
			}

			if output := buf.String(); !strings.Contains(output, tt.testMsg) {
				t.Errorf("Expected output to contain %q, got %q", tt.testMsg, output)
			}
		})
	}
}

func TestSetup_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "repositories.log")
	console := &bytes.Buffer{}

	_, closeFn, err := Setup(Config{Level: LevelInfo, Output: console, File: path})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	logger := NewLogger("test")
	logger.Info().Str("url", "https://api.github.com/x").Msg("fetching page")

	if err := closeFn(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	line := strings.TrimSpace(string(data))
	iso := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(Z|[+-]\d{2}:\d{2}) INF fetching page`)
	if !iso.MatchString(line) {
		t.Errorf("log line %q does not start with an ISO-8601 timestamp and level", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Error("log file must not contain colour codes")
	}
	if !strings.Contains(console.String(), "fetching page") {
		t.Error("console should still receive the line")
	}
}

func TestSetup_FileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, closeFn, err := Setup(Config{Level: LevelInfo, Output: &bytes.Buffer{}, File: path})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	logger := NewLogger("test")
	logger.Info().Msg("second run")
	closeFn()

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "previous run\n") || !strings.Contains(string(data), "second run") {
		t.Errorf("log file = %q, want appended content", data)
	}
}

func TestSetup_FileError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := Setup(Config{Output: &bytes.Buffer{}, File: filepath.Join(blocker, "x.log")}); err == nil {
		t.Error("Setup() should fail when the log directory cannot be created")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel}, // Should default to Info
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	for _, s := range []string{"debug", "INFO", "warn", "warning", "error"} {
		if !ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = false", s)
		}
	}
	for _, s := range []string{"", "trace", "fatal"} {
		if ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = true", s)
		}
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: buf,
	})

	logger := NewLogger("test-component")
	logger.Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test-component") {
		t.Errorf("Expected output to contain 'test-component', got %q", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected output to contain 'test message', got %q", output)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  LevelWarn,
		Pretty: false,
		Output: buf,
	})

	logger := NewLogger("test")

	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")

	logger.Warn().Msg("warn message")
	logger.Error().Msg("error message")

	output := buf.String()

	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered out at Warn level")
	}
	if strings.Contains(output, "info message") {
		t.Error("Info message should be filtered out at Warn level")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("Warn message should be included at Warn level")
	}
	if !strings.Contains(output, "error message") {
		t.Error("Error message should be included at Warn level")
	}
}
