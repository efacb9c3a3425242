// Package logger provides leveled logging for the pipeline. Output goes to
// stderr by default or to a file, so progress reporting never mixes into
// sidecar JSON written on stdout-adjacent paths.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Level represents the logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the interface components log through.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
	SetLevel(level Level)
}

// Config holds configuration for the logger.
type Config struct {
	// Output destination: "stderr" (default) or "file".
	Output string
	// Level: "debug", "info", "warn", "error".
	Level string
	// FilePath for file output.
	FilePath string
}

type standardLogger struct {
	logger *log.Logger
	level  Level
}

// New creates a logger from the provided configuration.
func New(config Config) (Logger, error) {
	var writer io.Writer

	output := config.Output
	if output == "" {
		output = os.Getenv("LOG_OUTPUT")
	}
	if output == "" {
		output = "stderr"
	}

	switch output {
	case "stderr":
		writer = os.Stderr
	case "file":
		filePath := config.FilePath
		if filePath == "" {
			filePath = os.Getenv("LOG_FILE_PATH")
		}
		if filePath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			dir := filepath.Join(home, ".slidecast")
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
			filePath = filepath.Join(dir, "slidecast.log")
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = file
	default:
		return nil, fmt.Errorf("invalid log output: %s (expected 'stderr' or 'file')", output)
	}

	levelStr := config.Level
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}
	if levelStr == "" {
		levelStr = "info"
	}

	return &standardLogger{
		logger: log.New(writer, "", log.LstdFlags),
		level:  parseLevel(levelStr),
	}, nil
}

// NewNoOpLogger creates a logger that discards all output, useful in tests.
func NewNoOpLogger() Logger {
	return &standardLogger{
		logger: log.New(io.Discard, "", 0),
		level:  ErrorLevel + 1,
	}
}

func parseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l *standardLogger) logf(level Level, format string, v ...any) {
	if level < l.level {
		return
	}
	l.logger.Printf("[%s] %s", level, fmt.Sprintf(format, v...))
}

func (l *standardLogger) Debug(format string, v ...any) { l.logf(DebugLevel, format, v...) }
func (l *standardLogger) Info(format string, v ...any)  { l.logf(InfoLevel, format, v...) }
func (l *standardLogger) Warn(format string, v ...any)  { l.logf(WarnLevel, format, v...) }
func (l *standardLogger) Error(format string, v ...any) { l.logf(ErrorLevel, format, v...) }

func (l *standardLogger) SetLevel(level Level) { l.level = level }
