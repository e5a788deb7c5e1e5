package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string // trace, debug, info, warn, error, fatal, panic
	Format     string // json, console
	TimeFormat string // "RFC3339", "unix", "unixms" or a Go time layout
	Output     string // stdout, stderr, or file path
}

// DefaultConfig returns the configuration used before the environment is read.
// Command output goes to stdout, so logs default to stderr.
func DefaultConfig() LogConfig {
	return LogConfig{
		Level:      "warn",
		Format:     "console",
		TimeFormat: "RFC3339",
		Output:     "stderr",
	}
}

// Setup replaces the global logger with one built from config.
func Setup(config LogConfig) error {
	l, err := New(config)
	if err != nil {
		return err
	}
	log.Logger = l
	return nil
}

// New builds a logger from config and applies its level and time format
// globally, since zerolog keeps both as package state.
func New(config LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", config.Level, err)
	}

	out, isFile, err := openOutput(config.Output)
	if err != nil {
		return zerolog.Logger{}, err
	}

	timeFormat := resolveTimeFormat(config.TimeFormat)
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = timeFormat

	if !strings.EqualFold(config.Format, "json") {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    isFile,
			TimeFormat: consoleTimeFormat(timeFormat),
		}
	}

	return zerolog.New(out).With().Timestamp().Logger(), nil
}

func openOutput(output string) (w io.Writer, isFile bool, err error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, false, nil
	case "stdout":
		return os.Stdout, false, nil
	}

	file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, true, nil
}

func resolveTimeFormat(name string) string {
	switch strings.ToLower(name) {
	case "", "rfc3339":
		return time.RFC3339
	case "unix":
		return zerolog.TimeFormatUnix
	case "unixms":
		return zerolog.TimeFormatUnixMs
	}
	return name
}

// consoleTimeFormat keeps the console readable when the JSON field format is
// a Unix timestamp.
func consoleTimeFormat(format string) string {
	if format == zerolog.TimeFormatUnix || format == zerolog.TimeFormatUnixMs {
		return time.Kitchen
	}
	return format
}

// WithComponent returns a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// WithRequestID returns a logger with a request ID field
func WithRequestID(requestID string) zerolog.Logger {
	return log.Logger.With().Str("request_id", requestID).Logger()
}
