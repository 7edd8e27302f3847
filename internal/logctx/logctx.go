// Package logctx provides context-based logger injection and extraction.
//
// Handlers attach a logger enriched with invocation fields (invocation_id,
// bucket, key) at the top of each invocation; every stage below pulls it
// back out with FromContext so all log lines of one invocation correlate.
//
// Usage:
//
//	ctx := logctx.WithLogger(ctx, baseLogger)
//	ctx = logctx.WithStr(ctx, "key", ref.Key)
//	logctx.FromContext(ctx).Info().Msg("processing object")
package logctx

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// loggerKey is the private key type for storing loggers in context.
type loggerKey struct{}

// Output formats accepted by ParseFormat.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

var (
	defaultLogger     zerolog.Logger
	defaultLoggerOnce sync.Once
)

func initDefaultLogger() {
	defaultLoggerOnce.Do(func() {
		defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	})
}

// DefaultLogger returns the process-wide default logger used when no
// context logger is available. It writes JSON to stderr with timestamps.
func DefaultLogger() zerolog.Logger {
	initDefaultLogger()
	return defaultLogger
}

// SetDefaultLogger overrides the default logger. Call it from main before
// the first invocation is served; it is not safe to call concurrently with
// FromContext.
func SetDefaultLogger(l zerolog.Logger) {
	initDefaultLogger()
	defaultLogger = l
}

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext extracts the logger from the context. If the context is nil
// or does not contain a logger, returns the default logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return DefaultLogger()
	}
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return DefaultLogger()
}

// WithStr returns a new context with a logger that has the specified string field added.
func WithStr(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, logger)
}

// WithInt returns a new context with a logger that has the specified int field added.
func WithInt(ctx context.Context, key string, value int) context.Context {
	logger := FromContext(ctx).With().Int(key, value).Logger()
	return WithLogger(ctx, logger)
}

// ParseLevel converts a LOG_LEVEL value into a zerolog level.
// An empty string means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level %q: %w", s, err)
	}
	return level, nil
}

// ParseFormat validates a LOG_FORMAT value and reports whether it selects
// the human-friendly console writer. An empty string means JSON.
func ParseFormat(s string) (human bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatJSON:
		return false, nil
	case FormatConsole:
		return true, nil
	default:
		return false, fmt.Errorf("unknown log format %q (want %s or %s)", s, FormatJSON, FormatConsole)
	}
}

// NewConfiguredLogger creates a new logger at the given level.
// If human is true, uses a human-friendly console writer.
func NewConfiguredLogger(level zerolog.Level, human bool) zerolog.Logger {
	var output zerolog.LevelWriter
	if human {
		output = zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    false,
		}}
	} else {
		output = zerolog.LevelWriterAdapter{Writer: os.Stderr}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}
