package logger

import (
	"io"
	"log/slog"
	"os"
)

var defaultLogger *slog.Logger

// Initialize sets up the process logger for the server. Production logs JSON
// at info; everything else logs text at debug with source locations.
func Initialize(env string) *slog.Logger {
	if env == "production" {
		return install(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return install(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}))
}

// InitializeTo builds a text logger on stderr at the given level.
// The terminal host uses it so log lines stay out of the prompts on stdout.
func InitializeTo(level slog.Level) *slog.Logger {
	return install(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func install(h slog.Handler) *slog.Logger {
	defaultLogger = slog.New(h)
	slog.SetDefault(defaultLogger)
	return defaultLogger
}

// Get returns the process logger, initializing a development one on first use
func Get() *slog.Logger {
	if defaultLogger == nil {
		return Initialize("development")
	}
	return defaultLogger
}

// NewServiceLogger tags the process logger with a service name
func NewServiceLogger(serviceName string) *slog.Logger {
	return Get().With(slog.String("service", serviceName))
}

// Err renders an error as the conventional "error" attribute
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}
