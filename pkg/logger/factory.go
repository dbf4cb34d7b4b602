package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config holds logger configuration.
type Config struct {
	// Output defaults to os.Stderr so command output on stdout stays clean.
	Output io.Writer `yaml:"-"`
	// Level is one of debug, info, warn, error (default: info).
	Level string `yaml:"level"`
	// Format is json or text (default: json).
	Format string       `yaml:"format"`
	Sentry SentryConfig `yaml:"sentry"`
}

// New creates a logger from cfg. Context attributes set with WithAttrs are
// always extracted; extra extractors run after them.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	handler := newHandler(cfg)
	all := append([]ContextExtractor{ContextAttrs}, extractors...)

	if cfg.Sentry.DSN != "" {
		if sentryHandler, err := newSentryHandler(cfg.Sentry); err != nil {
			slog.New(handler).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		} else {
			handler = fanout{handler, sentryHandler}
		}
	}

	return slog.New(NewContextHandler(handler, all...))
}

func newHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	if strings.EqualFold(cfg.Format, FormatText) {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

// ParseLevel converts a level name to slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
