// Package logger builds the structured loggers used by templatemailer.
//
// It wraps log/slog with three additions:
//   - context attributes: values attached with WithAttrs are added to every
//     record logged with that context (template name, message id, ...)
//   - context extractors for any other request-scoped value
//   - optional Sentry fan-out for warnings and errors
//
// # Basic Usage
//
//	log := logger.New(logger.Config{Level: "debug", Format: logger.FormatText})
//
//	ctx = logger.WithAttrs(ctx, slog.String("template", "welcome"))
//	log.InfoContext(ctx, "email sent")
//	// time=... level=INFO msg="email sent" template=welcome
//
// # Sentry Integration
//
// When Config.Sentry.DSN is set, records at or above Sentry.MinLevel are
// also sent to Sentry; errors become issues. If the DSN is empty or the
// client cannot be initialized, logging continues without Sentry.
//
// # Handler Decoration
//
// ContextHandler wraps any slog.Handler to add extractor behavior:
//
//	decorated := logger.NewContextHandler(handler, logger.ContextAttrs)
//	log := slog.New(decorated)
//
// Use NewNope where a logger is required but output is not wanted.
package logger
