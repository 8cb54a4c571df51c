// Package logger builds structured slog loggers with context extraction and
// optional Sentry reporting.
//
// # Basic Usage
//
//	log := logger.New(logger.Options{Level: slog.LevelDebug},
//		logger.StringValue(requestIDKey{}, "request_id"),
//	)
//	log.InfoContext(ctx, "address formatted", slog.String("country", "gb"))
//	// {"level":"INFO","msg":"address formatted","country":"gb","request_id":"abc-123"}
//
// Options select the output writer, the encoding (JSON by default, or text for
// terminals) and the minimum level. ParseLevel converts configuration strings
// such as "warn" into a slog.Level.
//
// # Context Extractors
//
// A ContextExtractor runs on every log call and may add one attribute taken
// from the context. StringValue covers the common case of a string stored
// under a private key type. LogHandlerDecorator applies extractors to any
// slog.Handler.
//
// # Sentry Integration
//
//	log := logger.NewWithSentry(logger.Options{}, logger.SentryConfig{
//		DSN:         os.Getenv("SENTRY_DSN"),
//		Environment: "production",
//		MinLevel:    slog.LevelWarn,
//	})
//	defer logger.Flush(2 * time.Second)
//
// Errors create Sentry issues; warnings are stored as Sentry logs unless
// MinLevel is error. With an empty DSN, or when the SDK fails to initialize,
// the logger writes to stdout only, so the same code path works in
// development.
//
// NewNope and OrNope provide a discarding logger for callers that were not
// given one.
package logger
