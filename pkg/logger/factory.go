package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the stdout encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Options controls the stdout handler built by New and NewWithSentry.
// The zero value logs JSON at info level to os.Stdout.
type Options struct {
	Output io.Writer
	Format Format
	Level  slog.Level
}

// New creates a logger with optional context extractors.
func New(opts Options, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(NewLogHandlerDecorator(opts.handler(), extractors...))
}

// ParseLevel maps debug, info, warn and error (case-insensitive) to a slog
// level. Unknown names fall back to info and report false.
func ParseLevel(name string) (slog.Level, bool) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, false
	}
	return level, true
}

func (o Options) handler() slog.Handler {
	out := o.Output
	if out == nil {
		out = os.Stdout
	}
	hopts := &slog.HandlerOptions{Level: o.Level}
	if o.Format == FormatText {
		return slog.NewTextHandler(out, hopts)
	}
	return slog.NewJSONHandler(out, hopts)
}
