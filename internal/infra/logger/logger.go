package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
)

// ServiceName tags every record and names the OTel instrumentation scope.
const ServiceName = "travel-rag"

// New creates a JSON logger on stdout.
func New(level string) *slog.Logger {
	return NewWithOTel(level, false)
}

// NewWithOTel creates a logger that also exports through the global OTel log
// provider when enableOTel is set.
func NewWithOTel(level string, enableOTel bool) *slog.Logger {
	return newLogger(os.Stdout, ParseLevel(level), enableOTel)
}

func newLogger(w io.Writer, level slog.Level, enableOTel bool) *slog.Logger {
	var handler slog.Handler = NewTraceContextHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	if enableOTel {
		handler = NewMultiHandler(handler, otelslog.NewHandler(
			ServiceName,
			otelslog.WithLoggerProvider(global.GetLoggerProvider()),
		))
	}
	l := slog.New(NewContextHandler(handler)).With(slog.String("service", ServiceName))
	l.Info("logger_initialized", slog.Bool("otel_enabled", enableOTel))
	return l
}

// MultiHandler sends each record to every enabled handler.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			_ = handler.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: next}
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &MultiHandler{handlers: next}
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
