package logging

import (
	"context"
	"log/slog"

	context_ "github.com/mkrupp/underwritepro/internal/infra/context"
)

// TracingHandler wraps another slog.Handler and adds the request-scoped values of
// the context (trace id, anonymous marker) to every record.
type TracingHandler struct {
	h slog.Handler
}

var _ slog.Handler = (*TracingHandler)(nil)

// NewTracingHandler creates a new TracingHandler wrapping the given handler.
func NewTracingHandler(h slog.Handler) *TracingHandler {
	return &TracingHandler{h: h}
}

// Handle implements slog.Handler.
func (h *TracingHandler) Handle(ctx context.Context, r slog.Record) error {
	traceID, hasTraceID := context_.TraceIDFromContext(ctx)
	anonymous := context_.IsAnonymous(ctx)

	switch {
	case hasTraceID && anonymous:
		r.AddAttrs(slog.Group("trace", slog.String("id", traceID), slog.Bool("anonymous", true)))
	case hasTraceID:
		r.AddAttrs(slog.Group("trace", slog.String("id", traceID)))
	case anonymous:
		r.AddAttrs(slog.Group("trace", slog.Bool("anonymous", true)))
	}

	//nolint:wrapcheck
	return h.h.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) Handler {
	return NewTracingHandler(h.h.WithAttrs(attrs))
}

// WithGroup implements slog.Handler.WithGroup.
func (h *TracingHandler) WithGroup(name string) Handler {
	return NewTracingHandler(h.h.WithGroup(name))
}

// Enabled implements slog.Handler.Enabled.
func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}
