package logging

import (
	"context"
	"log/slog"
	"strings"
)

// Redacted replaces the value of sensitive attributes.
const Redacted = "[redacted]"

//nolint:gochecknoglobals
var sensitiveKeys = map[string]bool{
	"token":         true,
	"access_token":  true,
	"password":      true,
	"authorization": true,
}

// RedactingHandler masks attributes whose key names a credential, at any group
// depth, before they reach the wrapped handler.
type RedactingHandler struct {
	h slog.Handler
}

var _ slog.Handler = (*RedactingHandler)(nil)

func NewRedactingHandler(h slog.Handler) *RedactingHandler {
	return &RedactingHandler{h: h}
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(redact(a))

		return true
	})

	//nolint:wrapcheck
	return h.h.Handle(ctx, redacted)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redact(a)
	}

	return NewRedactingHandler(h.h.WithAttrs(redacted))
}

func (h *RedactingHandler) WithGroup(name string) Handler {
	return NewRedactingHandler(h.h.WithGroup(name))
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func redact(a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, Redacted)
	}

	if a.Value.Kind() != slog.KindGroup {
		return a
	}

	group := a.Value.Group()
	redacted := make([]slog.Attr, len(group))

	for i, member := range group {
		redacted[i] = redact(member)
	}

	return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
}
