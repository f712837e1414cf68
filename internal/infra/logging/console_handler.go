package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

//nolint:gochecknoglobals
var levelStyles = map[slog.Level]struct{ tag, color string }{
	slog.LevelDebug: {"DBG", ansiCyan},
	slog.LevelInfo:  {"INF", ansiGreen},
	slog.LevelWarn:  {"WRN", ansiYellow},
	slog.LevelError: {"ERR", ansiRed},
}

// ConsoleHandler writes one human-readable line per record:
//
//	15:04:05.000 WRN svc.sessionsvc.session_store: credential load failed | error=... (session_store.go:67)
//
// Records of loggers matching a PkgLevels prefix use that level instead of Level.
type ConsoleHandler struct {
	Output    io.Writer
	Level     slog.Leveler
	PkgLevels map[string]slog.Level
	Color     bool

	mu     *sync.Mutex
	name   string
	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// NewConsoleHandler creates a ConsoleHandler. Handlers derived from it through
// WithAttrs and WithGroup share one lock on output.
func NewConsoleHandler(output io.Writer, level slog.Leveler, pkgLevels map[string]slog.Level, color bool) *ConsoleHandler {
	return &ConsoleHandler{
		Output:    output,
		Level:     level,
		PkgLevels: pkgLevels,
		Color:     color,
		mu:        new(sync.Mutex),
	}
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	name := h.name

	var attrs []slog.Attr

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == LoggerNameKey {
			name = a.Value.String()
		} else {
			attrs = append(attrs, a)
		}

		return true
	})

	if r.Level < h.minLevel(name) {
		return nil
	}

	var b strings.Builder

	b.WriteString(h.paint(ansiGray, r.Time.Format("15:04:05.000")))
	b.WriteByte(' ')
	b.WriteString(h.levelTag(r.Level))
	b.WriteByte(' ')

	if name != "" {
		b.WriteString(name)
		b.WriteString(": ")
	}

	b.WriteString(r.Message)

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	if len(h.attrs)+len(attrs) > 0 {
		b.WriteString(h.paint(ansiGray, " |"))
		h.renderAttrs(&b, "", h.attrs)
		h.renderAttrs(&b, prefix, attrs)
	}

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		b.WriteString(h.paint(ansiGray, " ("+filepath.Base(frame.File)+":"+strconv.Itoa(frame.Line)+")"))
	}

	b.WriteByte('\n')

	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}

	_, err := io.WriteString(h.Output, b.String())

	return err //nolint:wrapcheck
}

// Enabled reports whether any configured level admits level. The logger name
// is only known in Handle, which makes the final decision.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level >= h.minLevel(h.name) {
		return true
	}

	if h.name != "" {
		return false
	}

	for _, pkgLevel := range h.PkgLevels {
		if level >= pkgLevel {
			return true
		}
	}

	return false
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	clone := h.clone()

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	for _, a := range attrs {
		if a.Key == LoggerNameKey && prefix == "" {
			clone.name = a.Value.String()

			continue
		}

		if prefix != "" {
			a.Key = prefix + a.Key
		}

		clone.attrs = append(clone.attrs, a)
	}

	return clone
}

func (h *ConsoleHandler) WithGroup(name string) Handler {
	if name == "" {
		return h
	}

	clone := h.clone()
	clone.groups = append(clone.groups, name)

	return clone
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	return &ConsoleHandler{
		Output:    h.Output,
		Level:     h.Level,
		PkgLevels: h.PkgLevels,
		Color:     h.Color,
		mu:        h.mu,
		name:      h.name,
		attrs:     append([]slog.Attr(nil), h.attrs...),
		groups:    append([]string(nil), h.groups...),
	}
}

// minLevel returns the level of the longest PkgLevels prefix of name, matched
// on dot boundaries.
func (h *ConsoleHandler) minLevel(name string) slog.Level {
	for key := name; key != ""; {
		if level, ok := h.PkgLevels[key]; ok {
			return level
		}

		i := strings.LastIndexByte(key, '.')
		if i < 0 {
			break
		}

		key = key[:i]
	}

	if h.Level == nil {
		return LevelInfo
	}

	return h.Level.Level()
}

func (h *ConsoleHandler) renderAttrs(b *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, a := range attrs {
		a.Value = a.Value.Resolve()

		if a.Value.Kind() == slog.KindGroup {
			h.renderAttrs(b, prefix+a.Key+".", a.Value.Group())

			continue
		}

		if a.Equal(slog.Attr{}) {
			continue
		}

		b.WriteString(" " + prefix + a.Key + "=")
		b.WriteString(h.paint(ansiGray, quoteIfNeeded(a.Value.String())))
	}
}

func (h *ConsoleHandler) levelTag(level slog.Level) string {
	style, ok := levelStyles[level]
	if !ok {
		return level.String()
	}

	return h.paint(style.color, style.tag)
}

func (h *ConsoleHandler) paint(color, s string) string {
	if !h.Color {
		return s
	}

	return color + s + ansiReset
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}

	return s
}
