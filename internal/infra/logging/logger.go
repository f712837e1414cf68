// Package logging configures the process-wide slog setup: one handler chain,
// built by Configure, from which every named logger is derived.
package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// LoggerNameKey is the attribute carrying the dotted logger name.
const LoggerNameKey = "logger"

// Color modes of the console output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// AppName is added to all log entries (uwp, webapp)
	AppName string

	// Output is "stdout", "stderr", "discard" or a file path
	Output string `env:"OUTPUT" default:"stderr"`

	// Level is the minimum level ("debug", "info", "warn", "error")
	Level string `env:"LEVEL" default:"warn"`

	// Filter overrides the level per logger name prefix ("svc.gateway:debug,infra:error")
	Filter string `env:"FILTER" default:""`

	// JSON switches from the console format to one JSON object per line
	JSON bool `env:"JSON" default:"false"`

	// Color controls ANSI colors in the console format: auto, always or never
	Color string `env:"COLOR" default:"auto"`

	// OutputHandle overrides Output
	OutputHandle io.Writer
}

//nolint:gochecknoglobals
var (
	Group      = slog.Group
	GroupValue = slog.GroupValue

	root     slog.Handler = slog.DiscardHandler
	rootLock sync.RWMutex
)

// Configure builds the handler chain used by all loggers created afterwards.
// Loggers obtained before the first call discard their output.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) {
	cfg.AppName = appName

	handler, err := newHandler(cfg)
	if err != nil {
		panic(err)
	}

	rootLock.Lock()
	root = handler
	rootLock.Unlock()

	GetLogger("infra.logging").DebugContext(ctx, "logging configured", Group("config",
		"output", cfg.Output,
		"level", cfg.Level,
		"filter", cfg.Filter,
		"json", cfg.JSON,
		"color", cfg.Color,
	))
}

func newHandler(cfg LoggerConfig) (slog.Handler, error) {
	output, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}

	if output == io.Discard {
		return slog.DiscardHandler, nil
	}

	level := ParseLevel(cfg.Level, LevelInfo)

	var handler slog.Handler

	if cfg.JSON {
		//nolint:exhaustruct
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{AddSource: true, Level: level})
	} else {
		handler = NewConsoleHandler(output, level, ParseFilter(cfg.Filter), useColor(cfg.Color, output))
	}

	handler = NewTracingHandler(NewRedactingHandler(handler))

	if cfg.AppName != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("app", cfg.AppName)})
	}

	return handler, nil
}

func openOutput(cfg LoggerConfig) (io.Writer, error) {
	if cfg.OutputHandle != nil {
		return cfg.OutputHandle, nil
	}

	switch cfg.Output {
	case "", "discard":
		return io.Discard, nil
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}

	file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return file, nil
}

func useColor(mode string, output io.Writer) bool {
	switch strings.ToLower(mode) {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	f, ok := output.(*os.File)

	return ok && term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == ""
}

// GetLogger returns a logger named name, e.g. "svc.sessionsvc.session_store".
// The name drives the per-prefix level overrides of the console format.
func GetLogger(name string) Logger {
	rootLock.RLock()
	handler := root
	rootLock.RUnlock()

	return slog.New(handler).With(LoggerNameKey, name)
}

// GetLogLogger adapts logger for APIs that want a *log.Logger, such as http.Server.
func GetLogLogger(logger Logger, level Level) *log.Logger {
	return slog.NewLogLogger(logger.With("stdlog", true).Handler(), level)
}

// Err returns the conventional attribute for an error value.
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}

// ParseLevel parses a level name as understood by slog ("debug", "WARN", "info+2").
func ParseLevel(s string, fallback Level) Level {
	var level slog.Level

	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return fallback
	}

	return level
}

// ParseFilter parses "prefix:level" pairs separated by commas. Malformed pairs are skipped.
func ParseFilter(filter string) map[string]Level {
	levels := make(map[string]Level)

	for pair := range strings.SplitSeq(filter, ",") {
		name, level, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || name == "" {
			continue
		}

		levels[name] = ParseLevel(level, LevelDebug)
	}

	return levels
}
