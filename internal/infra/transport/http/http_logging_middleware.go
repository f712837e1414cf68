package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mkrupp/underwritepro/internal/infra/logging"
)

// responseRecorder captures what a handler wrote so that the middlewares can log
// it and know whether a response is already on its way.
type responseRecorder struct {
	http.ResponseWriter

	status      int
	bytesSent   int
	wroteHeader bool
}

func (w *responseRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}

	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	n, err := w.ResponseWriter.Write(b)
	w.bytesSent += n

	return n, err //nolint:wrapcheck
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func recorderFor(w http.ResponseWriter) *responseRecorder {
	if rec, ok := w.(*responseRecorder); ok {
		return rec
	}

	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

// quietPaths are probed often and only logged at debug level when they succeed.
//
//nolint:gochecknoglobals
var quietPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// LoggingMiddleware logs one access line per request. Server errors are logged at
// ERROR, client errors at WARN and everything else at INFO, except for successful
// probes of the health and metrics endpoints.
func LoggingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := recorderFor(w)

		next.ServeHTTP(rec, r)

		level := accessLevel(r.URL.Path, rec.status)

		log.Log(r.Context(), level, "response", slog.Group("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes_sent", rec.bytesSent,
			"elapsed", time.Since(start),
			"user_agent", r.UserAgent(),
		))
	})
}

func accessLevel(path string, status int) logging.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return logging.LevelError
	case status >= http.StatusBadRequest:
		return logging.LevelWarn
	case quietPaths[path]:
		return logging.LevelDebug
	default:
		return logging.LevelInfo
	}
}
