package http

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mkrupp/underwritepro/internal/infra/logging"
)

// RescueingMiddleware turns a panicking handler into a 500 response. When the
// handler already started the response only the panic is logged, and
// http.ErrAbortHandler is passed on so the server drops the connection.
func RescueingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorderFor(w)

		defer func() {
			p := recover()
			if p == nil {
				return
			}

			if err, ok := p.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(p)
			}

			log.ErrorContext(r.Context(), "request panic",
				slog.Group("http", "method", r.Method, "path", r.URL.Path),
				slog.Group("error", "panic", p, "stack", string(debug.Stack())),
			)

			if !rec.wroteHeader {
				http.Error(rec, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(rec, r)
	})
}
