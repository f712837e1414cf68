package http

import (
	"net/http"

	context_ "github.com/mkrupp/underwritepro/internal/infra/context"
)

const TraceIDHeader = "X-Request-ID"

// TracingMiddleware puts a trace id into the request context and echoes it in the
// response. An incoming X-Request-ID is kept; otherwise a UUIDv7 is generated.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if traceID := r.Header.Get(TraceIDHeader); traceID != "" {
			ctx = context_.WithTraceID(ctx, traceID)
		}

		ctx, traceID := context_.EnsureTraceID(ctx)
		if traceID != "" {
			w.Header().Set(TraceIDHeader, traceID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
