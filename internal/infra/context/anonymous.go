package context

import (
	"context"
)

const contextKeyAnonymous = contextKey("anonymous")

// WithAnonymous marks requests made with ctx as anonymous: the gateway sends them
// without a bearer token and does not treat their 401 responses as an expired session.
func WithAnonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKeyAnonymous, true)
}

// IsAnonymous reports whether ctx was marked by WithAnonymous.
func IsAnonymous(ctx context.Context) bool {
	anonymous, _ := ctx.Value(contextKeyAnonymous).(bool)

	return anonymous
}
