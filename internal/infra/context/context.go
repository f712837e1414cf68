// Package context holds the request-scoped values shared by the gateway, the
// HTTP transport and the logging handlers.
package context

type contextKey string
