// Package transport provides the HTTP middleware chain and error writers
// shared by the traceview HTTP surface.
//
// # Middleware
//
// Middleware wraps an http.Handler with cross-cutting behavior. Built-in
// middleware provides panic recovery, request ID assignment (X-Request-ID),
// permissive CORS for the single-page application, and structured access
// logging via log/slog. Chain composes them in order.
//
// # Errors
//
// WriteAPIError renders the JSON error envelope from pkg/api with a status
// derived from the error type. WriteNotFound renders the plain text 404
// used for static asset misses.
package transport
