// Package http serves traceview over HTTP.
//
// Router classifies each request by path prefix: /api requests are parsed
// through the declarative Routes table and answered by the analysis
// engine, /ui requests get the UI shell document, and everything else is
// resolved against the static content root. Server wraps a Router with the
// transport middleware chain, health and metrics endpoints, and graceful
// shutdown.
package http
