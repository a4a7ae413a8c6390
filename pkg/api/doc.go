// Package api defines the JSON error envelope returned by the traceview API
// for failures outside the static delivery path, and the mapping from
// analysis engine errors onto it.
//
// Static asset misses never use this envelope; they answer with a plain
// text "404 Not Found" body.
package api
