package transport

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/traceview/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server error responses. If the response was already
// started, the connection is left to the server to close. The server
// continues to accept new requests after a panic is recovered.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := newTrackingWriter(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("path", r.URL.Path),
					slog.String("panic", fmt.Sprint(rec)),
				)
				if !tw.wroteHeader {
					WriteAPIError(tw, api.NewServerError("internal server error"))
				}
			}()
			next.ServeHTTP(tw, r)
		})
	}
}
