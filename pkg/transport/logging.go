package transport

import (
	"log/slog"
	"net/http"
	"time"
)

// Logging returns middleware that emits one structured log entry per
// request with request ID, method, path, status, body bytes and duration.
// Server errors are logged at ERROR, everything else at INFO.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			tw := newTrackingWriter(w)

			next.ServeHTTP(tw, r)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", tw.status),
				slog.Int64("bytes", tw.bytes),
				slog.Duration("duration", time.Since(start)),
			}
			if enc := tw.Header().Get("Content-Encoding"); enc != "" {
				attrs = append(attrs, slog.String("encoding", enc))
			}

			level := slog.LevelInfo
			if tw.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "request completed", attrs...)
		})
	}
}
