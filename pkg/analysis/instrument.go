package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/rhuss/traceview/pkg/debug"
	"github.com/rhuss/traceview/pkg/observability"
)

// Instrument wraps e so that every query is counted and timed in the
// traceview_engine_* metrics.
func Instrument(e Engine) Engine {
	return EngineFunc(func(ctx context.Context, req Request) (any, error) {
		start := time.Now()
		result, err := e.Query(ctx, req)
		op := string(req.Operation)

		observability.EngineLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
		observability.EngineRequestsTotal.WithLabelValues(op, statusLabel(err)).Inc()
		debug.Log("engine", "query finished", "operation", op, "filename", req.Trace.Filename,
			"duration", time.Since(start), "error", err)

		return result, err
	})
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidQuery):
		return "invalid"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
