// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the traceview server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LatencyBuckets covers static transfers and analysis queries, from 1ms to 30s.
var LatencyBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traceview_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "class"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "traceview_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LatencyBuckets,
		},
		[]string{"method", "class"},
	)

	// StaticBytesTotal counts static asset body bytes by content encoding.
	StaticBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traceview_static_bytes_total",
			Help: "Static asset bytes sent",
		},
		[]string{"encoding"},
	)

	// SidecarHitsTotal counts static responses served from a precompressed sidecar.
	SidecarHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traceview_sidecar_hits_total",
			Help: "Precompressed sidecar hits",
		},
		[]string{"encoding"},
	)

	// PayloadBytesTotal counts generated JSON bytes written by content encoding.
	PayloadBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traceview_payload_bytes_total",
			Help: "JSON payload bytes sent",
		},
		[]string{"encoding"},
	)

	// CompressionFailuresTotal counts payloads that could not be compressed.
	CompressionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traceview_compression_failures_total",
			Help: "Payload compression failures",
		},
		[]string{"encoding"},
	)

	// TransfersAbortedTotal counts responses abandoned after headers were sent.
	TransfersAbortedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "traceview_transfers_aborted_total",
			Help: "Aborted transfers",
		},
	)

	// EngineRequestsTotal counts analysis engine queries by operation and outcome.
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traceview_engine_requests_total",
			Help: "Analysis engine queries",
		},
		[]string{"operation", "status"},
	)

	// EngineLatency records analysis engine query latency in seconds.
	EngineLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "traceview_engine_latency_seconds",
			Help:    "Analysis engine latency",
			Buckets: LatencyBuckets,
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StaticBytesTotal,
		SidecarHitsTotal,
		PayloadBytesTotal,
		CompressionFailuresTotal,
		TransfersAbortedTotal,
		EngineRequestsTotal,
		EngineLatency,
	)
}
