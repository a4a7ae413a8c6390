package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/traceview/pkg/observability"
	"github.com/rhuss/traceview/pkg/transport"
)

// Server wraps an http.Server with the middleware chain and manages
// startup and graceful shutdown.
type Server struct {
	httpServer *http.Server
	config     ServerConfig
	logger     *slog.Logger
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	// WriteTimeout bounds a whole response. Zero disables it so that large
	// assets can stream to slow clients.
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              ":8080",
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		MetricsPath:       "/metrics",
	}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.config.Addr = addr }
}

// WithWriteTimeout sets the per-response write deadline.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.WriteTimeout = d }
}

// WithReadHeaderTimeout sets the deadline for reading request headers.
func WithReadHeaderTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.ReadHeaderTimeout = d }
}

// WithShutdownTimeout sets the graceful shutdown deadline.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.ShutdownTimeout = d }
}

// WithMetricsPath sets the metrics endpoint path. An empty path disables it.
func WithMetricsPath(path string) ServerOption {
	return func(s *Server) { s.config.MetricsPath = path }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a server for handler. Recovery, request ID, access
// logging and CORS middleware are applied automatically, and handler is
// instrumented with request metrics.
func NewServer(handler http.Handler, opts ...ServerOption) *Server {
	s := &Server{
		config: DefaultServerConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	fixed := map[string]http.Handler{
		HealthPath: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok\n"))
		}),
	}
	if s.config.MetricsPath != "" {
		fixed[s.config.MetricsPath] = promhttp.Handler()
	}
	root := &endpoints{
		fixed: fixed,
		next:  observability.MetricsMiddleware(Classify, handler),
	}

	chain := transport.Chain(
		transport.Recovery(s.logger),
		transport.RequestID(),
		transport.Logging(s.logger),
		transport.CORS(),
	)

	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           chain(root),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	return s
}

// HealthPath answers liveness probes.
const HealthPath = "/healthz"

// endpoints answers GET and HEAD on the fixed server paths by exact match
// and passes every other request to next with its path untouched. The
// router must see unclean paths, so http.ServeMux is not used here: it
// would redirect them before they reach the resolver. Content-root assets
// named like a fixed path are shadowed.
type endpoints struct {
	fixed map[string]http.Handler
	next  http.Handler
}

func (e *endpoints) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := e.fixed[r.URL.Path]; ok && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		h.ServeHTTP(w, r)
		return
	}
	e.next.ServeHTTP(w, r)
}

// Handler returns the fully wrapped handler. Use this to test with httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.config.Addr
}

// ListenAndServe listens on the configured address and serves until ctx is
// done, then shuts down gracefully, waiting for in-flight requests within
// the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down gracefully", slog.Duration("timeout", s.config.ShutdownTimeout))
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Shutdown gracefully shuts down the server with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
