// Command server runs the traceview HTTP server.
//
// Usage:
//
//	server [-config path] [<port> <dataRoot>]
//
// Configuration is layered: defaults, YAML file (-config, TRACEVIEW_CONFIG,
// ./config.yaml, /etc/traceview/config.yaml), TRACEVIEW_* environment
// variables, then the positional arguments. Frequently used variables:
//
//	TRACEVIEW_PORT                         - Listen port (default: 8080)
//	TRACEVIEW_DATA_ROOT                    - Directory trace files are loaded from
//	TRACEVIEW_CONTENT_ROOT                 - SPA build directory (default: ./spa/build)
//	TRACEVIEW_ENGINE_URL                   - Analysis backend URL (optional)
//	TRACEVIEW_DEFAULT_AUTHORIZATION_HEADER - Fallback header for getsource
//	TRACEVIEW_DEBUG                        - Debug categories (delivery,api,engine,all)
//	TRACEVIEW_LOG_LEVEL                    - TRACE, DEBUG, INFO, WARN, ERROR
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rhuss/traceview/pkg/analysis"
	"github.com/rhuss/traceview/pkg/analysis/remote"
	"github.com/rhuss/traceview/pkg/config"
	"github.com/rhuss/traceview/pkg/datadir"
	"github.com/rhuss/traceview/pkg/debug"
	transporthttp "github.com/rhuss/traceview/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config path] [<port> <dataRoot>]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath, flag.Args()...)
	if err != nil {
		return err
	}

	logger := debug.Init(debug.Options{
		Categories: cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
	})
	if cats := debug.Categories(); len(cats) > 0 {
		logger.Info("debug categories enabled", "categories", cats)
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	var listing *datadir.Lister
	if cfg.Data.Root != "" {
		listing = datadir.New(cfg.Data.Root, cfg.Data.Patterns...)
	} else {
		logger.Warn("no data root configured; directory listing is disabled")
	}

	if _, err := os.Stat(cfg.IndexPath()); err != nil {
		logger.Warn("UI shell document not found", "path", cfg.IndexPath())
	}

	router := transporthttp.NewRouter(transporthttp.RouterConfig{
		ContentRoot: cfg.Content.Root,
		IndexFile:   cfg.Content.IndexFile,
		DataRoot:    cfg.Data.Root,
		Defaults: transporthttp.Defaults{
			AuthorizationHeader: cfg.Source.DefaultAuthorizationHeader,
		},
		Engine:  eng,
		Listing: listing,
		Logger:  logger,
	})

	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}

	srv := transporthttp.NewServer(router,
		transporthttp.WithAddr(cfg.Addr()),
		transporthttp.WithReadHeaderTimeout(cfg.Server.ReadHeaderTimeout),
		transporthttp.WithWriteTimeout(cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithMetricsPath(metricsPath),
		transporthttp.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("traceview starting",
			"addr", cfg.Addr(),
			"content_root", cfg.Content.Root,
			"data_root", cfg.Data.Root,
			"engine", cfg.Engine.BackendURL,
		)
		return srv.ListenAndServe(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		// Restore default signal handling so a second signal exits at once.
		stop()
		return nil
	})

	return g.Wait()
}

// newEngine connects to the configured analysis backend. Without one, API
// operations answer engine_unavailable while static delivery keeps working.
func newEngine(cfg *config.Config) (analysis.Engine, error) {
	if cfg.Engine.BackendURL == "" {
		slog.Warn("no analysis engine configured; API operations will be unavailable")
		return analysis.Instrument(analysis.Unavailable{}), nil
	}

	rcfg := remote.DefaultConfig(cfg.Engine.BackendURL)
	rcfg.Timeout = cfg.Engine.Timeout
	if cfg.Engine.MaxResponseSize > 0 {
		rcfg.MaxResponseSize = cfg.Engine.MaxResponseSize
	}
	client, err := remote.New(rcfg)
	if err != nil {
		return nil, fmt.Errorf("creating analysis engine client: %w", err)
	}
	return analysis.Instrument(client), nil
}
