package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/rhuss/traceview/pkg/analysis"
	"github.com/rhuss/traceview/pkg/api"
	"github.com/rhuss/traceview/pkg/datadir"
	"github.com/rhuss/traceview/pkg/debug"
	"github.com/rhuss/traceview/pkg/delivery"
	"github.com/rhuss/traceview/pkg/transport"
)

// Request classes reported by Classify.
const (
	ClassAPI    = "api"
	ClassUI     = "ui"
	ClassStatic = "static"
)

// DefaultIndexFile is the UI shell document under the content root.
const DefaultIndexFile = "index.html"

// Classify assigns a request to the API, the UI shell, or static delivery
// by path prefix.
func Classify(r *http.Request) string {
	switch p := r.URL.Path; {
	case strings.HasPrefix(p, "/api"):
		return ClassAPI
	case strings.HasPrefix(p, "/ui"):
		return ClassUI
	default:
		return ClassStatic
	}
}

// RouterConfig holds the read-only settings a Router is built from.
type RouterConfig struct {
	// ContentRoot is the absolute directory static assets are served from.
	ContentRoot string
	// IndexFile names the UI shell document relative to ContentRoot.
	IndexFile string
	// DataRoot is passed to the engine with every query.
	DataRoot string
	Defaults Defaults
	Engine   analysis.Engine
	// Listing answers the data directory listing. A nil Listing reports
	// that no data root is set.
	Listing *datadir.Lister
	Logger  *slog.Logger
}

// Router dispatches requests to the analysis API, the UI shell, or the
// static content root.
type Router struct {
	contentRoot string
	shellPath   string
	dataRoot    string
	defaults    Defaults
	engine      analysis.Engine
	listing     *datadir.Lister
	logger      *slog.Logger
	api         *http.ServeMux
}

// NewRouter builds a Router. A nil Engine answers every API operation with
// an unavailable error.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.IndexFile == "" {
		cfg.IndexFile = DefaultIndexFile
	}
	if cfg.Engine == nil {
		cfg.Engine = analysis.Unavailable{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	root := filepath.Clean(cfg.ContentRoot)

	rt := &Router{
		contentRoot: root,
		shellPath:   filepath.Join(root, cfg.IndexFile),
		dataRoot:    cfg.DataRoot,
		defaults:    cfg.Defaults,
		engine:      cfg.Engine,
		listing:     cfg.Listing,
		logger:      cfg.Logger,
		api:         http.NewServeMux(),
	}

	for _, route := range Routes {
		rt.api.Handle(route.Pattern(), rt.handleOperation(route))
	}
	rt.api.HandleFunc("GET "+DataDirectoryListingPath, rt.handleDataDirectoryListing)
	rt.api.HandleFunc("/", rt.handleUnknownAPI)

	return rt
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch Classify(r) {
	case ClassAPI:
		// ServeMux would redirect an unclean path to its cleaned form.
		if path.Clean(r.URL.Path) != r.URL.Path {
			rt.handleUnknownAPI(w, r)
			return
		}
		rt.api.ServeHTTP(w, r)
	case ClassUI:
		if !allowRead(w, r) {
			return
		}
		rt.serveShell(w, r)
	default:
		if !allowRead(w, r) {
			return
		}
		rt.serveStatic(w, r)
	}
}

func (rt *Router) serveStatic(w http.ResponseWriter, r *http.Request) {
	asset := delivery.Resolve(rt.contentRoot, r.URL.Path)
	if asset.Servable() {
		rt.deliver(w, r, asset, delivery.Envelope{
			ContentType:  delivery.ContentTypeFor(asset.AbsolutePath),
			CacheControl: delivery.CacheControlImmutable,
		})
		return
	}
	if r.URL.Path == "/" {
		rt.serveShell(w, r)
		return
	}
	debug.Log("delivery", "static miss", "within_root", asset.WithinRoot)
	transport.WriteNotFound(w)
}

// serveShell sends the UI shell document. It is never marked cacheable.
func (rt *Router) serveShell(w http.ResponseWriter, r *http.Request) {
	rt.deliver(w, r, delivery.NewAsset(rt.shellPath), delivery.Envelope{
		ContentType: delivery.ContentTypeHTML,
	})
}

func (rt *Router) deliver(w http.ResponseWriter, r *http.Request, asset delivery.ResolvedAsset, env delivery.Envelope) {
	scheme := delivery.Negotiate(r.Header.Get("Accept-Encoding"))
	w.Header().Add("Vary", "Accept-Encoding")

	tr, err := delivery.ServeAsset(r.Context(), w, asset, scheme, env)
	switch {
	case err == nil:
		debug.Log("delivery", "asset served",
			"encoding", tr.Envelope.Encoding.String(), "sidecar", tr.Sidecar, "bytes", tr.Written)
	case errors.Is(err, delivery.ErrAssetNotFound):
		transport.WriteNotFound(w)
	default:
		// Headers are committed; there is nothing left to tell the client.
		rt.logger.Debug("static transfer aborted",
			slog.String("request_id", transport.RequestIDFromContext(r.Context())),
			slog.Int64("written", tr.Written),
			slog.String("error", err.Error()),
		)
	}
}

func (rt *Router) handleOperation(route Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		req := analysis.Request{
			Operation: route.Operation,
			DataRoot:  rt.dataRoot,
			Trace:     ParseTraceQuery(q),
			Args:      route.Parse(q, rt.defaults),
		}
		debug.Log("api", "query", "operation", req.Operation, "filename", req.Trace.Filename)

		result, err := rt.engine.Query(r.Context(), req)
		if err != nil {
			rt.writeEngineError(w, r, route.Operation, err)
			return
		}
		rt.writeResult(w, r, result)
	}
}

func (rt *Router) handleDataDirectoryListing(w http.ResponseWriter, r *http.Request) {
	result, err := rt.listing.List()
	if err != nil {
		rt.logger.Error("data directory listing failed", slog.String("error", err.Error()))
		transport.WriteAPIError(w, api.NewServerError("data directory listing failed"))
		return
	}
	rt.writeResult(w, r, result)
}

func (rt *Router) handleUnknownAPI(w http.ResponseWriter, r *http.Request) {
	transport.WriteAPIError(w, api.NewNotFoundError("unknown API operation"))
}

func (rt *Router) writeEngineError(w http.ResponseWriter, r *http.Request, op analysis.Operation, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		debug.Log("api", "query cancelled by client", "operation", op)
		return
	}
	apiErr := api.FromEngineError(err)
	level := slog.LevelWarn
	if transport.HTTPStatusFromError(apiErr) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	rt.logger.Log(r.Context(), level, "analysis query failed",
		slog.String("request_id", transport.RequestIDFromContext(r.Context())),
		slog.String("operation", string(op)),
		slog.String("error", err.Error()),
	)
	transport.WriteAPIError(w, apiErr)
}

// writeResult compresses result for the negotiated scheme. Failures that
// occur before the headers are committed become a 500 JSON error.
func (rt *Router) writeResult(w http.ResponseWriter, r *http.Request, result any) {
	scheme := delivery.Negotiate(r.Header.Get("Accept-Encoding"))
	w.Header().Add("Vary", "Accept-Encoding")

	_, err := delivery.WritePayload(r.Context(), w, result, scheme)
	if err == nil {
		return
	}

	reqID := transport.RequestIDFromContext(r.Context())
	var compErr *delivery.CompressionError
	switch {
	case errors.Is(err, delivery.ErrTransferAborted):
		rt.logger.Debug("payload transfer aborted",
			slog.String("request_id", reqID), slog.String("error", err.Error()))
	case r.Context().Err() != nil:
		debug.Log("api", "request cancelled before write", "request_id", reqID)
	case errors.As(err, &compErr):
		rt.logger.Error("payload compression failed",
			slog.String("request_id", reqID),
			slog.String("encoding", compErr.Scheme.String()),
			slog.String("error", compErr.Err.Error()),
		)
		transport.WriteAPIError(w, api.NewServerError("response compression failed"))
	default:
		rt.logger.Error("payload encoding failed",
			slog.String("request_id", reqID), slog.String("error", err.Error()))
		transport.WriteAPIError(w, api.NewServerError("response encoding failed"))
	}
}

// allowRead rejects methods other than GET and HEAD for document routes.
func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "405 Method Not Allowed", http.StatusMethodNotAllowed)
	return false
}
