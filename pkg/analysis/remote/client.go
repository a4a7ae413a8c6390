package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rhuss/traceview/pkg/analysis"
	"github.com/rhuss/traceview/pkg/debug"
)

// Client is an analysis.Engine backed by a remote HTTP service.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	maxResponseSize int64
}

// Ensure Client implements analysis.Engine at compile time.
var _ analysis.Engine = (*Client)(nil)

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote engine: base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("remote engine: invalid base URL %q", cfg.BaseURL)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = 256 << 20
	}

	return &Client{
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		maxResponseSize: cfg.MaxResponseSize,
	}, nil
}

// Query implements analysis.Engine.
func (c *Client) Query(ctx context.Context, req analysis.Request) (any, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(string(req.Operation)) + "?" + EncodeQuery(req).Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building engine request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Operation == analysis.OpGetSource && req.Args.AuthorizationHeader != "" {
		httpReq.Header.Set("Authorization", req.Args.AuthorizationHeader)
	}

	debug.Log("engine", "query", "operation", req.Operation, "url", debug.Truncate(endpoint, 512))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapHTTPError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, mapNetworkError(ctx, err)
	}
	if int64(len(data)) > c.maxResponseSize {
		return nil, fmt.Errorf("engine result for %s exceeds %d bytes", req.Operation, c.maxResponseSize)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("engine result for %s is not valid JSON", req.Operation)
	}

	debug.Trace("engine", "result", "operation", req.Operation, "body", debug.Truncate(string(data), 2048))
	return json.RawMessage(data), nil
}

// EncodeQuery renders a request as backend query parameters. Empty string
// fields are omitted; numeric and boolean arguments are sent only for the
// operations that take them.
func EncodeQuery(req analysis.Request) url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}

	set("dataRoot", req.DataRoot)

	t := req.Trace
	set("filename", t.Filename)
	set("stackType", t.StackType)
	set("pid", t.Pid)
	set("start", t.Start)
	set("end", t.End)
	set("groupPats", t.GroupPats)
	set("incPats", t.IncPats)
	set("excPats", t.ExcPats)
	set("foldPats", t.FoldPats)
	set("foldPct", t.FoldPct)
	set("drillIntoKey", t.DrillIntoKey)

	a := req.Args
	set("name", a.Name)
	set("path", a.Path)

	switch req.Operation {
	case analysis.OpProcessInfo:
		q.Set("processIndex", strconv.Itoa(a.ProcessIndex))
	case analysis.OpLookupSymbol:
		q.Set("moduleIndex", strconv.Itoa(a.ModuleIndex))
	case analysis.OpLookupWarmSymbols:
		q.Set("minCount", strconv.Itoa(a.MinCount))
	case analysis.OpLookupSymbols:
		if len(a.ModuleIndices) > 0 {
			parts := make([]string, len(a.ModuleIndices))
			for i, idx := range a.ModuleIndices {
				parts[i] = strconv.Itoa(idx)
			}
			q.Set("moduleIndices", strings.Join(parts, ","))
		}
	case analysis.OpDrillInto:
		q.Set("exclusive", strconv.FormatBool(a.Exclusive))
	}

	return q
}
