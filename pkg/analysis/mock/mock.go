// Package mock implements a deterministic analysis backend speaking the
// protocol used by the remote engine client: GET /{operation}?{query}
// answered with a JSON document.
//
// Results are synthesized from the query alone, so the same request always
// yields the same bytes. Trace files are checked for existence under the
// dataRoot parameter when one is sent.
package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rhuss/traceview/pkg/analysis"
)

// DefaultHotspotCount is the number of nodes returned by hotspots. It is
// large enough that compressed responses are noticeably smaller.
const DefaultHotspotCount = 500

// Event is one row of an event listing.
type Event struct {
	Timestamp   float64 `json:"timestamp"`
	EventName   string  `json:"eventName"`
	ProcessName string  `json:"processName"`
	Rest        string  `json:"rest,omitempty"`
}

// EventType is one entry of the event type chooser.
type EventType struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	StackCount int    `json:"stackCount"`
	EventCount int    `json:"eventCount"`
}

// Process describes a process seen in the trace.
type Process struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	CPUMSec float64 `json:"cpumsec"`
}

// TreeNode is a call tree node.
type TreeNode struct {
	ID              string  `json:"id"`
	Path            string  `json:"path"`
	Name            string  `json:"name"`
	InclusiveMetric float64 `json:"inclusiveMetric"`
	ExclusiveMetric float64 `json:"exclusiveMetric"`
	InclusiveCount  int     `json:"inclusiveCount"`
	HasChildren     bool    `json:"hasChildren"`
}

// Module is a loaded image.
type Module struct {
	Index         int    `json:"index"`
	Name          string `json:"name"`
	Path          string `json:"path"`
	SymbolsLoaded bool   `json:"symbolsLoaded"`
}

// Source is the answer to getsource.
type Source struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Authorized bool   `json:"authorized"`
	Data       string `json:"data"`
}

// TraceInfo summarizes a trace file.
type TraceInfo struct {
	Filename     string  `json:"filename"`
	EventCount   int     `json:"eventCount"`
	DurationMSec float64 `json:"durationMSec"`
	ProcessCount int     `json:"processCount"`
}

var processes = []Process{
	{ID: 4, Name: "System", CPUMSec: 120.5},
	{ID: 1024, Name: "explorer", CPUMSec: 310.25},
	{ID: 4242, Name: "traceapp", CPUMSec: 2048},
}

var modules = []Module{
	{Index: 0, Name: "ntdll.dll", Path: `C:\Windows\System32\ntdll.dll`},
	{Index: 1, Name: "kernel32.dll", Path: `C:\Windows\System32\kernel32.dll`},
	{Index: 2, Name: "traceapp.dll", Path: `C:\app\traceapp.dll`},
}

// Handler serves the mock backend.
type Handler struct {
	mux          *http.ServeMux
	hotspotCount int
}

// Option configures a Handler.
type Option func(*Handler)

// WithHotspotCount sets how many nodes hotspots returns.
func WithHotspotCount(n int) Option {
	return func(h *Handler) { h.hotspotCount = n }
}

// NewHandler returns the mock backend handler.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{mux: http.NewServeMux(), hotspotCount: DefaultHotspotCount}
	for _, opt := range opts {
		opt(h)
	}
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	h.mux.HandleFunc("GET /{operation}", h.handleOperation)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleOperation(w http.ResponseWriter, r *http.Request) {
	op := analysis.Operation(r.PathValue("operation"))
	q := r.URL.Query()

	filename := q.Get("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "filename is required")
		return
	}
	if root := q.Get("dataRoot"); root != "" {
		if _, err := os.Stat(filepath.Join(root, filepath.Base(filename))); err != nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("trace %s not found", filepath.Base(filename)))
			return
		}
	}

	result, status, msg := h.answer(op, q, r.Header.Get("Authorization"))
	if status != http.StatusOK {
		writeError(w, status, msg)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *Handler) answer(op analysis.Operation, q url.Values, authorization string) (any, int, string) {
	get := q.Get
	atoi := func(key string, def int) int {
		n, err := strconv.Atoi(get(key))
		if err != nil {
			return def
		}
		return n
	}

	switch op {
	case analysis.OpEventData:
		events := make([]Event, 0, 10)
		for i := 0; i < 10; i++ {
			p := processes[i%len(processes)]
			events = append(events, Event{
				Timestamp:   float64(i) * 1.5,
				EventName:   "Microsoft-Windows-Kernel/Thread/Start",
				ProcessName: fmt.Sprintf("%s (%d)", p.Name, p.ID),
			})
		}
		return events, http.StatusOK, ""

	case analysis.OpEventListByName, analysis.OpEventListByStackCount:
		types := []EventType{
			{ID: 0, Name: "CPU Samples", StackCount: 900, EventCount: 1000},
			{ID: 1, Name: "Disk I/O", StackCount: 40, EventCount: 50},
			{ID: 2, Name: "Allocations", StackCount: 300, EventCount: 300},
		}
		if op == analysis.OpEventListByStackCount {
			types[1], types[2] = types[2], types[1]
		}
		return types, http.StatusOK, ""

	case analysis.OpProcessChooser:
		return processes, http.StatusOK, ""

	case analysis.OpProcessInfo:
		idx := atoi("processIndex", analysis.DefaultProcessIndex)
		if idx == analysis.DefaultProcessIndex {
			return processes, http.StatusOK, ""
		}
		if idx < 0 || idx >= len(processes) {
			return nil, http.StatusNotFound, fmt.Sprintf("process index %d out of range", idx)
		}
		return processes[idx], http.StatusOK, ""

	case analysis.OpModuleList:
		return modules, http.StatusOK, ""

	case analysis.OpCallerChildren, analysis.OpDrillInto:
		name, path := get("name"), get("path")
		nodes := make([]TreeNode, 0, 3)
		for i := 0; i < 3; i++ {
			nodes = append(nodes, TreeNode{
				ID:              fmt.Sprintf("%s/%d", path, i),
				Path:            strings.TrimPrefix(fmt.Sprintf("%s/%d", path, i), "/"),
				Name:            fmt.Sprintf("%s!child%d", name, i),
				InclusiveMetric: float64(100 - 30*i),
				ExclusiveMetric: float64(10 - 3*i),
				InclusiveCount:  100 - 30*i,
				HasChildren:     i == 0,
			})
		}
		if op == analysis.OpDrillInto && get("exclusive") == "true" {
			nodes = nodes[:1]
		}
		return nodes, http.StatusOK, ""

	case analysis.OpTreeNode:
		name := get("name")
		if name == "" {
			name = "ROOT"
		}
		return TreeNode{ID: name, Name: name, InclusiveMetric: 100, InclusiveCount: 100, HasChildren: true}, http.StatusOK, ""

	case analysis.OpHotspots:
		nodes := make([]TreeNode, 0, h.hotspotCount)
		for i := 0; i < h.hotspotCount; i++ {
			nodes = append(nodes, TreeNode{
				ID:              strconv.Itoa(i),
				Name:            fmt.Sprintf("traceapp!Namespace.Type.Method%d", i),
				InclusiveMetric: float64(h.hotspotCount - i),
				ExclusiveMetric: float64(h.hotspotCount-i) / 2,
				InclusiveCount:  h.hotspotCount - i,
			})
		}
		return nodes, http.StatusOK, ""

	case analysis.OpLookupWarmSymbols:
		minCount := atoi("minCount", analysis.DefaultMinCount)
		return map[string]any{"minCount": minCount, "resolved": len(modules)}, http.StatusOK, ""

	case analysis.OpLookupSymbol:
		idx := atoi("moduleIndex", analysis.DefaultModuleIndex)
		if idx < 0 || idx >= len(modules) {
			return nil, http.StatusBadRequest, fmt.Sprintf("module index %d out of range", idx)
		}
		m := modules[idx]
		m.SymbolsLoaded = true
		return m, http.StatusOK, ""

	case analysis.OpLookupSymbols:
		var out []Module
		for _, field := range strings.Split(get("moduleIndices"), ",") {
			idx, err := strconv.Atoi(field)
			if err != nil || idx < 0 || idx >= len(modules) {
				continue
			}
			m := modules[idx]
			m.SymbolsLoaded = true
			out = append(out, m)
		}
		if out == nil {
			out = []Module{}
		}
		return out, http.StatusOK, ""

	case analysis.OpGetSource:
		name := get("name")
		return Source{
			Name:       name,
			URL:        "https://sources.example.com/" + strings.ReplaceAll(name, "!", "/"),
			Authorized: authorization != "",
			Data:       "// source for " + name,
		}, http.StatusOK, ""

	case analysis.OpTraceInfo:
		return TraceInfo{
			Filename:     filepath.Base(get("filename")),
			EventCount:   1350,
			DurationMSec: 15000,
			ProcessCount: len(processes),
		}, http.StatusOK, ""

	default:
		return nil, http.StatusNotFound, fmt.Sprintf("unknown operation %q", op)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"message": message},
	})
}
