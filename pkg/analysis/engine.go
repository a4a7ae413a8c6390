// Package analysis defines the contract between the HTTP delivery core and
// the analysis engine that answers trace, call-tree, and symbol queries.
//
// The delivery core treats results as opaque JSON-serializable documents and
// never caches them; caching, trace loading, and symbol resolution are the
// engine's concern. Implementations must be safe for concurrent use.
package analysis

import (
	"context"
	"errors"
)

// Operation names an analysis query. The string value is the name sent to
// remote engines; HTTP routes map onto it in the transport layer.
type Operation string

const (
	OpEventData             Operation = "eventdata"
	OpEventListByName       Operation = "eventliston"
	OpEventListByStackCount Operation = "eventlistos"
	OpProcessChooser        Operation = "processchooser"
	OpProcessInfo           Operation = "processinfo"
	OpModuleList            Operation = "modulelist"
	OpCallerChildren        Operation = "callerchildren"
	OpTreeNode              Operation = "treenode"
	OpHotspots              Operation = "hotspots"
	OpDrillInto             Operation = "drillinto"
	OpLookupWarmSymbols     Operation = "lookupwarmsymbols"
	OpLookupSymbol          Operation = "lookupsymbol"
	OpLookupSymbols         Operation = "lookupsymbols"
	OpGetSource             Operation = "getsource"
	OpTraceInfo             Operation = "traceinfo"
)

// Defaults for optional integer parameters.
const (
	DefaultProcessIndex = -1
	DefaultModuleIndex  = -1
	DefaultMinCount     = 50
)

// TraceQuery selects the trace and the stack view an operation runs against.
// Values are passed through verbatim; interpreting them is up to the engine.
type TraceQuery struct {
	Filename     string `json:"filename,omitempty"`
	StackType    string `json:"stackType,omitempty"`
	Pid          string `json:"pid,omitempty"`
	Start        string `json:"start,omitempty"`
	End          string `json:"end,omitempty"`
	GroupPats    string `json:"groupPats,omitempty"`
	IncPats      string `json:"incPats,omitempty"`
	ExcPats      string `json:"excPats,omitempty"`
	FoldPats     string `json:"foldPats,omitempty"`
	FoldPct      string `json:"foldPct,omitempty"`
	DrillIntoKey string `json:"drillIntoKey,omitempty"`
}

// Args carries the operation-specific parameters. Only the fields relevant
// to the operation are meaningful.
type Args struct {
	Name                string `json:"name,omitempty"`
	Path                string `json:"path,omitempty"`
	ProcessIndex        int    `json:"processIndex"`
	ModuleIndex         int    `json:"moduleIndex"`
	ModuleIndices       []int  `json:"moduleIndices,omitempty"`
	MinCount            int    `json:"minCount"`
	Exclusive           bool   `json:"exclusive,omitempty"`
	AuthorizationHeader string `json:"-"`
}

// DefaultArgs returns Args with every optional parameter at its default.
func DefaultArgs() Args {
	return Args{
		ProcessIndex: DefaultProcessIndex,
		ModuleIndex:  DefaultModuleIndex,
		MinCount:     DefaultMinCount,
	}
}

// Request is a single query to the engine.
type Request struct {
	Operation Operation
	// DataRoot is the absolute directory trace files are loaded from.
	DataRoot string
	Trace    TraceQuery
	Args     Args
}

// Engine answers analysis queries. The returned value must be
// JSON-serializable; the delivery core imposes no other shape on it.
type Engine interface {
	Query(ctx context.Context, req Request) (any, error)
}

// EngineFunc is an adapter that allows using an ordinary function as an Engine.
type EngineFunc func(ctx context.Context, req Request) (any, error)

// Query calls f(ctx, req).
func (f EngineFunc) Query(ctx context.Context, req Request) (any, error) {
	return f(ctx, req)
}

var (
	// ErrNotFound reports that the trace or entity a query refers to does
	// not exist.
	ErrNotFound = errors.New("analysis: not found")

	// ErrInvalidQuery reports that the engine rejected the query parameters.
	ErrInvalidQuery = errors.New("analysis: invalid query")

	// ErrUnavailable reports that no engine is configured or the configured
	// engine cannot be reached.
	ErrUnavailable = errors.New("analysis: engine unavailable")
)

// Unavailable is an Engine that fails every query with ErrUnavailable. It
// is used when the server runs without an analysis backend so that static
// delivery keeps working.
type Unavailable struct{}

// Query implements Engine.
func (Unavailable) Query(context.Context, Request) (any, error) {
	return nil, ErrUnavailable
}
