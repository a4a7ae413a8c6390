package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rhuss/traceview/pkg/analysis"
)

// Defaults carries process-wide fallbacks used while parsing query
// parameters.
type Defaults struct {
	// AuthorizationHeader is forwarded by getsource when the caller does not
	// supply one.
	AuthorizationHeader string
}

// ParseFunc extracts operation arguments from a query string. Parsing never
// fails: absent or malformed values fall back to their defaults.
type ParseFunc func(q url.Values, d Defaults) analysis.Args

// Route maps an API path onto an analysis operation.
type Route struct {
	Method    string
	Path      string
	Operation analysis.Operation
	Parse     ParseFunc
}

// Pattern returns the ServeMux pattern for the route.
func (r Route) Pattern() string {
	return r.Method + " " + r.Path
}

// Routes is the fixed API route table. The misspelled lookupymbols path is
// what deployed clients call.
var Routes = []Route{
	{http.MethodGet, "/api/eventdata", analysis.OpEventData, parseNone},
	{http.MethodGet, "/api/eventliston", analysis.OpEventListByName, parseNone},
	{http.MethodGet, "/api/eventlistos", analysis.OpEventListByStackCount, parseNone},
	{http.MethodGet, "/api/processchooser", analysis.OpProcessChooser, parseNone},
	{http.MethodGet, "/api/processinfo", analysis.OpProcessInfo, parseProcessInfo},
	{http.MethodGet, "/api/modulelist", analysis.OpModuleList, parseNone},
	{http.MethodGet, "/api/callerchildren", analysis.OpCallerChildren, parseNamePath},
	{http.MethodGet, "/api/treenode", analysis.OpTreeNode, parseName},
	{http.MethodGet, "/api/hotspots", analysis.OpHotspots, parseNone},
	{http.MethodGet, "/api/drillinto", analysis.OpDrillInto, parseDrillInto(false)},
	{http.MethodGet, "/api/drillinto/exclusive", analysis.OpDrillInto, parseDrillInto(true)},
	{http.MethodGet, "/api/lookupwarmsymbols", analysis.OpLookupWarmSymbols, parseLookupWarmSymbols},
	{http.MethodGet, "/api/lookupsymbol", analysis.OpLookupSymbol, parseLookupSymbol},
	{http.MethodGet, "/api/lookupymbols", analysis.OpLookupSymbols, parseLookupSymbols},
	{http.MethodGet, "/api/getsource", analysis.OpGetSource, parseGetSource},
	{http.MethodGet, "/api/traceinfo", analysis.OpTraceInfo, parseNone},
}

// DataDirectoryListingPath is answered by the server itself from the data
// root rather than by the analysis engine.
const DataDirectoryListingPath = "/api/datadirectorylisting"

func parseNone(url.Values, Defaults) analysis.Args {
	return analysis.DefaultArgs()
}

func parseProcessInfo(q url.Values, _ Defaults) analysis.Args {
	args := analysis.DefaultArgs()
	args.ProcessIndex = intParam(q, "processIndex", analysis.DefaultProcessIndex)
	return args
}

func parseName(q url.Values, _ Defaults) analysis.Args {
	args := analysis.DefaultArgs()
	args.Name = param(q, "name")
	return args
}

func parseNamePath(q url.Values, _ Defaults) analysis.Args {
	args := analysis.DefaultArgs()
	args.Name = param(q, "name")
	args.Path = param(q, "path")
	return args
}

func parseDrillInto(exclusive bool) ParseFunc {
	return func(q url.Values, d Defaults) analysis.Args {
		args := parseNamePath(q, d)
		args.Exclusive = exclusive
		return args
	}
}

func parseLookupWarmSymbols(q url.Values, _ Defaults) analysis.Args {
	args := analysis.DefaultArgs()
	args.MinCount = intParam(q, "minCount", analysis.DefaultMinCount)
	return args
}

func parseLookupSymbol(q url.Values, _ Defaults) analysis.Args {
	args := analysis.DefaultArgs()
	args.ModuleIndex = intParam(q, "moduleIndex", analysis.DefaultModuleIndex)
	return args
}

func parseLookupSymbols(q url.Values, _ Defaults) analysis.Args {
	args := analysis.DefaultArgs()
	args.ModuleIndices = intListParam(q, "moduleIndices")
	return args
}

func parseGetSource(q url.Values, d Defaults) analysis.Args {
	args := parseNamePath(q, d)
	if v, ok := lookup(q, "authorizationHeader"); ok {
		args.AuthorizationHeader = v
	} else {
		args.AuthorizationHeader = d.AuthorizationHeader
	}
	return args
}

// ParseTraceQuery extracts the trace selection shared by every operation.
func ParseTraceQuery(q url.Values) analysis.TraceQuery {
	return analysis.TraceQuery{
		Filename:     param(q, "filename"),
		StackType:    param(q, "stackType"),
		Pid:          param(q, "pid"),
		Start:        param(q, "start"),
		End:          param(q, "end"),
		GroupPats:    param(q, "groupPats"),
		IncPats:      param(q, "incPats"),
		ExcPats:      param(q, "excPats"),
		FoldPats:     param(q, "foldPats"),
		FoldPct:      param(q, "foldPct"),
		DrillIntoKey: param(q, "drillIntoKey"),
	}
}

// lookup returns the first value for key. Keys match case-insensitively,
// with an exact match taking precedence.
func lookup(q url.Values, key string) (string, bool) {
	if vs, ok := q[key]; ok && len(vs) > 0 {
		return vs[0], true
	}
	for k, vs := range q {
		if len(vs) > 0 && strings.EqualFold(k, key) {
			return vs[0], true
		}
	}
	return "", false
}

func param(q url.Values, key string) string {
	v, _ := lookup(q, key)
	return v
}

func intParam(q url.Values, key string, def int) int {
	v, ok := lookup(q, key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// intListParam parses a comma-separated list of integers. Entries that do
// not parse are skipped; an absent or empty parameter yields nil.
func intListParam(q url.Values, key string) []int {
	v, ok := lookup(q, key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	var out []int
	for _, field := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
