// Package remote implements analysis.Engine by forwarding queries to an
// external analysis backend over HTTP.
//
// Each query becomes GET {BaseURL}/{operation}?{parameters}. The trace
// query fields and operation arguments are sent as camelCase query
// parameters, the data root as "dataRoot". For getsource the caller's
// authorization header is forwarded in the Authorization header. A 2xx
// response body must be a JSON document and is returned verbatim as a
// json.RawMessage.
package remote
