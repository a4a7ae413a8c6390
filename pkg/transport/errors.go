package transport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rhuss/traceview/pkg/api"
)

// NotFoundBody is the plain text body of a static 404 response.
const NotFoundBody = "404 Not Found"

// HTTPStatusFromError maps an APIError type to the corresponding HTTP status
// code.
func HTTPStatusFromError(err *api.APIError) int {
	switch err.Type {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error response using the ErrorResponse
// wrapper format from pkg/api. It sets the Content-Type header and writes
// the HTTP status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	h := w.Header()
	h.Del("Content-Encoding")
	h.Del("Content-Length")
	h.Del("Cache-Control")
	h.Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// WriteAPIError writes an APIError response, deriving the HTTP status code
// from the error type.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}

// WriteNotFound writes the plain text 404 used for static asset misses.
// The body never mentions the requested or resolved path.
func WriteNotFound(w http.ResponseWriter) {
	h := w.Header()
	h.Del("Content-Encoding")
	h.Del("Cache-Control")
	h.Set("Content-Type", "text/plain; charset=UTF-8")
	h.Set("Content-Length", strconv.Itoa(len(NotFoundBody)))
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(NotFoundBody))
}
