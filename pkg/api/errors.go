package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/rhuss/traceview/pkg/analysis"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeServerError    ErrorType = "server_error"
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeUnavailable    ErrorType = "engine_unavailable"
)

// APIError represents a structured API error with type, code, param, and message.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an APIError for JSON serialization as the top-level error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewNotFoundError creates an APIError for resources that cannot be found.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewServerError creates an APIError for internal server errors.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}

// NewUnavailableError creates an APIError for an unreachable analysis engine.
func NewUnavailableError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeUnavailable,
		Message: message,
	}
}

// FromEngineError converts an error returned by an analysis engine into an
// APIError. Errors that already are APIErrors pass through unchanged.
// Unclassified failures become a generic server error so that engine
// internals are not echoed to clients.
func FromEngineError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, analysis.ErrNotFound):
		return NewNotFoundError(err.Error())
	case errors.Is(err, analysis.ErrInvalidQuery):
		return NewInvalidRequestError("", err.Error())
	case errors.Is(err, analysis.ErrUnavailable):
		return NewUnavailableError("analysis engine unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return NewUnavailableError("analysis engine timed out")
	default:
		return NewServerError("analysis query failed")
	}
}
