package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rhuss/traceview/pkg/analysis"
)

// BackendError describes a non-2xx answer from the analysis backend. It
// unwraps to the analysis sentinel matching the status code.
type BackendError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("analysis backend returned HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.kind
}

// mapHTTPError converts a non-2xx backend response into a *BackendError.
func mapHTTPError(resp *http.Response) *BackendError {
	message := extractErrorMessage(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		if message == "" {
			message = "trace or entity not found"
		}
		return &BackendError{StatusCode: resp.StatusCode, Message: message, kind: analysis.ErrNotFound}

	case resp.StatusCode == http.StatusBadRequest:
		if message == "" {
			message = "invalid query"
		}
		return &BackendError{StatusCode: resp.StatusCode, Message: message, kind: analysis.ErrInvalidQuery}

	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusBadGateway:
		if message == "" {
			message = "backend unavailable"
		}
		return &BackendError{StatusCode: resp.StatusCode, Message: message, kind: analysis.ErrUnavailable}

	default:
		if message == "" {
			message = fmt.Sprintf("unexpected backend error (HTTP %d)", resp.StatusCode)
		}
		return &BackendError{StatusCode: resp.StatusCode, Message: message}
	}
}

// mapNetworkError converts a transport failure into an error wrapping
// analysis.ErrUnavailable. When ctx itself is done the context error is
// returned instead, so callers can tell a client disconnect from a
// backend outage.
func mapNetworkError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return fmt.Errorf("%w: request timed out: %v", analysis.ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", analysis.ErrUnavailable, err)
}

// extractErrorMessage reads an error message from a backend body. It accepts
// {"error":{"message":...}}, {"message":...} or plain text.
func extractErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}

	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &envelope) == nil {
		if envelope.Error != nil && envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return strings.TrimSpace(string(data))
}
