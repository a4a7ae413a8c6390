package delivery

import (
	"errors"
	"fmt"
)

var (
	// ErrAssetNotFound reports that a static asset could not be opened
	// before any response byte was written. Callers answer 404.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrTransferAborted reports that a transfer stopped after the
	// response headers were committed, either because the client went
	// away or because the underlying file could not be read to the end.
	ErrTransferAborted = errors.New("transfer aborted")
)

// CompressionError reports that a payload could not be compressed for the
// negotiated scheme. Nothing has been written to the response when it is
// returned.
type CompressionError struct {
	Scheme Scheme
	Err    error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("%s compression failed: %v", e.Scheme, e.Err)
}

func (e *CompressionError) Unwrap() error {
	return e.Err
}
