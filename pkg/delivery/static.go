package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/rhuss/traceview/pkg/debug"
	"github.com/rhuss/traceview/pkg/observability"
)

// Envelope describes the headers of a response. Callers fill ContentType
// and CacheControl; the delivery functions fill Encoding and ContentLength.
type Envelope struct {
	ContentType  string
	CacheControl string
	Encoding     Scheme
	// ContentLength is -1 when the body length is not known in advance.
	ContentLength int64
}

// LengthKnown reports whether Content-Length is sent with the response.
func (e Envelope) LengthKnown() bool {
	return e.ContentLength >= 0
}

// apply writes the envelope to h. It must run before the first body byte.
func (e Envelope) apply(h http.Header) {
	if e.ContentType != "" {
		h.Set("Content-Type", e.ContentType)
	}
	if e.CacheControl != "" {
		h.Set("Cache-Control", e.CacheControl)
	}
	if tok := e.Encoding.Token(); tok != "" {
		h.Set("Content-Encoding", tok)
	} else {
		h.Del("Content-Encoding")
	}
	if e.LengthKnown() {
		h.Set("Content-Length", strconv.FormatInt(e.ContentLength, 10))
	} else {
		h.Del("Content-Length")
	}
}

// Transfer summarizes a completed or abandoned static transfer.
type Transfer struct {
	Envelope Envelope
	Sidecar  bool
	Written  int64
}

// ServeAsset streams asset to w. When scheme asks for compression and a
// sidecar "<asset>.br" or "<asset>.gz" exists, the sidecar bytes are sent
// with the matching Content-Encoding instead of the original.
//
// If the file cannot be opened, ServeAsset returns an error wrapping
// ErrAssetNotFound and has written nothing. Errors after the headers are
// committed wrap ErrTransferAborted.
func ServeAsset(ctx context.Context, w http.ResponseWriter, asset ResolvedAsset, scheme Scheme, env Envelope) (Transfer, error) {
	if !asset.Servable() {
		return Transfer{}, ErrAssetNotFound
	}

	f, size, encoding, err := openPreferred(asset.AbsolutePath, scheme)
	if err != nil {
		return Transfer{}, fmt.Errorf("%w: %w", ErrAssetNotFound, err)
	}
	defer f.Close()

	env.Encoding = encoding
	env.ContentLength = size
	tr := Transfer{Envelope: env, Sidecar: encoding != SchemeNone}
	if tr.Sidecar {
		observability.SidecarHitsTotal.WithLabelValues(encoding.String()).Inc()
	}

	env.apply(w.Header())
	w.WriteHeader(http.StatusOK)

	n, err := streamFile(ctx, w, f, size)
	tr.Written = n
	observability.StaticBytesTotal.WithLabelValues(encoding.String()).Add(float64(n))
	if err != nil {
		observability.TransfersAbortedTotal.Inc()
		debug.Log("delivery", "transfer aborted", "written", n, "size", size, "error", err)
		return tr, fmt.Errorf("%w: %w", ErrTransferAborted, err)
	}
	return tr, nil
}

// openPreferred opens the sidecar for scheme if one exists, otherwise the
// asset itself, and reports the size and encoding of what was opened.
func openPreferred(path string, scheme Scheme) (*os.File, int64, Scheme, error) {
	if suffix := scheme.SidecarSuffix(); suffix != "" {
		if f, size, err := openRegular(path + suffix); err == nil {
			return f, size, scheme, nil
		}
	}
	f, size, err := openRegular(path)
	if err != nil {
		return nil, 0, SchemeNone, err
	}
	return f, size, SchemeNone, nil
}

func openRegular(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, 0, fmt.Errorf("%s: not a regular file", path)
	}
	return f, info.Size(), nil
}

// streamFile copies exactly size bytes from src to dst through a pooled
// buffer, checking ctx before every read and every write.
func streamFile(ctx context.Context, dst io.Writer, src io.Reader, size int64) (int64, error) {
	buf, release := acquireStreamBuffer()
	defer release()

	var written int64
	for written < size {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		chunk := *buf
		if remaining := size - written; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}
		nr, rerr := src.Read(chunk)
		if nr > 0 {
			if err := ctx.Err(); err != nil {
				return written, err
			}
			nw, werr := dst.Write(chunk[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				if written < size {
					return written, io.ErrUnexpectedEOF
				}
				break
			}
			return written, rerr
		}
	}
	return written, nil
}
