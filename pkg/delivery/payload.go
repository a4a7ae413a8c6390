package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"

	"github.com/rhuss/traceview/pkg/observability"
)

// Brotli parameters for generated payloads: a fast quality level with the
// default window.
const (
	BrotliQuality = 4
	BrotliWindow  = 22
)

var errOutputFull = errors.New("compressed output exceeds worst-case bound")

// MaxBrotliCompressedSize returns the worst-case size of a Brotli stream for
// an input of n bytes, matching the reference encoder's estimate.
func MaxBrotliCompressedSize(n int) int {
	if n == 0 {
		return 2
	}
	largeBlocks := n >> 14
	overhead := 2 + 4*largeBlocks + 3 + 1
	return n + overhead
}

// WritePayload serializes result as JSON and writes it to w compressed for
// scheme. Object keys taken from struct field names are camelCase; explicit
// JSON tags and already encoded values are kept as they are.
//
// Brotli output is produced in one shot so that Content-Length is exact; a
// *CompressionError is returned before anything is written if that fails.
// GZip output is streamed and sent without Content-Length.
func WritePayload(ctx context.Context, w http.ResponseWriter, result any, scheme Scheme) (Envelope, error) {
	data, err := payloadJSON.Marshal(result)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding payload: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Envelope{}, err
	}

	switch scheme {
	case SchemeBrotli:
		return writeBrotli(ctx, w, data)
	case SchemeGzip:
		return writeGzip(ctx, w, data)
	default:
		env := Envelope{ContentType: ContentTypeJSON, Encoding: SchemeNone, ContentLength: int64(len(data))}
		return env, writeBody(w, env, data)
	}
}

func writeBrotli(ctx context.Context, w http.ResponseWriter, data []byte) (Envelope, error) {
	limit := MaxBrotliCompressedSize(len(data))
	out, release := acquirePayloadBuffer(limit)
	defer release()

	if err := compressBrotli(out, data, limit); err != nil {
		observability.CompressionFailuresTotal.WithLabelValues(SchemeBrotli.String()).Inc()
		return Envelope{}, &CompressionError{Scheme: SchemeBrotli, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return Envelope{}, err
	}

	env := Envelope{ContentType: ContentTypeJSON, Encoding: SchemeBrotli, ContentLength: int64(len(*out))}
	return env, writeBody(w, env, *out)
}

// compressBrotli appends the Brotli encoding of data to *dst, failing if the
// output would grow beyond limit bytes.
func compressBrotli(dst *[]byte, data []byte, limit int) error {
	bw := &boundedWriter{buf: dst, limit: limit}
	enc := brotli.NewWriterOptions(bw, brotli.WriterOptions{
		Quality: BrotliQuality,
		LGWin:   BrotliWindow,
	})
	if _, err := enc.Write(data); err != nil {
		return err
	}
	return enc.Close()
}

// boundedWriter appends to a caller-owned slice up to a fixed limit.
type boundedWriter struct {
	buf   *[]byte
	limit int
}

func (b *boundedWriter) Write(p []byte) (int, error) {
	if len(*b.buf)+len(p) > b.limit {
		return 0, errOutputFull
	}
	*b.buf = append(*b.buf, p...)
	return len(p), nil
}

var gzipWriters = sync.Pool{
	New: func() any {
		zw, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return zw
	},
}

func writeGzip(ctx context.Context, w http.ResponseWriter, data []byte) (Envelope, error) {
	env := Envelope{ContentType: ContentTypeJSON, Encoding: SchemeGzip, ContentLength: -1}
	env.apply(w.Header())
	w.WriteHeader(http.StatusOK)

	zw := gzipWriters.Get().(*gzip.Writer)
	defer gzipWriters.Put(zw)
	cw := &countingWriter{w: w}
	zw.Reset(cw)

	_, err := zw.Write(data)
	if err == nil {
		err = ctx.Err()
	}
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	observability.PayloadBytesTotal.WithLabelValues(SchemeGzip.String()).Add(float64(cw.n))
	if err != nil {
		observability.TransfersAbortedTotal.Inc()
		return env, fmt.Errorf("%w: %w", ErrTransferAborted, err)
	}
	return env, nil
}

// writeBody commits env and writes body in one call.
func writeBody(w http.ResponseWriter, env Envelope, body []byte) error {
	env.apply(w.Header())
	w.WriteHeader(http.StatusOK)
	n, err := w.Write(body)
	observability.PayloadBytesTotal.WithLabelValues(env.Encoding.String()).Add(float64(n))
	if err != nil {
		observability.TransfersAbortedTotal.Inc()
		return fmt.Errorf("%w: %w", ErrTransferAborted, err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
