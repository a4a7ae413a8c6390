// Package delivery implements the content-negotiated response pipeline of
// the trace viewer: accept-encoding negotiation, content-root confined path
// resolution, precompressed sidecar lookup with bounded-buffer streaming,
// and on-the-fly compression of generated JSON payloads.
//
// # Negotiation
//
// Negotiate maps the raw Accept-Encoding header to exactly one Scheme using
// the fixed priority Brotli > GZip > None. Matching is a case-insensitive
// substring test; quality values are ignored. This permissive behavior is
// part of the wire contract with existing clients.
//
// # Static assets
//
// Resolve confines a request path to a content root, checking the prefix
// after normalization. ServeAsset then streams the resolved file (or its
// ".br"/".gz" sidecar) through a pooled 80 KiB buffer, setting
// Content-Length before the first body byte and observing context
// cancellation on every read and write.
//
// # Dynamic payloads
//
// WritePayload serializes a result to JSON and compresses it for the
// negotiated scheme. Brotli output is produced in one shot into a pooled
// buffer so the exact Content-Length is known; GZip output is streamed.
package delivery
