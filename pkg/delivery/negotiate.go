package delivery

import "strings"

// Scheme is the compression applied to a single response. It is chosen once
// per request and never changes afterwards.
type Scheme int

const (
	SchemeNone Scheme = iota
	SchemeGzip
	SchemeBrotli
)

// Wire tokens for the Content-Encoding header.
const (
	ContentEncodingBrotli = "br"
	ContentEncodingGzip   = "gzip"
)

// String returns a stable label for logs and metrics.
func (s Scheme) String() string {
	switch s {
	case SchemeBrotli:
		return "br"
	case SchemeGzip:
		return "gzip"
	default:
		return "identity"
	}
}

// Token returns the Content-Encoding value for s, or "" for SchemeNone.
func (s Scheme) Token() string {
	switch s {
	case SchemeBrotli:
		return ContentEncodingBrotli
	case SchemeGzip:
		return ContentEncodingGzip
	default:
		return ""
	}
}

// SidecarSuffix returns the file suffix of a precompressed copy for s,
// or "" for SchemeNone.
func (s Scheme) SidecarSuffix() string {
	switch s {
	case SchemeBrotli:
		return ".br"
	case SchemeGzip:
		return ".gz"
	default:
		return ""
	}
}

// Negotiate picks the response compression from a raw Accept-Encoding value.
// Any occurrence of "br" selects Brotli, otherwise any occurrence of "gzip"
// selects GZip. Quality values are not parsed, so "br;q=0" still yields
// Brotli.
func Negotiate(acceptEncoding string) Scheme {
	v := strings.ToLower(acceptEncoding)
	switch {
	case strings.Contains(v, ContentEncodingBrotli):
		return SchemeBrotli
	case strings.Contains(v, ContentEncodingGzip):
		return SchemeGzip
	default:
		return SchemeNone
	}
}
