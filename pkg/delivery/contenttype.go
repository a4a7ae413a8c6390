package delivery

import (
	"path/filepath"
	"strings"
)

// Content types recognized for static assets and generated payloads.
const (
	ContentTypeJSON       = "application/json; charset=UTF-8"
	ContentTypeJavaScript = "application/javascript; charset=UTF-8"
	ContentTypeCSS        = "text/css; charset=UTF-8"
	ContentTypeHTML       = "text/html; charset=UTF-8"
	ContentTypePlainText  = "text/plain; charset=UTF-8"
)

// CacheControlImmutable is applied to assets served from the content root.
// The UI shell never gets it so that it is always revalidated.
const CacheControlImmutable = "public, max-age=31536000"

// ContentTypeFor returns the Content-Type for a file path, or "" when the
// extension is not one of .js, .css or .html.
func ContentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js":
		return ContentTypeJavaScript
	case ".css":
		return ContentTypeCSS
	case ".html":
		return ContentTypeHTML
	default:
		return ""
	}
}
