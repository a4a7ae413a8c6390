package delivery

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolvedAsset is the outcome of mapping a request path onto the content
// root. A path that escapes the root is reported with WithinRoot=false and
// must be treated as absent whatever Exists says.
type ResolvedAsset struct {
	AbsolutePath string
	Exists       bool
	WithinRoot   bool
}

// Servable reports whether the asset may be opened and sent.
func (a ResolvedAsset) Servable() bool {
	return a.WithinRoot && a.Exists
}

// Resolve joins requestPath onto root and confines the result to root.
// root must be absolute and clean. The containment check runs on the
// normalized path, so ".." segments cannot climb out of the root.
// Malformed input never panics; it resolves to a non-servable asset.
func Resolve(root, requestPath string) ResolvedAsset {
	if root == "" || !filepath.IsAbs(root) || strings.ContainsRune(requestPath, 0) {
		return ResolvedAsset{}
	}
	root = filepath.Clean(root)

	rel := strings.TrimLeft(filepath.FromSlash(requestPath), string(filepath.Separator))
	full := filepath.Clean(filepath.Join(root, rel))

	if !within(root, full) {
		return ResolvedAsset{}
	}

	asset := ResolvedAsset{AbsolutePath: full, WithinRoot: true}
	if info, err := os.Stat(full); err == nil && info.Mode().IsRegular() {
		asset.Exists = true
	}
	return asset
}

// within reports whether path equals root or lies beneath it.
func within(root, path string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// NewAsset resolves a file whose path is fixed by configuration rather than
// by the request, such as the UI shell document. The asset is within its
// own directory by construction.
func NewAsset(path string) ResolvedAsset {
	path = filepath.Clean(path)
	asset := ResolvedAsset{AbsolutePath: path, WithinRoot: true}
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		asset.Exists = true
	}
	return asset
}
