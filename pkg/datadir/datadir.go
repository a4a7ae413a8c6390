// Package datadir lists the trace files available under the data root.
package datadir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rhuss/traceview/pkg/debug"
)

// NotSetMessage is returned in place of a listing when no data root is
// configured.
const NotSetMessage = "data root not set"

// DefaultPatterns are the trace file patterns the analysis engine can load,
// in listing order.
var DefaultPatterns = []string{"*.etl", "*.btl", "*.netperf", "*.nettrace"}

// Lister enumerates trace files in a single directory. The zero value has
// no data root.
type Lister struct {
	root     string
	patterns []string
}

// New returns a Lister for root. When patterns is empty, DefaultPatterns
// is used. The pattern slice is copied.
func New(root string, patterns ...string) *Lister {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Lister{
		root:     root,
		patterns: append([]string(nil), patterns...),
	}
}

// Root returns the configured data root.
func (l *Lister) Root() string {
	if l == nil {
		return ""
	}
	return l.root
}

// List returns the base names of matching files. Files are grouped by
// pattern in pattern order and sorted descending within each group. A file
// matching several patterns appears once per pattern.
//
// When no data root is configured, List returns NotSetMessage as the
// payload so that clients get a readable answer instead of an error.
func (l *Lister) List() (any, error) {
	if l.Root() == "" {
		return NotSetMessage, nil
	}

	names := []string{}
	for _, pattern := range l.patterns {
		matches, err := filepath.Glob(filepath.Join(l.root, pattern))
		if err != nil {
			return nil, fmt.Errorf("listing %q: %w", pattern, err)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(matches)))
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			names = append(names, filepath.Base(m))
		}
	}

	debug.Log("api", "data directory listed", "root", l.root, "files", len(names))
	return names, nil
}
