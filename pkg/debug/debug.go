// Package debug provides category-based debug logging for traceview.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): TRACEVIEW_DEBUG env or logging.debug config
//   - Levels (HOW MUCH detail): TRACEVIEW_LOG_LEVEL env or logging.level config
//
// Usage:
//
//	debug.Log("engine", "query", "operation", op, "url", url)
//	if debug.Enabled("delivery") { /* expensive formatting */ }
//
// Categories: delivery, api, engine, datadir, transport, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity.
const LevelTrace = slog.LevelDebug - 4

// categories holds the set of enabled debug categories.
// Access is read-only after Init(), so no synchronization needed.
var categories map[string]bool

func init() {
	categories = parseCategories(os.Getenv("TRACEVIEW_DEBUG"))
}

// Options selects categories, level and output format. Environment
// variables take precedence over these values.
type Options struct {
	Categories string
	Level      string
	Format     string // "text" (default) or "json"
	Output     io.Writer
}

// Init configures the debug categories and installs the default slog
// logger. It returns the installed logger.
func Init(opts Options) *slog.Logger {
	cats := os.Getenv("TRACEVIEW_DEBUG")
	if cats == "" {
		cats = opts.Categories
	}
	categories = parseCategories(cats)

	level := os.Getenv("TRACEVIEW_LOG_LEVEL")
	if level == "" {
		level = opts.Level
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
// Only visible when TRACEVIEW_LOG_LEVEL=TRACE.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the enabled categories in sorted order.
func Categories() []string {
	result := make([]string, 0, len(categories))
	for k := range categories {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
