package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be a valid TCP port.
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must not be negative"))
	}

	// content.root is the traversal boundary and must be absolute and clean.
	switch {
	case c.Content.Root == "":
		errs = append(errs, fmt.Errorf("content.root is required"))
	case !filepath.IsAbs(c.Content.Root):
		errs = append(errs, fmt.Errorf("content.root must be absolute, got %q", c.Content.Root))
	case filepath.Clean(c.Content.Root) != c.Content.Root:
		errs = append(errs, fmt.Errorf("content.root must be a clean path, got %q", c.Content.Root))
	}

	// content.index_file must stay inside the content root.
	if c.Content.IndexFile == "" || !filepath.IsLocal(c.Content.IndexFile) {
		errs = append(errs, fmt.Errorf("content.index_file must be a relative path inside content.root, got %q", c.Content.IndexFile))
	}

	if c.Data.Root != "" && !filepath.IsAbs(c.Data.Root) {
		errs = append(errs, fmt.Errorf("data.root must be absolute, got %q", c.Data.Root))
	}
	for i, p := range c.Data.Patterns {
		if _, err := filepath.Match(p, ""); err != nil || strings.ContainsRune(p, filepath.Separator) {
			errs = append(errs, fmt.Errorf("data.patterns[%d] is not a valid file pattern: %q", i, p))
		}
	}

	// engine.backend_url is optional but must be an http(s) URL when set.
	if c.Engine.BackendURL != "" {
		u, err := url.Parse(c.Engine.BackendURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("engine.backend_url must be an http or https URL, got %q", c.Engine.BackendURL))
		}
	}
	if c.Engine.Timeout < 0 {
		errs = append(errs, fmt.Errorf("engine.timeout must not be negative"))
	}
	if c.Engine.MaxResponseSize < 0 {
		errs = append(errs, fmt.Errorf("engine.max_response_size must not be negative"))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, got %q", c.Logging.Level))
	}

	if c.Observability.Metrics.Enabled {
		p := c.Observability.Metrics.Path
		switch {
		case !strings.HasPrefix(p, "/"):
			errs = append(errs, fmt.Errorf("observability.metrics.path must start with /, got %q", p))
		case strings.HasPrefix(p, "/api") || strings.HasPrefix(p, "/ui") || p == "/" || p == "/healthz":
			errs = append(errs, fmt.Errorf("observability.metrics.path %q collides with an application route", p))
		}
	}

	return errors.Join(errs...)
}
