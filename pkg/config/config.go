// Package config provides unified configuration for the traceview server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (TRACEVIEW_ prefix)
//  4. Positional command line arguments (port, data root)
//  5. File reference resolution (_file suffix fields)
//  6. Path normalization and validation
//
// The loaded Config is read-only and handed to the components that need it.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the traceview server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Content       ContentConfig       `yaml:"content"`
	Data          DataConfig          `yaml:"data"`
	Engine        EngineConfig        `yaml:"engine"`
	Source        SourceConfig        `yaml:"source"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              int           `yaml:"port"`                // default: 8080
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"` // default: 10s
	WriteTimeout      time.Duration `yaml:"write_timeout"`       // default: 0 (none)
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`    // default: 30s
}

// ContentConfig locates the single-page application build.
type ContentConfig struct {
	Root      string `yaml:"root"`       // default: <cwd>/spa/build
	IndexFile string `yaml:"index_file"` // default: index.html
}

// DataConfig locates the trace files.
type DataConfig struct {
	Root string `yaml:"root"`
	// Patterns overrides the trace file patterns used by the directory
	// listing. Empty means the built-in set.
	Patterns []string `yaml:"patterns"`
}

// EngineConfig holds analysis engine settings. Without a BackendURL the
// API answers every operation with engine_unavailable.
type EngineConfig struct {
	BackendURL      string        `yaml:"backend_url"`
	Timeout         time.Duration `yaml:"timeout"`           // default: 120s
	MaxResponseSize int64         `yaml:"max_response_size"` // default: 256 MiB
}

// SourceConfig holds settings for source file retrieval.
type SourceConfig struct {
	DefaultAuthorizationHeader     string `yaml:"default_authorization_header"`
	DefaultAuthorizationHeaderFile string `yaml:"default_authorization_header_file"` // _file variant
}

// LoggingConfig controls the slog handler and debug categories.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:              8080,
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Content: ContentConfig{
			Root:      defaultContentRoot(),
			IndexFile: "index.html",
		},
		Engine: EngineConfig{
			Timeout:         120 * time.Second,
			MaxResponseSize: 256 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// defaultContentRoot is spa/build under the working directory.
func defaultContentRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return filepath.Join("spa", "build")
	}
	return filepath.Join(wd, "spa", "build")
}

// IndexPath returns the absolute path of the UI shell document.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Content.Root, c.Content.IndexFile)
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
