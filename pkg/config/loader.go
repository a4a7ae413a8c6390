package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, TRACEVIEW_CONFIG env, ./config.yaml, /etc/traceview/config.yaml)
//  3. TRACEVIEW_* environment variable overrides
//  4. Positional arguments: <port> <dataRoot>
//  5. File reference resolution (_file suffix)
//  6. Path normalization
//  7. Validation
func Load(configPath string, args ...string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := applyArgs(&cfg, args); err != nil {
		return nil, err
	}

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := normalizePaths(&cfg); err != nil {
		return nil, fmt.Errorf("normalizing paths: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. TRACEVIEW_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/traceview/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("TRACEVIEW_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/traceview/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps TRACEVIEW_* environment variables to config
// fields. Values that do not parse are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRACEVIEW_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TRACEVIEW_CONTENT_ROOT"); v != "" {
		cfg.Content.Root = v
	}
	if v := os.Getenv("TRACEVIEW_DATA_ROOT"); v != "" {
		cfg.Data.Root = v
	}
	if v := os.Getenv("TRACEVIEW_ENGINE_URL"); v != "" {
		cfg.Engine.BackendURL = v
	}
	if v := os.Getenv("TRACEVIEW_ENGINE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Engine.Timeout = d
		}
	}
	if v := os.Getenv("TRACEVIEW_DEFAULT_AUTHORIZATION_HEADER"); v != "" {
		cfg.Source.DefaultAuthorizationHeader = v
	}
	if v := os.Getenv("TRACEVIEW_DEFAULT_AUTHORIZATION_HEADER_FILE"); v != "" {
		cfg.Source.DefaultAuthorizationHeaderFile = v
	}
	if v := os.Getenv("TRACEVIEW_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TRACEVIEW_METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Observability.Metrics.Enabled = enabled
		}
	}
}

// applyArgs applies the positional command line: a port number followed by
// the data root. Either both are given or none.
func applyArgs(cfg *Config, args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 2:
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[0], err)
		}
		cfg.Server.Port = port
		cfg.Data.Root = args[1]
		return nil
	default:
		return fmt.Errorf("expected <port> <dataRoot>, got %d arguments", len(args))
	}
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// If the value field is empty and the file field is set, the file is read,
// whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// source.default_authorization_header_file -> source.default_authorization_header
	if cfg.Source.DefaultAuthorizationHeaderFile != "" && cfg.Source.DefaultAuthorizationHeader == "" {
		val, err := readSecretFile(cfg.Source.DefaultAuthorizationHeaderFile)
		if err != nil {
			return fmt.Errorf("source.default_authorization_header_file: %w", err)
		}
		cfg.Source.DefaultAuthorizationHeader = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// normalizePaths makes the content and data roots absolute and clean.
func normalizePaths(cfg *Config) error {
	if cfg.Content.Root != "" {
		abs, err := filepath.Abs(cfg.Content.Root)
		if err != nil {
			return fmt.Errorf("content.root: %w", err)
		}
		cfg.Content.Root = abs
	}
	if cfg.Data.Root != "" {
		abs, err := filepath.Abs(cfg.Data.Root)
		if err != nil {
			return fmt.Errorf("data.root: %w", err)
		}
		cfg.Data.Root = abs
	}
	return nil
}
