package remote

import "time"

// Config holds configuration for the remote analysis engine client.
type Config struct {
	// BaseURL is the analysis backend URL (e.g., "http://localhost:9090").
	BaseURL string

	// Timeout for individual HTTP requests. Defaults to 120s.
	Timeout time.Duration

	// MaxResponseSize bounds the size of a result document. Defaults to 256 MiB.
	MaxResponseSize int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:         baseURL,
		Timeout:         120 * time.Second,
		MaxResponseSize: 256 << 20,
	}
}
