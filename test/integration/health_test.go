package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/healthz")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "ok") {
		t.Errorf("body = %q, want to contain 'ok'", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	// Generate some traffic first.
	readBody(t, get(t, testEnv.BaseURL()+"/static/js/main.js", "br"))
	readBody(t, get(t, testEnv.BaseURL()+"/api/hotspots?filename=2024-01-01.etl", "br"))

	resp := getURL(t, testEnv.BaseURL()+"/metrics")
	body := string(readBody(t, resp))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	for _, name := range []string{
		"traceview_requests_total",
		"traceview_request_duration_seconds",
		"traceview_sidecar_hits_total",
		"traceview_static_bytes_total",
		"traceview_payload_bytes_total",
		"traceview_engine_requests_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestRequestIDEcho(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, testEnv.BaseURL()+"/", nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("X-Request-ID", "integration-42")

	resp, err := rawClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "integration-42" {
		t.Errorf("X-Request-ID = %q, want echoed value", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	req, err := http.NewRequest(http.MethodOptions, testEnv.BaseURL()+"/api/eventdata", nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := rawClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
