package integration

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"testing"
)

func TestShellAtRoot(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=UTF-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if ce := resp.Header.Get("Content-Encoding"); ce != "" {
		t.Errorf("Content-Encoding = %q, want none", ce)
	}
	if string(body) != shellHTML {
		t.Errorf("body = %q, want shell document", body)
	}
}

func TestShellForUIRoutes(t *testing.T) {
	for _, path := range []string{"/ui", "/ui/stackviewer/callers?filename=2024-01-01.etl", "/ui/eventviewer"} {
		resp := get(t, testEnv.BaseURL()+path, "gzip, deflate, br")
		body := readBody(t, resp)

		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d", path, resp.StatusCode)
			continue
		}
		if string(body) != shellHTML {
			t.Errorf("%s: body is not the shell", path)
		}
		if cc := resp.Header.Get("Cache-Control"); cc != "" {
			t.Errorf("%s: Cache-Control = %q, shell must be revalidated", path, cc)
		}
	}
}

func TestBrotliSidecar(t *testing.T) {
	resp := get(t, testEnv.BaseURL()+"/static/js/main.js", "gzip, br")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ce := resp.Header.Get("Content-Encoding"); ce != "br" {
		t.Fatalf("Content-Encoding = %q, want br", ce)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/javascript; charset=UTF-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=31536000" {
		t.Errorf("Cache-Control = %q", cc)
	}

	wantBr, err := compressBrotli(appJS)
	if err != nil {
		t.Fatal(err)
	}
	if resp.ContentLength != int64(len(wantBr)) {
		t.Errorf("Content-Length = %d, want sidecar size %d", resp.ContentLength, len(wantBr))
	}
	if got := decodedBody(t, resp); !bytes.Equal(got, appJS) {
		t.Error("decoded sidecar does not match the original asset")
	}
}

func TestGzipSidecar(t *testing.T) {
	resp := get(t, testEnv.BaseURL()+"/static/css/main.css", "gzip")

	if ce := resp.Header.Get("Content-Encoding"); ce != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", ce)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/css; charset=UTF-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := decodedBody(t, resp); !bytes.Equal(got, appCSS) {
		t.Errorf("decoded = %q, want %q", got, appCSS)
	}
}

func TestMissingSidecarFallsBack(t *testing.T) {
	// main.css only has a .gz sidecar.
	resp := get(t, testEnv.BaseURL()+"/static/css/main.css", "br")
	body := readBody(t, resp)

	if ce := resp.Header.Get("Content-Encoding"); ce != "" {
		t.Errorf("Content-Encoding = %q, want none", ce)
	}
	if resp.Header.Get("Content-Length") != strconv.Itoa(len(appCSS)) {
		t.Errorf("Content-Length = %q, want %d", resp.Header.Get("Content-Length"), len(appCSS))
	}
	if !bytes.Equal(body, appCSS) {
		t.Errorf("body = %q", body)
	}
}

func TestStaticIdempotent(t *testing.T) {
	url := testEnv.BaseURL() + "/static/js/main.js"
	for _, enc := range []string{"", "br"} {
		first := get(t, url, enc)
		firstBody := readBody(t, first)
		second := get(t, url, enc)
		secondBody := readBody(t, second)

		if !bytes.Equal(firstBody, secondBody) {
			t.Errorf("%q: bodies differ", enc)
		}
		if first.ContentLength != second.ContentLength {
			t.Errorf("%q: Content-Length %d != %d", enc, first.ContentLength, second.ContentLength)
		}
	}
}

func TestStaticNotFound(t *testing.T) {
	for _, path := range []string{
		"/nonexistent.xyz",
		"/static/js/",
		"/../secret.txt",
		"/%2e%2e/secret.txt",
		"/static/%2e%2e/%2e%2e/%2e%2e/secret.txt",
	} {
		resp := getURL(t, testEnv.BaseURL()+path)
		body := readBody(t, resp)

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, resp.StatusCode)
			continue
		}
		if string(body) != "404 Not Found" {
			t.Errorf("%s: body = %q", path, body)
		}
		if strings.Contains(string(body), testEnv.ContentRoot) {
			t.Errorf("%s: body leaks the content root", path)
		}
	}
}
