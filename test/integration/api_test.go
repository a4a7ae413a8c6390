package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rhuss/traceview/pkg/analysis"
	"github.com/rhuss/traceview/pkg/analysis/mock"
	"github.com/rhuss/traceview/pkg/analysis/remote"
	"github.com/rhuss/traceview/pkg/api"
)

const trace = "filename=2024-01-01.etl"

func TestProcessInfoUnparsableIndex(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/api/processinfo?processIndex=abc&"+trace)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	// The default index selects every process.
	var procs []mock.Process
	decodeJSON(t, resp, &procs)
	if len(procs) != 3 {
		t.Errorf("got %d processes, want all 3", len(procs))
	}
}

func TestProcessInfoByIndex(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/api/processinfo?processIndex=1&"+trace)
	var p mock.Process
	decodeJSON(t, resp, &p)
	if p.Name != "explorer" {
		t.Errorf("process = %+v", p)
	}
}

func TestPayloadCompressionRoundTrip(t *testing.T) {
	url := testEnv.BaseURL() + "/api/hotspots?" + trace

	plain := get(t, url, "")
	if plain.Header.Get("Content-Encoding") != "" {
		t.Fatalf("identity response has Content-Encoding %q", plain.Header.Get("Content-Encoding"))
	}
	if plain.Header.Get("Content-Type") != "application/json; charset=UTF-8" {
		t.Errorf("Content-Type = %q", plain.Header.Get("Content-Type"))
	}
	wantLen := plain.ContentLength
	want := readBody(t, plain)
	if wantLen != int64(len(want)) {
		t.Errorf("Content-Length = %d, body = %d bytes", wantLen, len(want))
	}

	for _, enc := range []string{"br", "gzip"} {
		resp := get(t, url, enc)
		if got := resp.Header.Get("Content-Encoding"); got != enc {
			t.Errorf("%s: Content-Encoding = %q", enc, got)
		}
		got := decodedBody(t, resp)
		if !bytes.Equal(got, want) {
			t.Errorf("%s: decoded payload differs from identity payload", enc)
		}
	}
}

func TestBrotliPreferredOverGzip(t *testing.T) {
	resp := get(t, testEnv.BaseURL()+"/api/modulelist?"+trace, "GZIP, BR")
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Encoding"); got != "br" {
		t.Errorf("Content-Encoding = %q, want br", got)
	}
}

func TestCamelCaseWireFormat(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/api/traceinfo?"+trace)
	var doc map[string]any
	decodeJSON(t, resp, &doc)

	for _, key := range []string{"filename", "eventCount", "durationMSec", "processCount"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing key %q in %v", key, doc)
		}
	}
}

func TestLookupSymbolsSkipsBadIndices(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/api/lookupymbols?moduleIndices=0,x,2&"+trace)
	var mods []mock.Module
	decodeJSON(t, resp, &mods)

	if len(mods) != 2 || mods[0].Index != 0 || mods[1].Index != 2 {
		t.Errorf("modules = %+v, want indices 0 and 2", mods)
	}
}

func TestDrillIntoExclusive(t *testing.T) {
	var inclusive, exclusive []mock.TreeNode
	decodeJSON(t, getURL(t, testEnv.BaseURL()+"/api/drillinto?name=main&"+trace), &inclusive)
	decodeJSON(t, getURL(t, testEnv.BaseURL()+"/api/drillinto/exclusive?name=main&"+trace), &exclusive)

	if len(inclusive) != 3 || len(exclusive) != 1 {
		t.Errorf("inclusive = %d nodes, exclusive = %d nodes", len(inclusive), len(exclusive))
	}
}

func TestGetSourceUsesDefaultAuthorization(t *testing.T) {
	var src mock.Source
	decodeJSON(t, getURL(t, testEnv.BaseURL()+"/api/getsource?name=traceapp!Main&"+trace), &src)
	if !src.Authorized {
		t.Error("configured default authorization header was not forwarded")
	}
}

func TestUnknownAPIOperation(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/api/nosuchoperation")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Error == nil || errResp.Error.Type != api.ErrorTypeNotFound {
		t.Errorf("error = %+v", errResp.Error)
	}
}

func TestEngineErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantType   api.ErrorType
	}{
		{"missing trace", "/api/eventdata?filename=absent.etl", http.StatusNotFound, api.ErrorTypeNotFound},
		{"missing filename", "/api/eventdata", http.StatusBadRequest, api.ErrorTypeInvalidRequest},
		{"bad module index", "/api/lookupsymbol?moduleIndex=77&" + trace, http.StatusBadRequest, api.ErrorTypeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, testEnv.BaseURL()+tt.path, "br")
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var errResp api.ErrorResponse
			decodeJSON(t, resp, &errResp)
			if errResp.Error == nil || errResp.Error.Type != tt.wantType {
				t.Errorf("error = %+v, want type %s", errResp.Error, tt.wantType)
			}
		})
	}
}

func TestEngineUnreachable(t *testing.T) {
	dead := httptest.NewServer(mock.NewHandler())
	deadURL := dead.URL
	dead.Close()

	client, err := remote.New(remote.DefaultConfig(deadURL))
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(newServerHandler(testEnv.ContentRoot, testEnv.DataRoot, analysis.Instrument(client)))
	defer srv.Close()

	resp := getURL(t, srv.URL+"/api/eventdata?"+trace)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Error == nil || errResp.Error.Type != api.ErrorTypeUnavailable {
		t.Errorf("error = %+v", errResp.Error)
	}

	// Static delivery is unaffected by the engine outage.
	shell := getURL(t, srv.URL+"/")
	readBody(t, shell)
	if shell.StatusCode != http.StatusOK {
		t.Errorf("shell status = %d, want 200", shell.StatusCode)
	}
}

func TestDataDirectoryListing(t *testing.T) {
	resp := get(t, testEnv.BaseURL()+"/api/datadirectorylisting", "gzip")
	var names []string
	decodeJSON(t, resp, &names)

	want := []string{"2024-02-01.etl", "2024-01-01.etl", "startup.nettrace"}
	got, _ := json.Marshal(names)
	exp, _ := json.Marshal(want)
	if !bytes.Equal(got, exp) {
		t.Errorf("listing = %s, want %s", got, exp)
	}
}
