package delivery

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/andybalholm/brotli"
)

type hotspot struct {
	Name           string  `json:"name"`
	InclusiveCount float64 `json:"inclusiveCount"`
	ExclusiveCount float64 `json:"exclusiveCount"`
}

func samplePayload() []hotspot {
	var out []hotspot
	for i := 0; i < 500; i++ {
		out = append(out, hotspot{
			Name:           "module!Namespace.Type.Method" + strconv.Itoa(i),
			InclusiveCount: float64(i * 3),
			ExclusiveCount: float64(i),
		})
	}
	return out
}

func TestWritePayloadUncompressed(t *testing.T) {
	payload := samplePayload()
	want, _ := json.Marshal(payload)

	rec := httptest.NewRecorder()
	env, err := WritePayload(context.Background(), rec, payload, SchemeNone)
	if err != nil {
		t.Fatalf("WritePayload error: %v", err)
	}

	if !bytes.Equal(rec.Body.Bytes(), want) {
		t.Error("body does not match JSON serialization")
	}
	if got := rec.Header().Get("Content-Length"); got != strconv.Itoa(len(want)) {
		t.Errorf("Content-Length = %q, want %d", got, len(want))
	}
	if got := rec.Header().Get("Content-Type"); got != ContentTypeJSON {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("Content-Encoding = %q, want none", got)
	}
	if !env.LengthKnown() {
		t.Error("uncompressed payload length should be known")
	}
}

func TestWritePayloadCamelCaseKeys(t *testing.T) {
	rec := httptest.NewRecorder()
	if _, err := WritePayload(context.Background(), rec, hotspot{Name: "a", InclusiveCount: 1}, SchemeNone); err != nil {
		t.Fatalf("WritePayload error: %v", err)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"inclusiveCount":1`)) {
		t.Errorf("expected camelCase keys, got %s", rec.Body.String())
	}
}

func TestWritePayloadBrotliRoundTrip(t *testing.T) {
	payload := samplePayload()
	want, _ := json.Marshal(payload)

	rec := httptest.NewRecorder()
	env, err := WritePayload(context.Background(), rec, payload, SchemeBrotli)
	if err != nil {
		t.Fatalf("WritePayload error: %v", err)
	}

	if got := rec.Header().Get("Content-Encoding"); got != "br" {
		t.Errorf("Content-Encoding = %q, want br", got)
	}
	if got := rec.Header().Get("Content-Length"); got != strconv.Itoa(rec.Body.Len()) {
		t.Errorf("Content-Length = %q, body is %d bytes", got, rec.Body.Len())
	}
	if env.ContentLength != int64(rec.Body.Len()) {
		t.Errorf("envelope length = %d, body is %d bytes", env.ContentLength, rec.Body.Len())
	}
	if rec.Body.Len() >= len(want) {
		t.Errorf("compressed body (%d) not smaller than JSON (%d)", rec.Body.Len(), len(want))
	}

	got, err := io.ReadAll(brotli.NewReader(bytes.NewReader(rec.Body.Bytes())))
	if err != nil {
		t.Fatalf("brotli decode error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("decoded brotli body differs from JSON serialization")
	}
}

func TestWritePayloadGzipRoundTrip(t *testing.T) {
	payload := samplePayload()
	want, _ := json.Marshal(payload)

	rec := httptest.NewRecorder()
	env, err := WritePayload(context.Background(), rec, payload, SchemeGzip)
	if err != nil {
		t.Fatalf("WritePayload error: %v", err)
	}

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "" {
		t.Errorf("Content-Length = %q, streamed gzip must omit it", got)
	}
	if env.LengthKnown() {
		t.Error("streamed gzip length should not be known in advance")
	}

	zr, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("gzip reader error: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("gzip decode error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("decoded gzip body differs from JSON serialization")
	}
}

func TestWritePayloadGzipWriterReuse(t *testing.T) {
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		if _, err := WritePayload(context.Background(), rec, map[string]int{"round": i}, SchemeGzip); err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
		zr, err := gzip.NewReader(rec.Body)
		if err != nil {
			t.Fatalf("round %d: gzip reader error: %v", i, err)
		}
		got, _ := io.ReadAll(zr)
		if want := `{"round":` + strconv.Itoa(i) + `}`; string(got) != want {
			t.Errorf("round %d: body = %q, want %q", i, got, want)
		}
	}
}

func TestWritePayloadRawMessagePassthrough(t *testing.T) {
	raw := json.RawMessage(`{"processes":[{"id":4,"name":"System"}]}`)

	rec := httptest.NewRecorder()
	if _, err := WritePayload(context.Background(), rec, raw, SchemeNone); err != nil {
		t.Fatalf("WritePayload error: %v", err)
	}
	if rec.Body.String() != string(raw) {
		t.Errorf("body = %q, want %q", rec.Body.String(), raw)
	}
}

func TestWritePayloadEncodingError(t *testing.T) {
	rec := httptest.NewRecorder()
	_, err := WritePayload(context.Background(), rec, map[string]any{"bad": make(chan int)}, SchemeBrotli)
	if err == nil {
		t.Fatal("expected encoding error")
	}
	if rec.Body.Len() != 0 || rec.Header().Get("Content-Type") != "" {
		t.Error("nothing should be written when encoding fails")
	}
}

func TestWritePayloadCancelledBeforeWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, scheme := range []Scheme{SchemeNone, SchemeGzip, SchemeBrotli} {
		rec := httptest.NewRecorder()
		_, err := WritePayload(ctx, rec, samplePayload(), scheme)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("%v: error = %v, want context.Canceled", scheme, err)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("%v: wrote %d bytes after cancellation", scheme, rec.Body.Len())
		}
	}
}

func TestCompressBrotliOverflowIsTypedFailure(t *testing.T) {
	data := bytes.Repeat([]byte("incompressible?"), 100)

	buf := make([]byte, 0, 8)
	err := compressBrotli(&buf, data, 8)
	if !errors.Is(err, errOutputFull) {
		t.Fatalf("error = %v, want errOutputFull", err)
	}
	if len(buf) > 8 {
		t.Errorf("bounded writer exceeded limit: %d bytes", len(buf))
	}
}

func TestCompressionErrorUnwrap(t *testing.T) {
	err := error(&CompressionError{Scheme: SchemeBrotli, Err: errOutputFull})

	var ce *CompressionError
	if !errors.As(err, &ce) {
		t.Fatal("errors.As failed for *CompressionError")
	}
	if ce.Scheme != SchemeBrotli {
		t.Errorf("Scheme = %v", ce.Scheme)
	}
	if !errors.Is(err, errOutputFull) {
		t.Error("CompressionError should unwrap to its cause")
	}
}

func TestMaxBrotliCompressedSize(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 2},
		{1, 1 + 6},
		{1 << 14, (1 << 14) + 4 + 6},
		{1 << 20, (1 << 20) + 4*64 + 6},
	}
	for _, tt := range tests {
		if got := MaxBrotliCompressedSize(tt.n); got != tt.want {
			t.Errorf("MaxBrotliCompressedSize(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

type untaggedNode struct {
	Name           string
	InclusiveCount int
	CPUMSec        float64
	URL            string
	Children       []untaggedNode `json:",omitempty"`
	Path           string         `json:"nodePath"`
	Labels         map[string]int
	hidden         string
}

func TestWritePayloadUntaggedFieldsCamelCase(t *testing.T) {
	node := untaggedNode{
		Name:           "x",
		InclusiveCount: 1,
		CPUMSec:        2.5,
		URL:            "u",
		Children:       []untaggedNode{{Name: "child"}},
		Path:           "p",
		Labels:         map[string]int{"Kernel": 1},
		hidden:         "h",
	}

	for _, scheme := range []Scheme{SchemeNone, SchemeBrotli, SchemeGzip} {
		rec := httptest.NewRecorder()
		if _, err := WritePayload(context.Background(), rec, node, scheme); err != nil {
			t.Fatalf("%v: WritePayload error: %v", scheme, err)
		}
		body := decodeRecorded(t, rec, scheme)

		var doc map[string]any
		if err := json.Unmarshal(body, &doc); err != nil {
			t.Fatalf("%v: decoding %s: %v", scheme, body, err)
		}
		for _, key := range []string{"name", "inclusiveCount", "cpumSec", "url", "children", "nodePath", "labels"} {
			if _, ok := doc[key]; !ok {
				t.Errorf("%v: missing key %q in %s", scheme, key, body)
			}
		}
		for _, key := range []string{"Name", "InclusiveCount", "hidden"} {
			if _, ok := doc[key]; ok {
				t.Errorf("%v: unexpected key %q in %s", scheme, key, body)
			}
		}
		children, _ := doc["children"].([]any)
		if len(children) != 1 {
			t.Fatalf("%v: children = %v", scheme, doc["children"])
		}
		if _, ok := children[0].(map[string]any)["name"]; !ok {
			t.Errorf("%v: nested struct keys not camelCase: %v", scheme, children[0])
		}
		if labels, _ := doc["labels"].(map[string]any); labels["Kernel"] != float64(1) {
			t.Errorf("%v: map keys must be kept verbatim, got %v", scheme, doc["labels"])
		}
	}
}

type preEncoded struct{ Value int }

func (p preEncoded) MarshalJSON() ([]byte, error) {
	return []byte(`{"Value":` + strconv.Itoa(p.Value) + `}`), nil
}

func TestWritePayloadKeepsMarshalerOutput(t *testing.T) {
	rec := httptest.NewRecorder()
	if _, err := WritePayload(context.Background(), rec, []preEncoded{{Value: 7}}, SchemeNone); err != nil {
		t.Fatalf("WritePayload error: %v", err)
	}
	if got := rec.Body.String(); got != `[{"Value":7}]` {
		t.Errorf("body = %s, want marshaler output unchanged", got)
	}
}

func TestCamelCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"InclusiveCount", "inclusiveCount"},
		{"Name", "name"},
		{"URL", "url"},
		{"ID", "id"},
		{"CPUMSec", "cpumSec"},
		{"IOCount", "ioCount"},
		{"X", "x"},
		{"already", "already"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CamelCase(tt.in); got != tt.want {
			t.Errorf("CamelCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// decodeRecorded undoes the Content-Encoding of a recorded payload.
func decodeRecorded(t *testing.T, rec *httptest.ResponseRecorder, scheme Scheme) []byte {
	t.Helper()
	var r io.Reader = bytes.NewReader(rec.Body.Bytes())
	switch scheme {
	case SchemeBrotli:
		r = brotli.NewReader(r)
	case SchemeGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			t.Fatalf("gzip reader: %v", err)
		}
		r = zr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("decoding %v body: %v", scheme, err)
	}
	return data
}
