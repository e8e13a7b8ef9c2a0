package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/edgeparse/internal/config"
	"github.com/danmuck/edgeparse/internal/engine"
	"github.com/danmuck/edgeparse/internal/testutil/testlog"
	"github.com/danmuck/edgeparse/internal/wire"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const multipartBody = "--XyZ\r\n" +
	"Content-Disposition: form-data; name=\"field1\"\r\n\r\nvalue1\r\n" +
	"--XyZ\r\n" +
	"Content-Disposition: form-data; name=\"file\"; filename=\"test.txt\"\r\n" +
	"Content-Type: text/plain\r\n\r\nhello\r\n" +
	"--XyZ--\r\n"

func newTestServer(t *testing.T, capacity int) *Server {
	t.Helper()
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	limits := config.DefaultLimits()
	if capacity > 0 {
		limits.Registry.Capacity = capacity
	}
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 1024
	s := New(cfg, engine.New(limits, zerolog.Nop()), zerolog.Nop())
	s.RegisterRoutes()
	return s
}

func do(t *testing.T, s *Server, method, path, contentType, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, 0)
	rr := do(t, s, http.MethodGet, "/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("health status: %d", rr.Code)
	}
	if body := decodeJSON(t, rr); body["status"] != "ok" || body["service"] != DefaultName {
		t.Fatalf("unexpected health body: %#v", body)
	}

	do(t, s, http.MethodPost, "/v1/json", "application/json", `{"a":1}`)
	rr = do(t, s, http.MethodGet, "/metrics", "", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "edgeparse_decode_calls_total") {
		t.Fatalf("metrics missing decode counter: %d", rr.Code)
	}
}

func TestJSONRoute(t *testing.T) {
	s := newTestServer(t, 0)
	rr := do(t, s, http.MethodPost, "/v1/json", "application/json", `{"n":123,"f":1.5,"s":"x","a":[true,null]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	value := decodeJSON(t, rr)["value"].(map[string]any)
	if value["n"] != float64(123) || value["s"] != "x" || len(value["a"].([]any)) != 2 {
		t.Fatalf("unexpected value: %#v", value)
	}

	rr = do(t, s, http.MethodPost, "/v1/json", "application/json", `{"a":1,"b":[1,2,3]} extra`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	body := decodeJSON(t, rr)
	if !strings.Contains(body["error"].(string), "trailing") || body["offset"] == nil {
		t.Fatalf("unexpected error body: %#v", body)
	}
}

func TestFormRoute(t *testing.T) {
	s := newTestServer(t, 0)
	rr := do(t, s, http.MethodPost, "/v1/form", "application/x-www-form-urlencoded", "a=1&b=2&c")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	pairs := decodeJSON(t, rr)["pairs"].([]any)
	if len(pairs) != 3 || fmt.Sprint(pairs[2]) != "[c ]" {
		t.Fatalf("unexpected pairs: %#v", pairs)
	}

	rr = do(t, s, http.MethodPost, "/v1/form?format=wire", "", "a=1&b=2&c")
	got, err := wire.DecodeForm(rr.Body.Bytes())
	if err != nil || len(got) != 3 || got[0].Key != "a" {
		t.Fatalf("unexpected wire pairs: %+v err=%v", got, err)
	}
	if ct := rr.Header().Get("Content-Type"); ct != wireMediaType {
		t.Fatalf("unexpected content type: %q", ct)
	}
}

func TestMultipartRoute(t *testing.T) {
	s := newTestServer(t, 0)
	ct := "multipart/form-data; boundary=XyZ"
	rr := do(t, s, http.MethodPost, "/v1/multipart", ct, multipartBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	parts := decodeJSON(t, rr)["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %#v", parts)
	}
	file := parts[1].(map[string]any)
	if file["filename"] != "test.txt" || file["is_file"] != true || file["size"] != float64(5) {
		t.Fatalf("unexpected file part: %#v", file)
	}

	rr = do(t, s, http.MethodPost, "/v1/multipart?format=wire", "", multipartBody)
	decoded, err := wire.DecodeMultipart(rr.Body.Bytes())
	if err != nil || len(decoded) != 2 || string(decoded[1].Data) != "hello" {
		t.Fatalf("unexpected wire parts: %+v err=%v", decoded, err)
	}

	rr = do(t, s, http.MethodPost, "/v1/multipart", "text/plain", "just text")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for non-multipart body, got %d", rr.Code)
	}
}

func TestBodyRoute(t *testing.T) {
	s := newTestServer(t, 0)
	rr := do(t, s, http.MethodPost, "/v1/body", "application/x-www-form-urlencoded", "k=v")
	if rr.Code != http.StatusOK || rr.Header().Get(headerBodyKind) != "form" {
		t.Fatalf("unexpected response: %d kind=%q", rr.Code, rr.Header().Get(headerBodyKind))
	}
	pairs, err := wire.DecodeForm(rr.Body.Bytes())
	if err != nil || len(pairs) != 1 || pairs[0].Value != "v" {
		t.Fatalf("unexpected pairs: %+v err=%v", pairs, err)
	}

	rr = do(t, s, http.MethodPost, "/v1/body", "text/plain", "hello")
	if rr.Header().Get(headerBodyKind) != "text" || rr.Body.String() != "hello" {
		t.Fatalf("expected text passthrough, got kind=%q body=%q", rr.Header().Get(headerBodyKind), rr.Body.String())
	}

	rr = do(t, s, http.MethodPost, "/v1/body", "multipart/form-data", "no parts here")
	if rr.Code != http.StatusUnprocessableEntity || rr.Header().Get(headerBodyKind) != "multipart" {
		t.Fatalf("expected 422 multipart, got %d kind=%q", rr.Code, rr.Header().Get(headerBodyKind))
	}
}

func TestHeaderRoutes(t *testing.T) {
	s := newTestServer(t, 1)
	rr := do(t, s, http.MethodPost, "/v1/headers", "text/plain", "Host: example.com\r\nX-Trace: abc\r\n")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	handle := int64(decodeJSON(t, rr)["handle"].(float64))
	path := fmt.Sprintf("/v1/headers/%d", handle)

	rr = do(t, s, http.MethodGet, path+"/x-trace", "", "")
	if rr.Code != http.StatusOK || decodeJSON(t, rr)["value"] != "abc" {
		t.Fatalf("unexpected lookup: %d %s", rr.Code, rr.Body.String())
	}
	rr = do(t, s, http.MethodGet, path, "", "")
	if rr.Code != http.StatusOK || len(decodeJSON(t, rr)["headers"].([]any)) != 2 {
		t.Fatalf("unexpected listing: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, s, http.MethodPost, "/v1/headers", "text/plain", "A: b")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when full, got %d", rr.Code)
	}

	rr = do(t, s, http.MethodDelete, path, "", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	rr = do(t, s, http.MethodGet, path+"/host", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after release, got %d", rr.Code)
	}
	rr = do(t, s, http.MethodGet, "/v1/headers/nope/host", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid handle, got %d", rr.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	s := newTestServer(t, 0)
	rr := do(t, s, http.MethodPost, "/v1/form", "", strings.Repeat("a", 2048))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestAuthTokenGuardsMutatingHeaderRoutes(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	cfg := DefaultConfig()
	cfg.AuthToken = "s3cret"
	s := New(cfg, engine.New(config.DefaultLimits(), zerolog.Nop()), zerolog.Nop())
	s.RegisterRoutes()

	rr := do(t, s, http.MethodPost, "/v1/headers", "text/plain", "A: 1")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/headers", strings.NewReader("A: 1"))
	req.Header.Set("Authorization", "Bearer s3cret")
	rr = httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rr.Code)
	}
	handle := int64(decodeJSON(t, rr)["handle"].(float64))

	rr = do(t, s, http.MethodGet, fmt.Sprintf("/v1/headers/%d/a", handle), "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected reads to stay open, got %d", rr.Code)
	}
	rr = do(t, s, http.MethodDelete, fmt.Sprintf("/v1/headers/%d", handle), "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on delete without token, got %d", rr.Code)
	}
}
