package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/toolgate/toolgate/internal/mcp"
	"github.com/toolgate/toolgate/internal/tools"
	"github.com/toolgate/toolgate/internal/tools/basic"
	"github.com/toolgate/toolgate/pkg/protocol"
	"github.com/toolgate/toolgate/pkg/version"
)

func newTestServer(t *testing.T, chat http.Handler) *Server {
	t.Helper()
	registry := tools.NewRegistry()
	if err := basic.RegisterAll(registry); err != nil {
		t.Fatalf("register tools: %v", err)
	}
	handler := mcp.NewHandler(mcp.HandlerConfig{Registry: registry})
	return New(Config{Addr: ":0", Handler: handler, Chat: chat})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestMCPEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	body := `{"jsonrpc":"2.0","id":1,"method":"callTool","params":{"name":"add_numbers","arguments":{"numbers":[2,3]}}}`
	rec := do(t, s, http.MethodPost, "/mcp", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp protocol.JSONRPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if id, ok := resp.ID.(float64); !ok || id != 1 {
		t.Errorf("id lost: %v", resp.ID)
	}
}

func TestMCPEndpointProtocolErrorsStayHTTP200(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/mcp", `{"jsonrpc":"2.0","id":7,"method":"no/such"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("protocol errors must not surface as HTTP errors, got %d", rec.Code)
	}

	var resp protocol.JSONRPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != protocol.CodeMethodNotFound {
		t.Errorf("expected method-not-found, got %+v", resp.Error)
	}
}

func TestMCPEndpointParseError(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/mcp", `{"jsonrpc":`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if string(raw["id"]) != "null" {
		t.Errorf("parse errors carry a null id, got %s", raw["id"])
	}

	var resp protocol.JSONRPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != protocol.CodeParseError {
		t.Errorf("expected parse error, got %+v", resp.Error)
	}
}

func TestMCPEndpointNotification(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/mcp", `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("notification responses carry no body, got %q", rec.Body.String())
	}
}

func TestMCPEndpointRejectsOversizedBody(t *testing.T) {
	s := newTestServer(t, nil)

	huge := `{"jsonrpc":"2.0","id":1,"method":"listTools","params":{"pad":"` +
		strings.Repeat("x", maxBodySize+1) + `"}}`
	rec := do(t, s, http.MethodPost, "/mcp", huge)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp protocol.JSONRPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != protocol.CodeParseError {
		t.Errorf("expected parse error for oversized body, got %+v", resp.Error)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var status protocol.HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if status.Status != "healthy" {
		t.Errorf("unexpected status %q", status.Status)
	}
	if status.Service != version.ServerName || status.Version != version.Version {
		t.Errorf("identity mismatch: %+v", status)
	}
	if status.Transport != "http" {
		t.Errorf("unexpected transport %q", status.Transport)
	}
	if status.Tools != 4 {
		t.Errorf("expected 4 tools, got %d", status.Tools)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/mcp", "/health"} {
		rec := do(t, s, http.MethodOptions, path, "")
		if rec.Code != http.StatusNoContent {
			t.Errorf("%s: expected 204, got %d", path, rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("%s: unexpected allow-origin %q", path, got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
			t.Errorf("%s: unexpected allow-methods %q", path, got)
		}
	}
}

func TestCORSHeadersOnRealRequests(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/health", "")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("unexpected allow-origin %q", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != "Mcp-Session-Id" {
		t.Errorf("unexpected expose-headers %q", got)
	}
}

func TestChatRouteMountedOnlyWithBridge(t *testing.T) {
	chat := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"answer":"stub"}`))
	})

	withChat := newTestServer(t, chat)
	rec := do(t, withChat, http.MethodPost, "/chat", `{"prompt":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("expected mounted chat route, got %d", rec.Code)
	}

	withoutChat := newTestServer(t, nil)
	rec = do(t, withoutChat, http.MethodPost, "/chat", `{"prompt":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without bridge, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/mcp", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET /mcp, got %d", rec.Code)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})
	wrapped := recoverMiddleware(boom)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["error"] != "internal server error" {
		t.Errorf("unexpected body: %v", body)
	}
}
