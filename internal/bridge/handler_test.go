package bridge

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/toolgate/toolgate/internal/llm"
)

func postChat(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatHandlerSuccess(t *testing.T) {
	completer := &scriptedCompleter{turns: []scriptTurn{
		{completion: &llm.Completion{Content: "hello there"}},
	}}
	h := NewHandler(New(newFakeBackend(), completer))

	rec := postChat(t, h, `{"prompt":"say hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Answer != "hello there" {
		t.Errorf("unexpected answer: %q", resp.Answer)
	}
}

func TestChatHandlerRejectsMissingPrompt(t *testing.T) {
	h := NewHandler(New(newFakeBackend(), &scriptedCompleter{}))

	for _, body := range []string{`{}`, `{"prompt":""}`, `not json`, ``} {
		rec := postChat(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
			continue
		}
		var resp chatError
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Errorf("body %q: bad error body: %v", body, err)
			continue
		}
		if resp.Error != "Missing 'prompt'" {
			t.Errorf("body %q: unexpected error %q", body, resp.Error)
		}
	}
}

func TestChatHandlerUpstreamFailure(t *testing.T) {
	completer := &scriptedCompleter{turns: []scriptTurn{
		{err: errors.New("provider down")},
	}}
	h := NewHandler(New(newFakeBackend(), completer))

	rec := postChat(t, h, `{"prompt":"hi"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp chatError
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if !strings.Contains(resp.Error, "provider down") {
		t.Errorf("cause lost: %q", resp.Error)
	}
}

func TestChatHandlerLoopExceeded(t *testing.T) {
	turns := []scriptTurn{
		{completion: &llm.Completion{ToolCalls: []llm.ToolCall{{ID: "x", Name: "echo", Arguments: `{}`}}}},
		{completion: &llm.Completion{ToolCalls: []llm.ToolCall{{ID: "y", Name: "echo", Arguments: `{}`}}}},
	}
	h := NewHandler(New(newFakeBackend(), &scriptedCompleter{turns: turns}, WithMaxRounds(2)))

	rec := postChat(t, h, `{"prompt":"loop"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestChatHandlerBackendFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.initErr = errors.New("socket gone")
	h := NewHandler(New(backend, &scriptedCompleter{}))

	rec := postChat(t, h, `{"prompt":"hi"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
}
