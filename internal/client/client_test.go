package client

import (
	"context"
	"errors"
	"testing"

	"github.com/toolgate/toolgate/internal/mcp"
	"github.com/toolgate/toolgate/internal/tools"
	"github.com/toolgate/toolgate/internal/tools/basic"
	"github.com/toolgate/toolgate/pkg/protocol"
	"github.com/toolgate/toolgate/pkg/version"
)

func newTestHandler(t *testing.T) *mcp.Handler {
	t.Helper()
	registry := tools.NewRegistry()
	if err := basic.RegisterAll(registry); err != nil {
		t.Fatalf("register tools: %v", err)
	}
	return mcp.NewHandler(mcp.HandlerConfig{Registry: registry})
}

func TestLocalInitialize(t *testing.T) {
	backend := NewLocal(newTestHandler(t))
	defer backend.Close()

	info, err := backend.Initialize(context.Background())
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if info.ProtocolVersion != version.ProtocolVersion {
		t.Errorf("unexpected protocol version %q", info.ProtocolVersion)
	}
	if info.ServerInfo.Name != version.ServerName {
		t.Errorf("unexpected server name %q", info.ServerInfo.Name)
	}
}

func TestLocalListTools(t *testing.T) {
	backend := NewLocal(newTestHandler(t))
	defer backend.Close()

	catalog, err := backend.ListTools(context.Background())
	if err != nil {
		t.Fatalf("listTools failed: %v", err)
	}

	names := make([]string, 0, len(catalog))
	for _, tool := range catalog {
		names = append(names, tool.Name)
	}
	expected := []string{"add_numbers", "echo", "now", "word_count"}
	if len(names) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("tool %d: expected %s, got %s", i, expected[i], names[i])
		}
	}
}

func TestLocalCallTool(t *testing.T) {
	backend := NewLocal(newTestHandler(t))
	defer backend.Close()

	result, err := backend.CallTool(context.Background(), "echo", map[string]interface{}{
		"text": "round trip",
	})
	if err != nil {
		t.Fatalf("callTool failed: %v", err)
	}
	if len(result.Content) != 2 {
		t.Fatalf("expected text and json parts, got %d", len(result.Content))
	}

	// In-process results keep the live value in the json part.
	echo, ok := result.Content[1].JSON.(basic.EchoResponse)
	if !ok {
		t.Fatalf("unexpected json part type %T", result.Content[1].JSON)
	}
	if echo.Text != "round trip" {
		t.Errorf("unexpected echo: %q", echo.Text)
	}
}

func TestLocalCallToolErrors(t *testing.T) {
	backend := NewLocal(newTestHandler(t))
	defer backend.Close()

	_, err := backend.CallTool(context.Background(), "bogus", nil)
	var rpcErr *protocol.JSONRPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected a protocol error, got %v", err)
	}
	if rpcErr.Code != protocol.CodeToolNotFound {
		t.Errorf("expected tool-not-found, got %d", rpcErr.Code)
	}

	_, err = backend.CallTool(context.Background(), "echo", map[string]interface{}{})
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected a protocol error, got %v", err)
	}
	if rpcErr.Code != protocol.CodeInvalidArguments {
		t.Errorf("expected invalid-arguments, got %d", rpcErr.Code)
	}
}
