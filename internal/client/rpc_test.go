package client

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/toolgate/toolgate/internal/mcp"
	"github.com/toolgate/toolgate/pkg/protocol"
)

func TestDialRoundtrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "toolgate.sock")

	sock := mcp.NewSocketServer(mcp.NewServer(newTestHandler(t)), socketPath)
	if err := sock.Start(); err != nil {
		t.Fatalf("socket start failed: %v", err)
	}
	defer sock.Shutdown()

	ctx := context.Background()
	backend, err := Dial(ctx, socketPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer backend.Close()

	if _, err := backend.Initialize(ctx); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	catalog, err := backend.ListTools(ctx)
	if err != nil {
		t.Fatalf("listTools failed: %v", err)
	}
	if len(catalog) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(catalog))
	}

	result, err := backend.CallTool(ctx, "word_count", map[string]interface{}{
		"text": "one two three",
	})
	if err != nil {
		t.Fatalf("callTool failed: %v", err)
	}
	payload, ok := result.Content[1].JSON.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected json part type %T", result.Content[1].JSON)
	}
	if payload["words"] != float64(3) {
		t.Errorf("unexpected word count: %v", payload["words"])
	}
}

func TestDialProtocolError(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "toolgate.sock")

	sock := mcp.NewSocketServer(mcp.NewServer(newTestHandler(t)), socketPath)
	if err := sock.Start(); err != nil {
		t.Fatalf("socket start failed: %v", err)
	}
	defer sock.Shutdown()

	ctx := context.Background()
	backend, err := Dial(ctx, socketPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer backend.Close()

	_, err = backend.CallTool(ctx, "bogus", nil)
	var rpcErr *jsonrpc2.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected an rpc error, got %v", err)
	}
	if rpcErr.Code != int64(protocol.CodeToolNotFound) {
		t.Errorf("expected tool-not-found, got %d", rpcErr.Code)
	}
}

func TestDialMissingSocket(t *testing.T) {
	_, err := Dial(context.Background(), filepath.Join(t.TempDir(), "absent.sock"))
	if err == nil {
		t.Fatal("expected dial error")
	}
}

func TestNewStdioRejectsEmptyCommand(t *testing.T) {
	if _, err := NewStdio(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty command")
	}
}
