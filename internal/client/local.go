package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/toolgate/toolgate/internal/mcp"
	"github.com/toolgate/toolgate/pkg/protocol"
)

// Local drives the dispatcher in-process. Requests still travel as full
// protocol envelopes so behavior matches the remote backends exactly.
type Local struct {
	handler *mcp.Handler
}

func NewLocal(handler *mcp.Handler) *Local {
	return &Local{handler: handler}
}

func (l *Local) call(ctx context.Context, method string, params interface{}) (interface{}, error) {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal %s params: %w", method, err)
		}
		raw = data
	}

	req := &mcp.Request{
		JSONRPC: protocol.Version,
		ID:      uuid.NewString(),
		Method:  method,
		Params:  raw,
	}

	resp := l.handler.Handle(ctx, req)
	if resp == nil {
		return nil, fmt.Errorf("no response for %s", method)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

func (l *Local) Initialize(ctx context.Context) (*mcp.InitializeResult, error) {
	result, err := l.call(ctx, mcp.MethodInitialize, initializeParams())
	if err != nil {
		return nil, err
	}
	info, ok := result.(mcp.InitializeResult)
	if !ok {
		return nil, fmt.Errorf("unexpected initialize result type %T", result)
	}
	return &info, nil
}

func (l *Local) ListTools(ctx context.Context) ([]protocol.Tool, error) {
	result, err := l.call(ctx, mcp.MethodListTools, nil)
	if err != nil {
		return nil, err
	}
	list, ok := result.(mcp.ListToolsResult)
	if !ok {
		return nil, fmt.Errorf("unexpected listTools result type %T", result)
	}
	return list.Tools, nil
}

func (l *Local) CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.ToolResult, error) {
	arguments, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}

	result, err := l.call(ctx, mcp.MethodCallTool, mcp.CallToolParams{
		Name:      name,
		Arguments: arguments,
	})
	if err != nil {
		return nil, err
	}
	tr, ok := result.(protocol.ToolResult)
	if !ok {
		return nil, fmt.Errorf("unexpected callTool result type %T", result)
	}
	return &tr, nil
}

func (l *Local) Close() error {
	return nil
}
