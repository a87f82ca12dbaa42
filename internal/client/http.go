package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/toolgate/toolgate/internal/mcp"
	"github.com/toolgate/toolgate/pkg/protocol"
)

const DefaultHTTPTimeout = 60 * time.Second

// HTTP posts protocol envelopes to a remote /mcp endpoint, one request per
// call with a fresh correlation id.
type HTTP struct {
	url        string
	httpClient *http.Client
}

func NewHTTP(url string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTP{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// rpcEnvelope keeps Result raw so callers decode into typed results.
type rpcEnvelope struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      interface{}            `json:"id"`
	Result  json.RawMessage        `json:"result"`
	Error   *protocol.JSONRPCError `json:"error"`
}

func (c *HTTP) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal %s params: %w", method, err)
		}
		raw = data
	}

	payload, err := json.Marshal(protocol.JSONRPCRequest{
		JSONRPC: protocol.Version,
		ID:      uuid.NewString(),
		Method:  method,
		Params:  raw,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, body)
	}

	var envelope rpcEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

func (c *HTTP) Initialize(ctx context.Context) (*mcp.InitializeResult, error) {
	var result mcp.InitializeResult
	if err := c.call(ctx, mcp.MethodInitialize, initializeParams(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTP) ListTools(ctx context.Context) ([]protocol.Tool, error) {
	var result mcp.ListToolsResult
	if err := c.call(ctx, mcp.MethodListTools, nil, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

func (c *HTTP) CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.ToolResult, error) {
	arguments, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}

	var result protocol.ToolResult
	params := mcp.CallToolParams{Name: name, Arguments: arguments}
	if err := c.call(ctx, mcp.MethodCallTool, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTP) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
