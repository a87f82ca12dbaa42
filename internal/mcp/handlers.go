package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/toolgate/toolgate/internal/logger"
	"github.com/toolgate/toolgate/internal/resources"
	"github.com/toolgate/toolgate/internal/tools"
	"github.com/toolgate/toolgate/pkg/protocol"
	"github.com/toolgate/toolgate/pkg/version"
)

const DefaultToolTimeout = 60 * time.Second

// HandlerConfig wires the handler's collaborators. Registry is required;
// Resources is optional and enables the resources/* methods.
type HandlerConfig struct {
	Registry    *tools.Registry
	Resources   *resources.Store
	ToolTimeout time.Duration
}

// Handler turns decoded requests into responses. It holds no per-request
// state, so concurrent Handle calls are safe.
type Handler struct {
	registry  *tools.Registry
	store     *resources.Store
	timeout   time.Duration
	startTime time.Time
	log       *slog.Logger

	mu          sync.Mutex
	initialized bool
	clientInfo  ClientInfo
}

func NewHandler(cfg HandlerConfig) *Handler {
	timeout := cfg.ToolTimeout
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	return &Handler{
		registry:  cfg.Registry,
		store:     cfg.Resources,
		timeout:   timeout,
		startTime: time.Now(),
		log:       logger.ForComponent("dispatcher"),
	}
}

func (h *Handler) Registry() *tools.Registry {
	return h.registry
}

// Handle produces exactly one response per request, reusing the request id.
// Notifications return nil: they are processed for effect and must not be
// answered.
func (h *Handler) Handle(ctx context.Context, req *Request) *Response {
	if req.Method == "" || (req.JSONRPC != "" && req.JSONRPC != protocol.Version) {
		if req.IsNotification() {
			return nil
		}
		return protocol.NewErrorResponse(req.ID, protocol.CodeInvalidRequest, "Invalid request")
	}

	resp := h.dispatch(ctx, req)
	if req.IsNotification() {
		return nil
	}
	return resp
}

func (h *Handler) dispatch(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case MethodInitialize:
		return h.handleInitialize(req)
	case MethodPing:
		return protocol.NewResponse(req.ID, map[string]interface{}{})
	case MethodListTools, MethodListToolsAlias:
		return protocol.NewResponse(req.ID, h.listTools())
	case MethodCallTool, MethodCallToolAlias:
		return h.handleCallTool(ctx, req)
	case MethodListResources:
		return h.handleListResources(ctx, req)
	case MethodReadResource:
		return h.handleReadResource(ctx, req)
	case MethodListResourceTemplates:
		return h.handleListResourceTemplates(req)
	case MethodInitializedNotice:
		h.mu.Lock()
		h.initialized = true
		h.mu.Unlock()
		return protocol.NewResponse(req.ID, map[string]interface{}{})
	default:
		return protocol.NewErrorResponse(req.ID, protocol.CodeMethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (h *Handler) handleInitialize(req *Request) *Response {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return protocol.NewErrorResponse(req.ID, protocol.CodeInvalidArguments,
				fmt.Sprintf("Invalid initialize params: %v", err))
		}
	}

	h.mu.Lock()
	h.clientInfo = params.ClientInfo
	h.mu.Unlock()

	h.log.Info("client initialized",
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version)

	return protocol.NewResponse(req.ID, InitializeResult{
		ProtocolVersion: negotiateProtocolVersion(params.ProtocolVersion),
		Capabilities:    protocol.Capabilities{},
		ServerInfo: protocol.ServerInfo{
			Name:    version.ServerName,
			Version: version.Version,
		},
	})
}

func negotiateProtocolVersion(clientVersion string) string {
	for _, v := range version.SupportedProtocolVersions {
		if clientVersion == v {
			return v
		}
	}
	return version.ProtocolVersion
}

func (h *Handler) listTools() ListToolsResult {
	list := h.registry.List()
	out := make([]protocol.Tool, 0, len(list))

	for _, t := range list {
		entry := protocol.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: decodeSchema(t.Schema()),
		}
		if annotated, ok := t.(tools.AnnotatedTool); ok {
			entry.Title = annotated.Title()
			entry.Annotations = annotated.Annotations()
		}
		out = append(out, entry)
	}
	return ListToolsResult{Tools: out}
}

func decodeSchema(raw json.RawMessage) map[string]interface{} {
	schema := map[string]interface{}{}
	if err := json.Unmarshal(raw, &schema); err != nil {
		return map[string]interface{}{"type": "object"}
	}
	return schema
}

func (h *Handler) handleCallTool(ctx context.Context, req *Request) (resp *Response) {
	// A panicking tool must become an error response, never a dead
	// transport.
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("tool call panic recovered", "panic", r, "stack", string(debug.Stack()))
			resp = protocol.NewErrorResponse(req.ID, protocol.CodeExecutionError,
				fmt.Sprintf("tool execution panicked: %v", r))
		}
	}()

	var params CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return protocol.NewErrorResponse(req.ID, protocol.CodeInvalidArguments,
				fmt.Sprintf("Invalid callTool params: %v", err))
		}
	}

	name := params.tool()
	if name == "" {
		return protocol.NewErrorResponse(req.ID, protocol.CodeInvalidArguments, "tool name is required")
	}

	tool, ok := h.registry.Get(name)
	if !ok {
		return protocol.NewErrorResponse(req.ID, protocol.CodeToolNotFound,
			fmt.Sprintf("Tool not found: %s", name))
	}

	// Arguments are checked against the declared spec before the
	// implementation runs.
	if validated, ok := tool.(tools.ValidatedTool); ok {
		if _, err := validated.InputSpec().ValidateRaw(params.Arguments); err != nil {
			return protocol.NewErrorResponse(req.ID, protocol.CodeInvalidArguments, err.Error())
		}
	}

	start := time.Now()
	result, err := h.registry.ExecuteWithTimeout(ctx, name, params.Arguments, h.timeout)
	if err != nil {
		return protocol.NewErrorResponse(req.ID, classifyToolError(err),
			fmt.Sprintf("Error executing tool %s: %v", name, err))
	}

	h.log.Debug("tool executed", "tool", name, "duration", time.Since(start))

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return protocol.NewErrorResponse(req.ID, protocol.CodeInternalError,
			fmt.Sprintf("failed to marshal result: %v", err))
	}

	return protocol.NewResponse(req.ID, protocol.ToolResult{
		Content: []protocol.ContentPart{
			protocol.TextPart(string(resultJSON)),
			protocol.JSONPart(result),
		},
	})
}

func classifyToolError(err error) int {
	var vErr *tools.ValidationError
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		return protocol.CodeToolNotFound
	case errors.As(err, &vErr):
		return protocol.CodeInvalidArguments
	default:
		return protocol.CodeExecutionError
	}
}

func (h *Handler) handleListResources(ctx context.Context, req *Request) *Response {
	if h.store == nil {
		return protocol.NewErrorResponse(req.ID, protocol.CodeMethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method))
	}

	list, err := h.store.List(ctx)
	if err != nil {
		return protocol.NewErrorResponse(req.ID, protocol.CodeInternalError,
			fmt.Sprintf("failed to list resources: %v", err))
	}
	return protocol.NewResponse(req.ID, ListResourcesResult{Resources: list})
}

func (h *Handler) handleReadResource(ctx context.Context, req *Request) *Response {
	if h.store == nil {
		return protocol.NewErrorResponse(req.ID, protocol.CodeMethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method))
	}

	var params ReadResourceParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return protocol.NewErrorResponse(req.ID, protocol.CodeInvalidArguments,
				fmt.Sprintf("Invalid resources/read params: %v", err))
		}
	}
	if params.URI == "" {
		return protocol.NewErrorResponse(req.ID, protocol.CodeInvalidArguments, "resource uri is required")
	}

	contents, err := h.store.Read(ctx, params.URI)
	switch {
	case errors.Is(err, resources.ErrNotFound):
		return protocol.NewErrorResponse(req.ID, protocol.CodeResourceNotFound,
			fmt.Sprintf("Resource not found: %s", params.URI))
	case errors.Is(err, resources.ErrDenied):
		return protocol.NewErrorResponse(req.ID, protocol.CodeAccessDenied,
			fmt.Sprintf("Access denied: %s", params.URI))
	case err != nil:
		return protocol.NewErrorResponse(req.ID, protocol.CodeExecutionError,
			fmt.Sprintf("failed to read resource: %v", err))
	}

	return protocol.NewResponse(req.ID, ReadResourceResult{
		Contents: []protocol.ResourceContents{contents},
	})
}

func (h *Handler) handleListResourceTemplates(req *Request) *Response {
	if h.store == nil {
		return protocol.NewErrorResponse(req.ID, protocol.CodeMethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method))
	}
	return protocol.NewResponse(req.ID, ListResourceTemplatesResult{
		ResourceTemplates: h.store.Templates(),
	})
}
