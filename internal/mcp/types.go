package mcp

import (
	"encoding/json"

	"github.com/toolgate/toolgate/pkg/protocol"
)

type Request = protocol.JSONRPCRequest
type Response = protocol.JSONRPCResponse

// Wire method names. The camelCase forms are canonical; the slash forms are
// accepted as aliases for MCP-standard clients.
const (
	MethodInitialize            = "initialize"
	MethodPing                  = "ping"
	MethodListTools             = "listTools"
	MethodListToolsAlias        = "tools/list"
	MethodCallTool              = "callTool"
	MethodCallToolAlias         = "tools/call"
	MethodListResources         = "resources/list"
	MethodReadResource          = "resources/read"
	MethodListResourceTemplates = "resources/templates/list"
	MethodInitializedNotice     = "notifications/initialized"
)

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type InitializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ClientInfo      ClientInfo `json:"clientInfo"`
}

type InitializeResult struct {
	ProtocolVersion string                `json:"protocolVersion"`
	Capabilities    protocol.Capabilities `json:"capabilities"`
	ServerInfo      protocol.ServerInfo   `json:"serverInfo"`
}

type ListToolsResult struct {
	Tools []protocol.Tool `json:"tools"`
}

// CallToolParams accepts both the canonical "name" and the legacy
// "toolName" spelling.
type CallToolParams struct {
	Name      string          `json:"name"`
	ToolName  string          `json:"toolName"`
	Arguments json.RawMessage `json:"arguments"`
}

func (p *CallToolParams) tool() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ToolName
}

type ListResourcesResult struct {
	Resources []protocol.Resource `json:"resources"`
}

type ReadResourceParams struct {
	URI string `json:"uri"`
}

type ReadResourceResult struct {
	Contents []protocol.ResourceContents `json:"contents"`
}

type ListResourceTemplatesResult struct {
	ResourceTemplates []protocol.ResourceTemplate `json:"resourceTemplates"`
}
