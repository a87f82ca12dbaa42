// Package client provides backends that drive a tool server: the in-process
// dispatcher, a remote HTTP endpoint, a spawned stdio subprocess, or a Unix
// socket.
package client

import (
	"context"

	"github.com/toolgate/toolgate/internal/mcp"
	"github.com/toolgate/toolgate/pkg/protocol"
	"github.com/toolgate/toolgate/pkg/version"
)

// Backend is the capability surface the bridge and the CLI need from a tool
// server. Protocol error responses come back as *protocol.JSONRPCError (or
// the transport's equivalent), never as crashes.
type Backend interface {
	Initialize(ctx context.Context) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context) ([]protocol.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.ToolResult, error)
	Close() error
}

func initializeParams() mcp.InitializeParams {
	return mcp.InitializeParams{
		ProtocolVersion: version.ProtocolVersion,
		ClientInfo: mcp.ClientInfo{
			Name:    version.ServerName + "-client",
			Version: version.Version,
		},
	}
}
