package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/toolgate/toolgate/internal/mcp"
	"github.com/toolgate/toolgate/pkg/protocol"
)

// rpcBackend speaks the newline-delimited stream protocol over any
// ReadWriteCloser: a subprocess's pipes or a Unix socket.
type rpcBackend struct {
	conn    *jsonrpc2.Conn
	cleanup func() error
}

// noopHandler drops server-initiated requests; the tool server sends none.
type noopHandler struct{}

func (noopHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {}

func newRPCBackend(ctx context.Context, rwc io.ReadWriteCloser, cleanup func() error) *rpcBackend {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.PlainObjectCodec{})
	return &rpcBackend{
		conn:    jsonrpc2.NewConn(ctx, stream, noopHandler{}),
		cleanup: cleanup,
	}
}

func (b *rpcBackend) Initialize(ctx context.Context) (*mcp.InitializeResult, error) {
	var result mcp.InitializeResult
	if err := b.conn.Call(ctx, mcp.MethodInitialize, initializeParams(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (b *rpcBackend) ListTools(ctx context.Context) ([]protocol.Tool, error) {
	var result mcp.ListToolsResult
	if err := b.conn.Call(ctx, mcp.MethodListTools, nil, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

func (b *rpcBackend) CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.ToolResult, error) {
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}

	var result protocol.ToolResult
	if err := b.conn.Call(ctx, mcp.MethodCallTool, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (b *rpcBackend) Close() error {
	err := b.conn.Close()
	if b.cleanup != nil {
		if cerr := b.cleanup(); err == nil {
			err = cerr
		}
	}
	return err
}

// pipeRWC joins a subprocess's stdout/stdin into one stream.
type pipeRWC struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (p *pipeRWC) Read(b []byte) (int, error)  { return p.reader.Read(b) }
func (p *pipeRWC) Write(b []byte) (int, error) { return p.writer.Write(b) }

func (p *pipeRWC) Close() error {
	werr := p.writer.Close()
	rerr := p.reader.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// NewStdio launches a server subprocess and drives it over its stdin/stdout.
// The server's log output stays on stderr.
func NewStdio(ctx context.Context, command string, args ...string) (Backend, error) {
	if command == "" {
		return nil, errors.New("server command cannot be empty")
	}

	cmd := exec.Command(command, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", command, err)
	}

	rwc := &pipeRWC{reader: stdout, writer: stdin}
	// Closing the connection closes stdin, which ends the server's stream
	// loop; Wait reaps the process.
	return newRPCBackend(ctx, rwc, cmd.Wait), nil
}

// Dial connects to a running server's Unix socket.
func Dial(ctx context.Context, socketPath string) (Backend, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	return newRPCBackend(ctx, conn, nil), nil
}
