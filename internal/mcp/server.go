package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/toolgate/toolgate/internal/logger"
	"github.com/toolgate/toolgate/internal/tools"
	"github.com/toolgate/toolgate/pkg/protocol"
)

// maxFrameSize bounds a single newline-delimited request frame.
const maxFrameSize = 1024 * 1024

// Server runs the dispatcher over a newline-delimited JSON stream, the
// framing used on stdin/stdout and on socket connections.
type Server struct {
	handler *Handler
	log     *slog.Logger
}

func NewServer(handler *Handler) *Server {
	return &Server{
		handler: handler,
		log:     logger.ForComponent("stream"),
	}
}

func (s *Server) HandleRequest(ctx context.Context, req *Request) *Response {
	return s.handler.Handle(ctx, req)
}

func (s *Server) Registry() *tools.Registry {
	return s.handler.Registry()
}

// ProcessStream reads one request per line and writes one response per
// request. Unparseable lines get a ParseError with a null id; notifications
// produce no output. The loop only ends when the reader does.
func (s *Server) ProcessStream(ctx context.Context, reader io.Reader, writer io.Writer) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	encoder := json.NewEncoder(writer)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn("unparseable frame", "error", err)
			resp := protocol.NewErrorResponse(nil, protocol.CodeParseError, "Parse error")
			if err := encoder.Encode(resp); err != nil {
				return err
			}
			continue
		}

		resp := s.handler.Handle(ctx, &req)
		if resp == nil {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}

	return scanner.Err()
}
