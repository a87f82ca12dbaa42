package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/toolgate/toolgate/internal/logger"
)

// SocketServer exposes the stream protocol on a Unix socket. Every accepted
// connection is an independent session over the same dispatcher.
type SocketServer struct {
	socketPath string
	server     *Server
	listener   net.Listener
	log        *slog.Logger

	connections  map[net.Conn]bool
	connMu       sync.Mutex
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

func NewSocketServer(server *Server, socketPath string) *SocketServer {
	return &SocketServer{
		socketPath:  socketPath,
		server:      server,
		log:         logger.ForComponent("socket"),
		connections: make(map[net.Conn]bool),
		shutdown:    make(chan struct{}),
	}
}

// Start binds the socket and accepts connections in the background. The
// caller owns process signals and calls Shutdown.
func (s *SocketServer) Start() error {
	if err := os.RemoveAll(s.socketPath); err != nil {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket dir: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0700); err != nil {
		listener.Close()
		return fmt.Errorf("failed to chmod socket: %w", err)
	}

	s.log.Info("socket listening", "path", s.socketPath)
	go s.acceptConnections()
	return nil
}

func (s *SocketServer) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				continue
			}
		}

		s.connMu.Lock()
		s.connections[conn] = true
		s.connMu.Unlock()

		go s.handleConnection(conn)
	}
}

func (s *SocketServer) handleConnection(conn net.Conn) {
	defer func() {
		conn.Close()
		s.connMu.Lock()
		delete(s.connections, conn)
		s.connMu.Unlock()
	}()

	if err := s.server.ProcessStream(context.Background(), conn, conn); err != nil {
		s.log.Debug("connection closed", "error", err)
	}
}

func (s *SocketServer) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)

		if s.listener != nil {
			s.listener.Close()
		}

		s.connMu.Lock()
		for conn := range s.connections {
			conn.Close()
		}
		s.connMu.Unlock()

		os.Remove(s.socketPath)
	})
}

func (s *SocketServer) SocketPath() string {
	return s.socketPath
}
