// Package server exposes the dispatcher over HTTP: POST /mcp for the
// protocol, GET /health for liveness, and optionally POST /chat when the
// bridge is enabled.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/toolgate/toolgate/internal/logger"
	"github.com/toolgate/toolgate/internal/mcp"
	"github.com/toolgate/toolgate/pkg/protocol"
	"github.com/toolgate/toolgate/pkg/version"
)

// maxBodySize bounds one request body, matching the stream frame bound.
const maxBodySize = 1024 * 1024

type Config struct {
	Addr    string
	Handler *mcp.Handler

	// Chat, when set, is mounted at POST /chat.
	Chat http.Handler
}

type Server struct {
	httpServer *http.Server
	handler    *mcp.Handler
	chat       http.Handler
	log        *slog.Logger
}

func New(cfg Config) *Server {
	s := &Server{
		handler: cfg.Handler,
		chat:    cfg.Chat,
		log:     logger.ForComponent("http"),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// routes registers OPTIONS alongside the real methods so preflights reach
// the CORS middleware instead of dying as 405.
func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(recoverMiddleware, loggingMiddleware, corsMiddleware)

	r.HandleFunc("/mcp", s.handleMCP).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	if s.chat != nil {
		r.Handle("/chat", s.chat).Methods(http.MethodPost, http.MethodOptions)
	}
	return r
}

// Handler returns the full middleware-wrapped handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// handleMCP answers every well-formed POST with 200: protocol failures ride
// inside the JSON-RPC payload, not on the HTTP status line. Notifications
// are acknowledged with 202 and an empty body.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusOK, protocol.NewErrorResponse(nil, protocol.CodeParseError, "Parse error"))
		return
	}

	var req mcp.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusOK, protocol.NewErrorResponse(nil, protocol.CodeParseError, "Parse error"))
		return
	}

	resp := s.handler.Handle(r.Context(), &req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, protocol.HealthStatus{
		Status:    "healthy",
		Service:   version.ServerName,
		Version:   version.Version,
		Transport: "http",
		Tools:     s.handler.Registry().Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
