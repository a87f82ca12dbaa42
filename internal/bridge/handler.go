package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/toolgate/toolgate/internal/logger"
)

// DefaultRequestTimeout bounds one whole /chat request, all rounds included.
const DefaultRequestTimeout = 5 * time.Minute

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

type chatError struct {
	Error string `json:"error"`
}

// Handler serves POST /chat on top of an Orchestrator.
type Handler struct {
	orchestrator *Orchestrator
	timeout      time.Duration
	log          *slog.Logger
}

func NewHandler(o *Orchestrator) *Handler {
	return &Handler{
		orchestrator: o,
		timeout:      DefaultRequestTimeout,
		log:          logger.ForComponent("chat"),
	}
}

// SetTimeout overrides the whole-request bound.
func (h *Handler) SetTimeout(d time.Duration) {
	if d > 0 {
		h.timeout = d
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		writeChatJSON(w, http.StatusBadRequest, chatError{Error: "Missing 'prompt'"})
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	answer, err := h.orchestrator.Answer(ctx, req.Prompt)
	if err != nil {
		h.log.Error("chat failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, ErrLoopExceeded) || errors.Is(err, ErrUpstream) {
			status = http.StatusBadGateway
		}
		writeChatJSON(w, status, chatError{Error: err.Error()})
		return
	}

	writeChatJSON(w, http.StatusOK, chatResponse{Answer: answer})
}

func writeChatJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
