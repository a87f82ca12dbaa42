// Package bridge runs the ask-model / execute-tools loop that resolves a
// natural-language prompt into a final answer, letting the model request
// tool executions along the way.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/toolgate/toolgate/internal/client"
	"github.com/toolgate/toolgate/internal/llm"
	"github.com/toolgate/toolgate/internal/logger"
	"github.com/toolgate/toolgate/pkg/protocol"
)

var (
	// ErrLoopExceeded means the model kept requesting tools past the round
	// bound.
	ErrLoopExceeded = errors.New("too many tool-calling rounds")

	// ErrUpstream wraps completion-provider failures.
	ErrUpstream = errors.New("completion provider error")
)

const (
	DefaultMaxRounds    = 8
	DefaultSystemPrompt = "You are a cautious assistant that prefers using available tools."
)

// Orchestrator holds the fixed collaborators for the loop. Each Answer call
// builds its own conversation, so one Orchestrator serves concurrent
// requests.
type Orchestrator struct {
	backend           client.Backend
	completer         llm.Completer
	maxRounds         int
	systemPrompt      string
	completionTimeout time.Duration
	maxAttempts       int
	log               *slog.Logger
}

type Option func(*Orchestrator)

func WithMaxRounds(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxRounds = n
		}
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(o *Orchestrator) {
		if prompt != "" {
			o.systemPrompt = prompt
		}
	}
}

// WithCompletionTimeout bounds each provider call so a stalled upstream
// cannot hang the request.
func WithCompletionTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.completionTimeout = d
	}
}

func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

func New(backend client.Backend, completer llm.Completer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:      backend,
		completer:    completer,
		maxRounds:    DefaultMaxRounds,
		systemPrompt: DefaultSystemPrompt,
		maxAttempts:  1,
		log:          logger.ForComponent("bridge"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Answer runs the loop to completion: ask the model, execute whatever tools
// it requested, resume, until it answers in plain text or the round bound
// trips.
func (o *Orchestrator) Answer(ctx context.Context, prompt string) (string, error) {
	if _, err := o.backend.Initialize(ctx); err != nil {
		return "", fmt.Errorf("initialize backend: %w", err)
	}
	catalog, err := o.backend.ListTools(ctx)
	if err != nil {
		return "", fmt.Errorf("list tools: %w", err)
	}
	tools := toToolDefs(catalog)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: o.systemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}

	for round := 0; round < o.maxRounds; round++ {
		completion, err := o.complete(ctx, messages, tools)
		if err != nil {
			// The caller's cancellation is not an upstream fault.
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("%w: %w", ErrUpstream, err)
		}

		if len(completion.ToolCalls) == 0 {
			return completion.Content, nil
		}

		o.log.Debug("model requested tools", "round", round, "calls", len(completion.ToolCalls))

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})
		messages = append(messages, o.executeRound(ctx, completion.ToolCalls)...)
	}

	return "", fmt.Errorf("%w: gave up after %d rounds", ErrLoopExceeded, o.maxRounds)
}

func (o *Orchestrator) complete(ctx context.Context, messages []llm.Message, tools []llm.ToolDef) (*llm.Completion, error) {
	if o.completionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.completionTimeout)
		defer cancel()
	}
	return llm.CompleteWithRetry(ctx, o.completer, messages, tools, o.maxAttempts)
}

// executeRound runs every call the model requested in this turn. Calls are
// independent and run concurrently, but results join in call order so the
// transcript stays deterministic.
func (o *Orchestrator) executeRound(ctx context.Context, calls []llm.ToolCall) []llm.Message {
	results := make([]llm.Message, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			results[i] = llm.Message{
				Role:       llm.RoleTool,
				Name:       call.Name,
				ToolCallID: call.ID,
				Content:    o.executeCall(ctx, call),
			}
		}(i, call)
	}
	wg.Wait()

	return results
}

// executeCall reduces one tool call to the string the model sees next turn.
// Failures of any kind become {"error": ...} content: the model decides how
// to respond, the conversation never aborts.
func (o *Orchestrator) executeCall(ctx context.Context, call llm.ToolCall) string {
	args := map[string]interface{}{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return errorPayload(fmt.Errorf("parse tool arguments: %w", err))
		}
	}

	result, err := o.backend.CallTool(ctx, call.Name, args)
	if err != nil {
		o.log.Warn("tool call failed", "tool", call.Name, "error", err)
		return errorPayload(err)
	}
	return reduceResult(result)
}

func errorPayload(err error) string {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(data)
}

// reduceResult prefers the structured json part; otherwise it joins the
// non-empty text parts.
func reduceResult(result *protocol.ToolResult) string {
	if result == nil {
		return ""
	}

	var texts []string
	for _, part := range result.Content {
		switch part.Type {
		case "json":
			if part.JSON != nil {
				if data, err := json.Marshal(part.JSON); err == nil {
					return string(data)
				}
			}
		case "text":
			if part.Text != "" {
				texts = append(texts, part.Text)
			}
		}
	}
	return strings.Join(texts, "\n")
}

// toToolDefs renders the catalog in the provider tool shape. A missing
// schema becomes the empty object schema.
func toToolDefs(catalog []protocol.Tool) []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(catalog))
	for _, t := range catalog {
		params := t.InputSchema
		if params == nil {
			params = map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			}
		}
		defs = append(defs, llm.ToolDef{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		})
	}
	return defs
}
