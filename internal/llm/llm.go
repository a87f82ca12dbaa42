// Package llm abstracts chat-completion providers behind a tool-aware
// Completer interface. Providers translate the neutral message and tool
// shapes here into their own wire formats.
package llm

import (
	"context"
	"fmt"
)

// Conversation roles shared by all providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one conversational turn. Assistant turns may carry tool calls;
// tool turns carry the call id they answer and the tool's name.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// ToolCall is a model-issued request to run one tool. Arguments is the raw
// JSON blob exactly as the model produced it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDef describes one callable tool to the model. Parameters is a
// JSON-Schema object.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Completion is one model turn: final text, or one or more tool calls, or
// both.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

type Completer interface {
	Name() string
	Complete(ctx context.Context, messages []Message, tools []ToolDef) (*Completion, error)
}

type Option func(*Options)

type Options struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

func WithAPIKey(apiKey string) Option {
	return func(o *Options) {
		o.APIKey = apiKey
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithBaseURL(baseURL string) Option {
	return func(o *Options) {
		o.BaseURL = baseURL
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		MaxTokens: 1024,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// New selects a provider by name.
func New(provider string, opts ...Option) (Completer, error) {
	switch provider {
	case "openai":
		return NewOpenAI(opts...), nil
	case "anthropic":
		return NewAnthropic(opts...), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
