package basic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/toolgate/toolgate/internal/tools"
)

type EchoTool struct{}

func NewEchoTool() *EchoTool {
	return &EchoTool{}
}

func (t *EchoTool) Name() string {
	return "echo"
}

func (t *EchoTool) Title() string {
	return "Echo"
}

func (t *EchoTool) Description() string {
	return "Echo the provided text back to the caller"
}

var echoSpec = tools.Spec{Params: []tools.Param{
	{Name: "text", Type: "string", Description: "Text to echo back", Required: true},
}}

func (t *EchoTool) Schema() json.RawMessage {
	return echoSpec.JSON()
}

func (t *EchoTool) InputSpec() tools.Spec {
	return echoSpec
}

func (t *EchoTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

type EchoRequest struct {
	Text string `json:"text"`
}

type EchoResponse struct {
	Text string `json:"text"`
}

func (t *EchoTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req EchoRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("parse echo arguments: %w", err)
	}
	return EchoResponse{Text: req.Text}, nil
}
