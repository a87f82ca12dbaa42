package basic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/toolgate/toolgate/internal/tools"
)

type AddNumbersTool struct{}

func NewAddNumbersTool() *AddNumbersTool {
	return &AddNumbersTool{}
}

func (t *AddNumbersTool) Name() string {
	return "add_numbers"
}

func (t *AddNumbersTool) Title() string {
	return "Add Numbers"
}

func (t *AddNumbersTool) Description() string {
	return "Sum a non-empty list of numbers and return the total"
}

var addSpec = tools.Spec{Params: []tools.Param{
	{
		Name:        "numbers",
		Type:        "array",
		Items:       "number",
		MinItems:    1,
		Description: "Numbers to sum, integers and floats alike",
		Required:    true,
	},
}}

func (t *AddNumbersTool) Schema() json.RawMessage {
	return addSpec.JSON()
}

func (t *AddNumbersTool) InputSpec() tools.Spec {
	return addSpec
}

func (t *AddNumbersTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

type AddNumbersRequest struct {
	Numbers []float64 `json:"numbers"`
}

type AddNumbersResponse struct {
	Sum float64 `json:"sum"`
}

func (t *AddNumbersTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req AddNumbersRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("parse add_numbers arguments: %w", err)
	}
	if len(req.Numbers) == 0 {
		return nil, &tools.ValidationError{Param: "numbers", Reason: "expected at least 1 items"}
	}

	var sum float64
	for _, n := range req.Numbers {
		sum += n
	}
	return AddNumbersResponse{Sum: sum}, nil
}
