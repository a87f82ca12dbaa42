package basic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/toolgate/toolgate/internal/tools"
)

type NowTool struct{}

func NewNowTool() *NowTool {
	return &NowTool{}
}

func (t *NowTool) Name() string {
	return "now"
}

func (t *NowTool) Title() string {
	return "Current Time"
}

func (t *NowTool) Description() string {
	return "Report the current time, in the given IANA timezone when it resolves, otherwise in server-local time"
}

var nowSpec = tools.Spec{Params: []tools.Param{
	{Name: "timezone", Type: "string", Description: "IANA timezone name such as Europe/Berlin", Required: false},
}}

func (t *NowTool) Schema() json.RawMessage {
	return nowSpec.JSON()
}

func (t *NowTool) InputSpec() tools.Spec {
	return nowSpec
}

func (t *NowTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

type NowRequest struct {
	Timezone string `json:"timezone"`
}

type NowResponse struct {
	ISO      string `json:"iso"`
	Unix     int64  `json:"unix"`
	Timezone string `json:"timezone"`
}

func (t *NowTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req NowRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("parse now arguments: %w", err)
	}

	loc := time.Local
	if req.Timezone != "" {
		// Unknown zones fall back to local time rather than failing the call.
		if parsed, err := time.LoadLocation(req.Timezone); err == nil {
			loc = parsed
		}
	}

	now := time.Now().In(loc)
	return NowResponse{
		ISO:      now.Format(time.RFC3339),
		Unix:     now.Unix(),
		Timezone: loc.String(),
	}, nil
}
