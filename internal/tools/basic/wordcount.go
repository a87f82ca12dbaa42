package basic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/toolgate/toolgate/internal/tools"
)

type WordCountTool struct{}

func NewWordCountTool() *WordCountTool {
	return &WordCountTool{}
}

func (t *WordCountTool) Name() string {
	return "word_count"
}

func (t *WordCountTool) Title() string {
	return "Word Count"
}

func (t *WordCountTool) Description() string {
	return "Count whitespace-separated words and characters in a text"
}

var wordCountSpec = tools.Spec{Params: []tools.Param{
	{Name: "text", Type: "string", Description: "Text to count", Required: true},
}}

func (t *WordCountTool) Schema() json.RawMessage {
	return wordCountSpec.JSON()
}

func (t *WordCountTool) InputSpec() tools.Spec {
	return wordCountSpec
}

func (t *WordCountTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

type WordCountRequest struct {
	Text string `json:"text"`
}

type WordCountResponse struct {
	Words      int `json:"words"`
	Characters int `json:"characters"`
}

func (t *WordCountTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var req WordCountRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("parse word_count arguments: %w", err)
	}
	return WordCountResponse{
		Words:      len(strings.Fields(req.Text)),
		Characters: utf8.RuneCountInString(req.Text),
	}, nil
}
