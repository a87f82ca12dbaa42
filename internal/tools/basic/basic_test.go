package basic

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/toolgate/toolgate/internal/tools"
)

func TestGetTools(t *testing.T) {
	list := GetTools()

	if len(list) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(list))
	}

	names := []string{"echo", "add_numbers", "now", "word_count"}
	for i, expected := range names {
		if list[i].Name() != expected {
			t.Errorf("expected tool %d to be %q, got %q", i, expected, list[i].Name())
		}
		if list[i].Description() == "" {
			t.Errorf("tool %q has no description", list[i].Name())
		}
		if len(list[i].Schema()) == 0 {
			t.Errorf("tool %q has no schema", list[i].Name())
		}
	}
}

func TestRegisterAll(t *testing.T) {
	registry := tools.NewRegistry()
	if err := RegisterAll(registry); err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}
	if registry.Len() != 4 {
		t.Errorf("expected 4 registered tools, got %d", registry.Len())
	}
}

func TestEchoTool(t *testing.T) {
	tool := NewEchoTool()
	ctx := context.Background()

	result, err := tool.Execute(ctx, json.RawMessage(`{"text":"hello world"}`))
	if err != nil {
		t.Fatalf("echo failed: %v", err)
	}
	resp := result.(EchoResponse)
	if resp.Text != "hello world" {
		t.Errorf("expected 'hello world', got %q", resp.Text)
	}

	// Echo must return the input unchanged, whitespace included.
	result, err = tool.Execute(ctx, json.RawMessage(`{"text":"  padded \n text  "}`))
	if err != nil {
		t.Fatalf("echo failed: %v", err)
	}
	resp = result.(EchoResponse)
	if resp.Text != "  padded \n text  " {
		t.Errorf("echo altered the text: %q", resp.Text)
	}

	result, err = tool.Execute(ctx, json.RawMessage(`{"text":""}`))
	if err != nil {
		t.Fatalf("echo failed on empty text: %v", err)
	}
	if result.(EchoResponse).Text != "" {
		t.Error("expected empty text back")
	}
}

func TestAddNumbersTool(t *testing.T) {
	tool := NewAddNumbersTool()
	ctx := context.Background()

	result, err := tool.Execute(ctx, json.RawMessage(`{"numbers":[10,20,30]}`))
	if err != nil {
		t.Fatalf("add_numbers failed: %v", err)
	}
	resp := result.(AddNumbersResponse)
	if resp.Sum != 60 {
		t.Errorf("expected sum 60, got %v", resp.Sum)
	}

	result, err = tool.Execute(ctx, json.RawMessage(`{"numbers":[1.5,2.25]}`))
	if err != nil {
		t.Fatalf("add_numbers failed on floats: %v", err)
	}
	resp = result.(AddNumbersResponse)
	if resp.Sum != 3.75 {
		t.Errorf("expected sum 3.75, got %v", resp.Sum)
	}

	result, err = tool.Execute(ctx, json.RawMessage(`{"numbers":[-5]}`))
	if err != nil {
		t.Fatalf("add_numbers failed on single element: %v", err)
	}
	resp = result.(AddNumbersResponse)
	if resp.Sum != -5 {
		t.Errorf("expected sum -5, got %v", resp.Sum)
	}

	if _, err := tool.Execute(ctx, json.RawMessage(`{"numbers":[]}`)); err == nil {
		t.Error("expected error for empty numbers array")
	}
}

func TestAddNumbersSpecRejectsWrongTypes(t *testing.T) {
	spec := NewAddNumbersTool().InputSpec()

	if _, err := spec.ValidateRaw(json.RawMessage(`{"numbers":["a","b"]}`)); err == nil {
		t.Error("expected validation error for string elements")
	}
	if _, err := spec.ValidateRaw(json.RawMessage(`{"numbers":5}`)); err == nil {
		t.Error("expected validation error for non-array")
	}
	if _, err := spec.ValidateRaw(json.RawMessage(`{}`)); err == nil {
		t.Error("expected validation error for missing numbers")
	}
}

func TestNowTool(t *testing.T) {
	tool := NewNowTool()
	ctx := context.Background()

	result, err := tool.Execute(ctx, json.RawMessage(`{"timezone":"UTC"}`))
	if err != nil {
		t.Fatalf("now failed: %v", err)
	}
	resp := result.(NowResponse)

	if resp.Timezone != "UTC" {
		t.Errorf("expected timezone UTC, got %q", resp.Timezone)
	}
	parsed, err := time.Parse(time.RFC3339, resp.ISO)
	if err != nil {
		t.Fatalf("iso field is not RFC3339: %v", err)
	}
	if delta := time.Since(parsed); delta < 0 || delta > time.Minute {
		t.Errorf("timestamp too far from now: %v", delta)
	}
	if resp.Unix != parsed.Unix() {
		t.Errorf("unix %d does not match iso %s", resp.Unix, resp.ISO)
	}
}

func TestNowToolUnknownZoneFallsBack(t *testing.T) {
	tool := NewNowTool()

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"timezone":"Mars/Olympus"}`))
	if err != nil {
		t.Fatalf("now must not fail on unknown zones: %v", err)
	}
	resp := result.(NowResponse)
	if resp.Timezone != time.Local.String() {
		t.Errorf("expected local fallback, got %q", resp.Timezone)
	}
}

func TestWordCountTool(t *testing.T) {
	tool := NewWordCountTool()
	ctx := context.Background()

	result, err := tool.Execute(ctx, json.RawMessage(`{"text":"MCP is working on Ubuntu"}`))
	if err != nil {
		t.Fatalf("word_count failed: %v", err)
	}
	resp := result.(WordCountResponse)
	if resp.Words != 5 {
		t.Errorf("expected 5 words, got %d", resp.Words)
	}
	if resp.Characters != 24 {
		t.Errorf("expected 24 characters, got %d", resp.Characters)
	}

	result, err = tool.Execute(ctx, json.RawMessage(`{"text":"  spaced \t out\nlines  "}`))
	if err != nil {
		t.Fatalf("word_count failed: %v", err)
	}
	resp = result.(WordCountResponse)
	if resp.Words != 3 {
		t.Errorf("expected 3 words across mixed whitespace, got %d", resp.Words)
	}

	result, err = tool.Execute(ctx, json.RawMessage(`{"text":""}`))
	if err != nil {
		t.Fatalf("word_count failed on empty text: %v", err)
	}
	resp = result.(WordCountResponse)
	if resp.Words != 0 || resp.Characters != 0 {
		t.Errorf("expected zero counts, got %+v", resp)
	}

	// Characters count runes, not bytes.
	result, err = tool.Execute(ctx, json.RawMessage(`{"text":"héllo"}`))
	if err != nil {
		t.Fatalf("word_count failed: %v", err)
	}
	resp = result.(WordCountResponse)
	if resp.Characters != 5 {
		t.Errorf("expected 5 runes, got %d", resp.Characters)
	}
}
