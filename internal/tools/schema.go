package tools

import (
	"encoding/json"
	"fmt"
	"math"
)

// Param describes one parameter of a tool's input schema.
type Param struct {
	Name        string
	Type        string // "string", "number", "integer", "boolean", "array", "object"
	Description string
	Required    bool
	Items       string // element type when Type is "array"
	MinItems    int    // lower bound for arrays, 0 means unbounded
}

// Spec is the declarative input descriptor a tool is built from. It renders
// the JSON-Schema object advertised in listings, and arguments are checked
// against it before the tool implementation ever runs.
type Spec struct {
	Params []Param
}

// Schema builds the JSON-Schema object form of the spec.
func (s Spec) Schema() map[string]interface{} {
	properties := make(map[string]interface{}, len(s.Params))
	required := make([]string, 0, len(s.Params))

	for _, p := range s.Params {
		prop := map[string]interface{}{
			"type": p.Type,
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Type == "array" {
			if p.Items != "" {
				prop["items"] = map[string]interface{}{"type": p.Items}
			}
			if p.MinItems > 0 {
				prop["minItems"] = p.MinItems
			}
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// JSON renders the schema for Tool.Schema implementations.
func (s Spec) JSON() json.RawMessage {
	data, err := json.Marshal(s.Schema())
	if err != nil {
		// Specs are static literals; marshal cannot fail on them.
		panic(fmt.Sprintf("render schema: %v", err))
	}
	return data
}

// Validate checks decoded call arguments against the spec. Extra keys are
// tolerated; missing required parameters and type mismatches are not.
func (s Spec) Validate(args map[string]interface{}) error {
	for _, p := range s.Params {
		value, present := args[p.Name]
		if !present {
			if p.Required {
				return invalidParam(p.Name, "missing required parameter")
			}
			continue
		}
		if err := checkType(p, value); err != nil {
			return err
		}
	}
	return nil
}

func checkType(p Param, value interface{}) error {
	switch p.Type {
	case "string":
		if _, ok := value.(string); !ok {
			return invalidParam(p.Name, "expected string")
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return invalidParam(p.Name, "expected number")
		}
	case "integer":
		f, ok := value.(float64)
		if !ok || f != math.Trunc(f) {
			return invalidParam(p.Name, "expected integer")
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return invalidParam(p.Name, "expected boolean")
		}
	case "array":
		items, ok := value.([]interface{})
		if !ok {
			return invalidParam(p.Name, "expected array")
		}
		if p.MinItems > 0 && len(items) < p.MinItems {
			return invalidParam(p.Name, fmt.Sprintf("expected at least %d items", p.MinItems))
		}
		for i, item := range items {
			if err := checkType(Param{Name: fmt.Sprintf("%s[%d]", p.Name, i), Type: p.Items}, item); err != nil {
				return err
			}
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return invalidParam(p.Name, "expected object")
		}
	case "":
		// Untyped items are accepted as-is.
	default:
		return invalidParam(p.Name, fmt.Sprintf("unsupported schema type %q", p.Type))
	}
	return nil
}

// ValidateRaw decodes raw JSON arguments and validates them. Empty input is
// treated as no arguments.
func (s Spec) ValidateRaw(input json.RawMessage) (map[string]interface{}, error) {
	args := map[string]interface{}{}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, invalidParam("", "arguments must be a JSON object")
		}
	}
	if err := s.Validate(args); err != nil {
		return nil, err
	}
	return args, nil
}
