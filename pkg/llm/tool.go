package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Tool names must be identifier-safe: providers reject anything else.
var toolNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ToolDefinition is a function contract offered to the model: a name, a
// human-readable description, and a JSON-Schema object describing the
// parameters. Names must be unique within one request.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// NewTool creates a validated tool definition. parameters may be a
// json.RawMessage, []byte, string, or any value that marshals to a JSON
// object; the schema must declare "type":"object".
func NewTool(name, description string, parameters any) (ToolDefinition, error) {
	if !toolNameRe.MatchString(name) {
		return ToolDefinition{}, &ValidationError{Field: "name", Reason: fmt.Sprintf("tool name %q is not identifier-safe", name)}
	}

	raw, err := rawSchema(parameters)
	if err != nil {
		return ToolDefinition{}, err
	}

	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return ToolDefinition{}, &ValidationError{Field: "parameters", Reason: fmt.Sprintf("not a JSON object: %v", err)}
	}
	if t, _ := schema["type"].(string); t != "object" {
		return ToolDefinition{}, &ValidationError{Field: "parameters", Reason: `schema must declare "type":"object"`}
	}

	return ToolDefinition{Name: name, Description: description, Parameters: raw}, nil
}

// ToolFromMap builds a tool definition from an untyped map, as produced by
// external deserialization. Name, description, and parameters are required.
func ToolFromMap(data map[string]any) (ToolDefinition, error) {
	name, ok := data["name"].(string)
	if !ok || name == "" {
		return ToolDefinition{}, &ValidationError{Field: "name", Reason: "tool must have a 'name' field"}
	}
	description, ok := data["description"].(string)
	if !ok {
		return ToolDefinition{}, &ValidationError{Field: "description", Reason: "tool must have a 'description' field"}
	}
	parameters, ok := data["parameters"]
	if !ok {
		return ToolDefinition{}, &ValidationError{Field: "parameters", Reason: "tool must have a 'parameters' field"}
	}
	return NewTool(name, description, parameters)
}

// Map returns the serializable form of the definition.
func (t ToolDefinition) Map() map[string]any {
	return map[string]any{
		"name":        t.Name,
		"description": t.Description,
		"parameters":  t.Parameters,
	}
}

func rawSchema(parameters any) (json.RawMessage, error) {
	switch p := parameters.(type) {
	case nil:
		return nil, &ValidationError{Field: "parameters", Reason: "parameters schema is required"}
	case json.RawMessage:
		return p, nil
	case []byte:
		return json.RawMessage(p), nil
	case string:
		return json.RawMessage(p), nil
	default:
		raw, err := json.Marshal(parameters)
		if err != nil {
			return nil, &ValidationError{Field: "parameters", Reason: fmt.Sprintf("not serializable: %v", err)}
		}
		return raw, nil
	}
}

// ToolCall is a model-issued request to invoke one of the offered tools.
// Callers never construct tool calls; they are produced by parsing a
// provider reply. Arguments hold the raw JSON value as the model produced
// it and are not validated against the tool's schema by this layer.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ArgumentsInto unmarshals the call arguments into v.
func (c ToolCall) ArgumentsInto(v any) error {
	return json.Unmarshal(c.Arguments, v)
}

// Map returns the serializable form of the call.
func (c ToolCall) Map() map[string]any {
	return map[string]any{
		"id":        c.ID,
		"name":      c.Name,
		"arguments": c.Arguments,
	}
}
