package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// StructuredBuilder accumulates configuration for a structured-output
// completion. Builders snapshot the client's configuration at creation;
// setters mutate the builder and return it for chaining.
type StructuredBuilder struct {
	provider  Provider
	model     string
	config    RequestConfig
	schema    json.RawMessage
	schemaErr error
	format    string
}

// WithSchema sets the JSON Schema the output must match. schema may be a
// json.RawMessage, []byte, string, or any value that marshals to JSON.
func (b *StructuredBuilder) WithSchema(schema any) *StructuredBuilder {
	switch s := schema.(type) {
	case json.RawMessage:
		b.schema = s
	case []byte:
		b.schema = json.RawMessage(s)
	case string:
		b.schema = json.RawMessage(s)
	default:
		raw, err := json.Marshal(schema)
		if err != nil {
			// Setters stay fluent; Complete surfaces the error.
			b.schemaErr = &ValidationError{Field: "schema", Reason: fmt.Sprintf("not serializable: %v", err)}
			return b
		}
		b.schema = raw
	}
	b.schemaErr = nil
	return b
}

// WithFormat sets the structured output mode: FormatJSON or
// FormatJSONSchema. When unset, the mode follows the schema: json_schema if
// a schema was supplied, plain json otherwise.
func (b *StructuredBuilder) WithFormat(format string) *StructuredBuilder {
	b.format = format
	return b
}

// SetTemperature sets the sampling temperature.
func (b *StructuredBuilder) SetTemperature(t float64) *StructuredBuilder {
	b.config.Temperature = &t
	return b
}

// SetMaxTokens sets the completion token limit.
func (b *StructuredBuilder) SetMaxTokens(n int) *StructuredBuilder {
	b.config.MaxTokens = &n
	return b
}

// SetTopP sets the nucleus sampling threshold.
func (b *StructuredBuilder) SetTopP(p float64) *StructuredBuilder {
	b.config.TopP = &p
	return b
}

// Complete runs the structured completion. The raw textual content is always
// preserved on the response; it is parsed as JSON exactly once. When parsing
// fails the call fails with a StructuredOutputError carrying the raw text,
// and no retry is attempted.
func (b *StructuredBuilder) Complete(ctx context.Context, messages *MessageCollection) (*StructuredResponse, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	format, err := b.resolveFormat()
	if err != nil {
		return nil, err
	}

	res, err := b.provider.CompleteChat(ctx, &Request{
		Model:    b.model,
		Messages: messages.All(),
		Config:   b.config.clone(),
		Format:   format,
	})
	if err != nil {
		return nil, err
	}

	usage := usageFrom(res)

	structured := res.Structured
	if structured == nil {
		text := strings.TrimSpace(res.Content)
		var probe any
		if err := json.Unmarshal([]byte(text), &probe); err != nil {
			return nil, &StructuredOutputError{Raw: res.Content, Usage: usage, Err: err}
		}
		structured = json.RawMessage(text)
	}

	return &StructuredResponse{
		Content:      res.Content,
		Structured:   structured,
		Usage:        usage,
		Model:        modelFrom(res, b.model),
		FinishReason: finishFrom(res, "stop"),
	}, nil
}

func (b *StructuredBuilder) resolveFormat() (*ResponseFormat, error) {
	if b.schemaErr != nil {
		return nil, b.schemaErr
	}
	if b.schema != nil && !json.Valid(b.schema) {
		return nil, &ValidationError{Field: "schema", Reason: "schema is not valid JSON"}
	}

	format := b.format
	if format == "" {
		if b.schema != nil {
			format = FormatJSONSchema
		} else {
			format = FormatJSON
		}
	}

	switch format {
	case FormatJSON:
		return &ResponseFormat{Type: FormatJSON}, nil
	case FormatJSONSchema:
		if b.schema == nil {
			return nil, &ValidationError{Field: "schema", Reason: "json_schema format requires a schema"}
		}
		return &ResponseFormat{Type: FormatJSONSchema, Schema: b.schema}, nil
	default:
		return nil, &ValidationError{Field: "format", Reason: fmt.Sprintf("unknown format %q", format)}
	}
}

// ToolBuilder accumulates configuration for a tool-enabled completion. An
// empty tool set is accepted and degenerates to a plain completion.
type ToolBuilder struct {
	provider    Provider
	model       string
	config      RequestConfig
	tools       []ToolDefinition
	autoExecute bool
}

// AddTool offers one more tool to the model.
func (b *ToolBuilder) AddTool(tool ToolDefinition) *ToolBuilder {
	b.tools = append(b.tools, tool)
	return b
}

// SetTools replaces the offered tool set.
func (b *ToolBuilder) SetTools(tools []ToolDefinition) *ToolBuilder {
	b.tools = append([]ToolDefinition(nil), tools...)
	return b
}

// SetAutoExecute is reserved. This layer never executes tools itself; the
// flag is accepted for interface stability and has no effect.
func (b *ToolBuilder) SetAutoExecute(auto bool) *ToolBuilder {
	b.autoExecute = auto
	return b
}

// SetTemperature sets the sampling temperature.
func (b *ToolBuilder) SetTemperature(t float64) *ToolBuilder {
	b.config.Temperature = &t
	return b
}

// SetMaxTokens sets the completion token limit.
func (b *ToolBuilder) SetMaxTokens(n int) *ToolBuilder {
	b.config.MaxTokens = &n
	return b
}

// SetTopP sets the nucleus sampling threshold.
func (b *ToolBuilder) SetTopP(p float64) *ToolBuilder {
	b.config.TopP = &p
	return b
}

// Complete runs the tool-enabled completion. Tool names must be unique in
// one request, and every call the model returns must name an offered tool.
func (b *ToolBuilder) Complete(ctx context.Context, messages *MessageCollection) (*ToolResponse, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	offered := make(map[string]bool, len(b.tools))
	for _, t := range b.tools {
		if offered[t.Name] {
			return nil, &ValidationError{Field: "tools", Reason: fmt.Sprintf("duplicate tool name %q", t.Name)}
		}
		offered[t.Name] = true
	}

	res, err := b.provider.CompleteChat(ctx, &Request{
		Model:    b.model,
		Messages: messages.All(),
		Config:   b.config.clone(),
		Tools:    append([]ToolDefinition(nil), b.tools...),
	})
	if err != nil {
		return nil, err
	}

	for _, call := range res.ToolCalls {
		if !offered[call.Name] {
			return nil, &ToolCallError{Tool: call.Name, Reason: "not offered in this request"}
		}
	}

	fallback := "stop"
	if len(res.ToolCalls) > 0 {
		fallback = "tool_calls"
	}

	return &ToolResponse{
		Content:      res.Content,
		ToolCalls:    cloneToolCalls(res.ToolCalls),
		Usage:        usageFrom(res),
		Model:        modelFrom(res, b.model),
		FinishReason: finishFrom(res, fallback),
		ResponseID:   res.ResponseID,
	}, nil
}
