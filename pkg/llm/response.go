package llm

import "encoding/json"

// Usage tracks token consumption for one exchange.
type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// NewUsage builds a Usage record. A provider-reported total is authoritative;
// the sum of prompt and output tokens is only a fallback when the provider
// omitted the total.
func NewUsage(prompt, output, total int) Usage {
	if total <= 0 {
		total = prompt + output
	}
	return Usage{PromptTokens: prompt, OutputTokens: output, TotalTokens: total}
}

// Map returns the serializable form of the usage record.
func (u Usage) Map() map[string]any {
	return map[string]any{
		"prompt_tokens": u.PromptTokens,
		"output_tokens": u.OutputTokens,
		"total_tokens":  u.TotalTokens,
	}
}

// Response is the outcome of a plain completion. Responses are produced by
// Complete and are read-only to the caller.
type Response struct {
	Content      string `json:"content"`
	Usage        Usage  `json:"usage"`
	Model        string `json:"model"`
	FinishReason string `json:"finish_reason"`
}

// StructuredResponse is the outcome of a structured completion. Content
// always preserves the raw text; Structured holds the same text parsed as a
// JSON value exactly once.
type StructuredResponse struct {
	Content      string          `json:"content"`
	Structured   json.RawMessage `json:"structured"`
	Usage        Usage           `json:"usage"`
	Model        string          `json:"model"`
	FinishReason string          `json:"finish_reason"`
}

// StructuredInto unmarshals the structured value into v.
func (r *StructuredResponse) StructuredInto(v any) error {
	return json.Unmarshal(r.Structured, v)
}

// ToolResponse is the outcome of a tool-enabled completion. When it carries
// tool calls, the caller must replay the response into the conversation with
// MessageCollection.FromResponse, execute every call out-of-band, append
// each result in the returned order, and complete again.
type ToolResponse struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls"`
	Usage        Usage      `json:"usage"`
	Model        string     `json:"model"`
	FinishReason string     `json:"finish_reason"`
	ResponseID   string     `json:"response_id,omitempty"`
}

// HasToolCalls reports whether the model requested any tool invocations.
func (r *ToolResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}
