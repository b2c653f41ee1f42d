// Package llm provides a provider-agnostic conversation model for chat
// completions: messages, tool definitions, tool calls, request builders, and
// the response variants they produce. The actual network call is performed by
// a Provider implementation registered under a vendor name; see the openai
// and anthropic subpackages.
package llm

import (
	"encoding/json"
	"fmt"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single conversation turn.
//
// ToolCallID is set only on tool-result messages (role "tool"). ToolCalls and
// ID are set only on assistant messages that replay a provider tool request;
// they are carried back to the provider verbatim so that the tool-result
// turns which follow are accepted.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ID         string     `json:"id,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates a plain assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolMessage creates a tool-result message for the given tool call.
// A tool message without a call id is invalid.
func ToolMessage(toolCallID, result string) (Message, error) {
	if toolCallID == "" {
		return Message{}, &ValidationError{Field: "tool_call_id", Reason: "tool message requires a tool call id"}
	}
	return Message{Role: RoleTool, Content: result, ToolCallID: toolCallID}, nil
}

// MessageFromResponse builds the assistant message that replays a tool
// response: the provider's exchange id and the tool calls are carried over
// verbatim. Providers reject tool-result turns that are not preceded by an
// exact replay of their own tool-call request, so this message must be
// appended before any tool results.
func MessageFromResponse(resp *ToolResponse) (Message, error) {
	if resp == nil {
		return Message{}, &ValidationError{Field: "response", Reason: "nil tool response"}
	}
	return Message{
		Role:      RoleAssistant,
		Content:   resp.Content,
		ID:        resp.ResponseID,
		ToolCalls: cloneToolCalls(resp.ToolCalls),
	}, nil
}

// MessageFromMap builds a Message from an untyped map, as produced by
// external deserialization. Role and content are required.
func MessageFromMap(data map[string]any) (Message, error) {
	role, ok := data["role"].(string)
	if !ok || role == "" {
		return Message{}, &ValidationError{Field: "role", Reason: "message must have a 'role' field"}
	}
	content, ok := data["content"].(string)
	if !ok {
		return Message{}, &ValidationError{Field: "content", Reason: "message must have a 'content' field"}
	}

	msg := Message{Role: role, Content: content}
	if id, ok := data["id"].(string); ok {
		msg.ID = id
	}
	if callID, ok := data["tool_call_id"].(string); ok {
		msg.ToolCallID = callID
	}
	if raw, ok := data["tool_calls"]; ok && raw != nil {
		encoded, err := json.Marshal(raw)
		if err != nil {
			return Message{}, &ValidationError{Field: "tool_calls", Reason: fmt.Sprintf("not serializable: %v", err)}
		}
		if err := json.Unmarshal(encoded, &msg.ToolCalls); err != nil {
			return Message{}, &ValidationError{Field: "tool_calls", Reason: fmt.Sprintf("malformed: %v", err)}
		}
	}

	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Validate checks the role-specific field invariants.
func (m Message) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser:
		// no extra fields allowed
	case RoleAssistant:
		if m.ToolCallID != "" {
			return &ValidationError{Field: "tool_call_id", Reason: "only tool messages carry a tool call id"}
		}
		return nil
	case RoleTool:
		if m.ToolCallID == "" {
			return &ValidationError{Field: "tool_call_id", Reason: "tool message requires a tool call id"}
		}
		if len(m.ToolCalls) > 0 {
			return &ValidationError{Field: "tool_calls", Reason: "tool messages cannot carry tool calls"}
		}
		return nil
	default:
		return &ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", m.Role)}
	}
	if len(m.ToolCalls) > 0 {
		return &ValidationError{Field: "tool_calls", Reason: "only assistant messages carry tool calls"}
	}
	if m.ToolCallID != "" {
		return &ValidationError{Field: "tool_call_id", Reason: "only tool messages carry a tool call id"}
	}
	return nil
}

// Map returns the serializable form of the message. Optional fields are
// present only when set.
func (m Message) Map() map[string]any {
	out := map[string]any{
		"role":    m.Role,
		"content": m.Content,
	}
	if len(m.ToolCalls) > 0 {
		calls := make([]map[string]any, len(m.ToolCalls))
		for i, c := range m.ToolCalls {
			calls[i] = c.Map()
		}
		out["tool_calls"] = calls
	}
	if m.ID != "" {
		out["id"] = m.ID
	}
	if m.ToolCallID != "" {
		out["tool_call_id"] = m.ToolCallID
	}
	return out
}

func cloneToolCalls(calls []ToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ToolCall, len(calls))
	for i, c := range calls {
		out[i] = ToolCall{
			ID:        c.ID,
			Name:      c.Name,
			Arguments: append(json.RawMessage(nil), c.Arguments...),
		}
	}
	return out
}

func cloneMessage(m Message) Message {
	m.ToolCalls = cloneToolCalls(m.ToolCalls)
	return m
}
