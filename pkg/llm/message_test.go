package llm

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		role string
	}{
		{"system", SystemMessage("be brief"), RoleSystem},
		{"user", UserMessage("hello"), RoleUser},
		{"assistant", AssistantMessage("hi"), RoleAssistant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.msg.Role != tt.role {
				t.Errorf("expected role %q, got %q", tt.role, tt.msg.Role)
			}
			if err := tt.msg.Validate(); err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestToolMessage(t *testing.T) {
	msg, err := ToolMessage("call_1", `{"temp":18}`)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Role != RoleTool {
		t.Errorf("expected role tool, got %q", msg.Role)
	}
	if msg.ToolCallID != "call_1" {
		t.Errorf("expected tool_call_id call_1, got %q", msg.ToolCallID)
	}

	_, err = ToolMessage("", "result")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{"valid user", UserMessage("hi"), false},
		{"unknown role", Message{Role: "narrator", Content: "x"}, true},
		{"tool without call id", Message{Role: RoleTool, Content: "x"}, true},
		{"user with tool calls", Message{Role: RoleUser, Content: "x", ToolCalls: []ToolCall{{ID: "1", Name: "t"}}}, true},
		{"user with call id", Message{Role: RoleUser, Content: "x", ToolCallID: "1"}, true},
		{"assistant with calls", Message{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "1", Name: "t", Arguments: json.RawMessage(`{}`)}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestMessageFromMap(t *testing.T) {
	msg, err := MessageFromMap(map[string]any{
		"role":    "assistant",
		"content": "checking the weather",
		"id":      "resp_1",
		"tool_calls": []any{
			map[string]any{"id": "call_1", "name": "get_weather", "arguments": map[string]any{"location": "Paris"}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID != "resp_1" {
		t.Errorf("expected id resp_1, got %q", msg.ID)
	}
	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].Name != "get_weather" {
		t.Fatalf("unexpected tool calls: %+v", msg.ToolCalls)
	}

	if _, err := MessageFromMap(map[string]any{"content": "no role"}); err == nil {
		t.Error("expected error for missing role")
	}
	if _, err := MessageFromMap(map[string]any{"role": "user"}); err == nil {
		t.Error("expected error for missing content")
	}
}

func TestMessageJSONRoundTrip(t *testing.T) {
	original := Message{
		Role:    RoleAssistant,
		Content: "on it",
		ID:      "resp_9",
		ToolCalls: []ToolCall{
			{ID: "call_1", Name: "get_weather", Arguments: json.RawMessage(`{"location":"Paris"}`)},
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(decoded.Map(), original.Map()) {
		t.Errorf("round trip changed message:\n  original: %v\n  decoded:  %v", original.Map(), decoded.Map())
	}
}

func TestMessageMapOmitsUnsetFields(t *testing.T) {
	m := UserMessage("hi").Map()
	for _, key := range []string{"tool_calls", "id", "tool_call_id"} {
		if _, present := m[key]; present {
			t.Errorf("unset field %q should be absent from map", key)
		}
	}
}
