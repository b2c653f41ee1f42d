package toolkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/user/parley/pkg/llm"
)

// fakeTool is a configurable test tool.
type fakeTool struct {
	name    string
	execute func(ctx context.Context, args json.RawMessage) (string, error)
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "fake tool " + f.name }
func (f *fakeTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{}}`)
}
func (f *fakeTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	if f.execute != nil {
		return f.execute(ctx, args)
	}
	return "ok", nil
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeTool{name: "beta"})
	reg.Register(&fakeTool{name: "alpha"})

	if _, ok := reg.Get("alpha"); !ok {
		t.Error("alpha should be registered")
	}
	if _, ok := reg.Get("gamma"); ok {
		t.Error("gamma should not be registered")
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("expected sorted names, got %v", names)
	}
}

func TestRegistryDefinitions(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeTool{name: "alpha"})

	defs, err := reg.Definitions()
	if err != nil {
		t.Fatalf("Definitions failed: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	if defs[0].Name != "alpha" || defs[0].Description != "fake tool alpha" {
		t.Errorf("definition malformed: %+v", defs[0])
	}
}

func TestExecuteBatch(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeTool{
		name: "echo",
		execute: func(_ context.Context, args json.RawMessage) (string, error) {
			var p struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return "", err
			}
			return p.Text, nil
		},
	})

	conv, _ := llm.NewMessageCollection()
	conv.AppendUser("echo twice")

	resp := &llm.ToolResponse{
		ResponseID: "resp_1",
		ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "echo", Arguments: json.RawMessage(`{"text":"one"}`)},
			{ID: "call_2", Name: "echo", Arguments: json.RawMessage(`{"text":"two"}`)},
		},
	}

	if err := ExecuteBatch(context.Background(), reg, conv, resp); err != nil {
		t.Fatalf("ExecuteBatch failed: %v", err)
	}

	// user + assistant replay + two tool results
	if conv.Len() != 4 {
		t.Fatalf("expected 4 messages, got %d", conv.Len())
	}

	replay, _ := conv.Get(1)
	if replay.Role != llm.RoleAssistant || replay.ID != "resp_1" {
		t.Errorf("assistant turn not replayed: %+v", replay)
	}

	// Results land in the order the calls were returned.
	for idx, want := range []struct{ callID, content string }{
		{"call_1", "one"},
		{"call_2", "two"},
	} {
		msg, _ := conv.Get(2 + idx)
		if msg.Role != llm.RoleTool || msg.ToolCallID != want.callID || msg.Content != want.content {
			t.Errorf("result %d malformed: %+v", idx, msg)
		}
	}
}

func TestExecuteBatchUnknownTool(t *testing.T) {
	reg := NewRegistry()
	conv, _ := llm.NewMessageCollection()
	conv.AppendUser("x")

	resp := &llm.ToolResponse{
		ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "missing", Arguments: json.RawMessage(`{}`)},
		},
	}

	err := ExecuteBatch(context.Background(), reg, conv, resp)
	var terr *llm.ToolCallError
	if !errors.As(err, &terr) {
		t.Fatalf("expected ToolCallError, got %v", err)
	}
	if terr.Tool != "missing" {
		t.Errorf("error should name the tool, got %q", terr.Tool)
	}
}

func TestExecuteBatchToolErrorFedBack(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeTool{
		name: "flaky",
		execute: func(context.Context, json.RawMessage) (string, error) {
			return "", fmt.Errorf("upstream unavailable")
		},
	})

	conv, _ := llm.NewMessageCollection()
	conv.AppendUser("x")

	resp := &llm.ToolResponse{
		ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "flaky", Arguments: json.RawMessage(`{}`)},
		},
	}

	// Tool failures do not fail the batch; the model sees the error text.
	if err := ExecuteBatch(context.Background(), reg, conv, resp); err != nil {
		t.Fatalf("ExecuteBatch failed: %v", err)
	}
	msg, _ := conv.Get(2)
	if msg.Content != "error: upstream unavailable" {
		t.Errorf("expected error result, got %q", msg.Content)
	}
}

func TestExecuteBatchNoCalls(t *testing.T) {
	conv, _ := llm.NewMessageCollection()
	conv.AppendUser("x")

	if err := ExecuteBatch(context.Background(), NewRegistry(), conv, &llm.ToolResponse{Content: "done"}); err != nil {
		t.Fatalf("ExecuteBatch failed: %v", err)
	}
	if conv.Len() != 1 {
		t.Errorf("terminal responses must not touch the conversation, got %d messages", conv.Len())
	}
}
