package budget

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/user/parley/pkg/llm"
)

func newTrimmer(t *testing.T, maxTokens, reserve int) *Trimmer {
	t.Helper()
	tr, err := New("gpt-4o-mini", maxTokens, reserve)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return tr
}

func TestTrimKeepsEverythingUnderBudget(t *testing.T) {
	tr := newTrimmer(t, 1000, 100)

	conv, _ := llm.NewMessageCollection()
	conv.AppendSystem("You are helpful.").AppendUser("hi").AppendAssistant("hello")

	trimmed, err := tr.Trim(conv)
	if err != nil {
		t.Fatalf("Trim failed: %v", err)
	}
	if trimmed.Len() != 3 {
		t.Errorf("nothing should be trimmed, got %d messages", trimmed.Len())
	}
}

func TestTrimDropsOldestFirst(t *testing.T) {
	tr := newTrimmer(t, 120, 20)

	conv, _ := llm.NewMessageCollection()
	conv.AppendSystem("sys")
	for i := 0; i < 20; i++ {
		conv.AppendUser(strings.Repeat("old words here ", 5))
	}
	conv.AppendUser("the newest message")

	trimmed, err := tr.Trim(conv)
	if err != nil {
		t.Fatalf("Trim failed: %v", err)
	}
	if trimmed.Len() >= conv.Len() {
		t.Fatalf("expected trimming, got %d of %d", trimmed.Len(), conv.Len())
	}

	first, _ := trimmed.Get(0)
	if first.Role != llm.RoleSystem {
		t.Errorf("system prompt must survive, got role %q", first.Role)
	}
	last, _ := trimmed.Get(trimmed.Len() - 1)
	if last.Content != "the newest message" {
		t.Errorf("newest message must survive, got %q", last.Content)
	}
}

func TestTrimSystemAlwaysKept(t *testing.T) {
	tr := newTrimmer(t, 40, 20)

	conv, _ := llm.NewMessageCollection()
	conv.AppendSystem(strings.Repeat("long system prompt ", 10))
	conv.AppendUser(strings.Repeat("user text ", 50))

	trimmed, err := tr.Trim(conv)
	if err != nil {
		t.Fatalf("Trim failed: %v", err)
	}
	first, _ := trimmed.Get(0)
	if first.Role != llm.RoleSystem {
		t.Error("system prompt must be kept even over budget")
	}
}

func TestTrimSkipsOrphanedToolResults(t *testing.T) {
	tr := newTrimmer(t, 60, 10)

	conv, _ := llm.NewMessageCollection()
	conv.AppendUser(strings.Repeat("question ", 30))
	if err := conv.Append(llm.Message{
		Role:      llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "lookup", Arguments: json.RawMessage(`{"q":"very long query string padding padding padding"}`)}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := conv.AppendToolResult("call_1", "result text"); err != nil {
		t.Fatal(err)
	}
	conv.AppendAssistant("short answer")
	conv.AppendUser("thanks")

	trimmed, err := tr.Trim(conv)
	if err != nil {
		t.Fatalf("Trim failed: %v", err)
	}

	if trimmed.Len() > 0 {
		first, _ := trimmed.Get(0)
		if first.Role == llm.RoleTool {
			t.Error("trimmed transcript must not start on a tool result")
		}
	}
}

func TestNewUnknownModelFallsBack(t *testing.T) {
	tr, err := New("totally-made-up-model", 1000, 100)
	if err != nil {
		t.Fatalf("unknown models should fall back to cl100k_base: %v", err)
	}
	if tr.countTokens("hello world") == 0 {
		t.Error("fallback tokenizer should count tokens")
	}
}
