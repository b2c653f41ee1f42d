package toolkit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/parley/pkg/llm"
)

// ExecuteBatch replays the assistant turn into the conversation, executes
// every requested call in the order returned, and appends one tool result
// per call. A call naming an unregistered tool fails the batch; an error
// from a tool's own execution is fed back to the model as the result text.
func ExecuteBatch(ctx context.Context, reg *Registry, conv *llm.MessageCollection, resp *llm.ToolResponse) error {
	if !resp.HasToolCalls() {
		return nil
	}

	if err := conv.FromResponse(resp); err != nil {
		return fmt.Errorf("replay assistant turn: %w", err)
	}

	for _, call := range resp.ToolCalls {
		tool, ok := reg.Get(call.Name)
		if !ok {
			return &llm.ToolCallError{Tool: call.Name, Reason: "not registered"}
		}

		result, err := tool.Execute(ctx, call.Arguments)
		if err != nil {
			slog.Warn("tool failed", "tool", call.Name, "call_id", call.ID, "error", err)
			result = fmt.Sprintf("error: %v", err)
		}

		if err := conv.AppendToolResult(call.ID, result); err != nil {
			return fmt.Errorf("append result for %s: %w", call.Name, err)
		}
	}
	return nil
}
