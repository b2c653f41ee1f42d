// Package runner executes queued turns: it drives the model, runs requested
// tools, and persists the growing transcript.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/user/parley/internal/budget"
	"github.com/user/parley/internal/gateway"
	"github.com/user/parley/internal/toolkit"
	"github.com/user/parley/internal/types"
	"github.com/user/parley/pkg/llm"
)

// Runner processes one turn at a time against a session transcript.
type Runner struct {
	client      *llm.Client
	trimmer     *budget.Trimmer
	sessions    types.SessionStore
	transcripts types.TranscriptStore
	registry    *toolkit.Registry
	maxRounds   int
}

// New creates a Runner. trimmer may be nil to disable context trimming.
func New(
	client *llm.Client,
	trimmer *budget.Trimmer,
	sessions types.SessionStore,
	transcripts types.TranscriptStore,
	registry *toolkit.Registry,
	maxRounds int,
) *Runner {
	return &Runner{
		client:      client,
		trimmer:     trimmer,
		sessions:    sessions,
		transcripts: transcripts,
		registry:    registry,
		maxRounds:   maxRounds,
	}
}

// ProcessTurn runs the tool loop for a single turn. This is the function
// passed to Queue.SetProcessor.
func (r *Runner) ProcessTurn(turn *gateway.Turn) error {
	ctx := turn.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	turn.Status = gateway.TurnStatusRunning

	conv, err := r.transcripts.Messages(ctx, turn.SessionID)
	if err != nil {
		turn.Status = gateway.TurnStatusFailed
		return fmt.Errorf("load transcript: %w", err)
	}
	if conv.Len() == 0 {
		conv.AppendSystem(r.systemPrompt())
	}
	conv.AppendUser(turn.Inbound.Text)

	defs, err := r.registry.Definitions()
	if err != nil {
		turn.Status = gateway.TurnStatusFailed
		return fmt.Errorf("tool definitions: %w", err)
	}

	for round := 0; round < r.maxRounds; round++ {
		window := conv
		if r.trimmer != nil {
			window, err = r.trimmer.Trim(conv)
			if err != nil {
				turn.Status = gateway.TurnStatusFailed
				return fmt.Errorf("trim transcript: %w", err)
			}
		}

		resp, err := r.client.WithTools(defs...).Complete(ctx, window)
		if err != nil {
			turn.Status = gateway.TurnStatusFailed
			return fmt.Errorf("completion: %w", err)
		}

		if resp.HasToolCalls() {
			slog.Debug("executing tools", "turn_id", string(turn.ID), "round", round, "calls", len(resp.ToolCalls))
			if err := toolkit.ExecuteBatch(ctx, r.registry, conv, resp); err != nil {
				turn.Status = gateway.TurnStatusFailed
				return fmt.Errorf("tool round %d: %w", round, err)
			}
			continue
		}

		conv.AppendAssistant(resp.Content)
		if err := r.transcripts.SaveMessages(ctx, turn.SessionID, conv); err != nil {
			turn.Status = gateway.TurnStatusFailed
			return fmt.Errorf("save transcript: %w", err)
		}
		turn.Status = gateway.TurnStatusComplete
		if turn.OnComplete != nil {
			turn.OnComplete(resp.Content)
		}
		return nil
	}

	// Persist the partial transcript so the tool exchange is not lost.
	if err := r.transcripts.SaveMessages(ctx, turn.SessionID, conv); err != nil {
		slog.Warn("save partial transcript", "turn_id", string(turn.ID), "error", err)
	}
	turn.Status = gateway.TurnStatusFailed
	return fmt.Errorf("max tool rounds (%d) exceeded", r.maxRounds)
}

func (r *Runner) systemPrompt() string {
	prompt := fmt.Sprintf(
		"You are a helpful assistant. Current time: %s.",
		time.Now().Format(time.RFC3339),
	)
	if names := r.registry.Names(); len(names) > 0 {
		prompt += fmt.Sprintf(" You have access to the following tools: %s.", strings.Join(names, ", "))
	}
	return prompt
}
