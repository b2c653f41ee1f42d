// Package budget fits conversation transcripts into a model's context
// window before each completion.
package budget

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/parley/pkg/llm"
)

// Trimmer drops the oldest non-system messages from a transcript until the
// remainder fits the input budget.
type Trimmer struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	reserve   int
}

// New creates a Trimmer for the given model's tokenizer. maxTokens is the
// model's context window; reserve is held back for the model's response.
func New(model string, maxTokens, reserve int) (*Trimmer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base for unknown models
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Trimmer{
		tokenizer: enc,
		maxTokens: maxTokens,
		reserve:   reserve,
	}, nil
}

// countTokens returns the token count for a string.
func (t *Trimmer) countTokens(text string) int {
	return len(t.tokenizer.Encode(text, nil, nil))
}

func (t *Trimmer) messageTokens(msg llm.Message) int {
	n := t.countTokens(msg.Content)
	for _, call := range msg.ToolCalls {
		n += t.countTokens(call.Name)
		n += t.countTokens(string(call.Arguments))
	}
	return n
}

// Trim returns a collection holding the leading system messages plus the
// longest recent suffix of the remaining transcript that fits the budget.
// The suffix never starts on a tool result whose call was trimmed away.
func (t *Trimmer) Trim(conv *llm.MessageCollection) (*llm.MessageCollection, error) {
	inputBudget := t.maxTokens - t.reserve
	msgs := conv.All()

	// Leading system messages are always kept.
	split := 0
	for split < len(msgs) && msgs[split].Role == llm.RoleSystem {
		split++
	}
	system, rest := msgs[:split], msgs[split:]

	used := 0
	for _, msg := range system {
		used += t.messageTokens(msg)
	}

	// Walk backwards from the newest message to find the longest fitting
	// suffix.
	start := len(rest)
	for i := len(rest) - 1; i >= 0; i-- {
		n := t.messageTokens(rest[i])
		if used+n > inputBudget {
			break
		}
		used += n
		start = i
	}

	// A tool result without its originating assistant turn confuses
	// providers; skip forward past orphaned results.
	for start < len(rest) && rest[start].Role == llm.RoleTool {
		start++
	}

	trimmed, err := llm.NewMessageCollection(system...)
	if err != nil {
		return nil, err
	}
	for _, msg := range rest[start:] {
		if err := trimmed.Append(msg); err != nil {
			return nil, err
		}
	}
	return trimmed, nil
}
