// Package anthropic implements the llm.Provider interface for the Anthropic
// Messages API. Importing the package registers the "anthropic" provider.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/user/parley/pkg/llm"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	messagesPath     = "/v1/messages"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 1024
)

func init() {
	llm.Register("anthropic", func(opts llm.Options) (llm.Provider, error) {
		return New(opts), nil
	})
}

// Client implements llm.Provider for the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a client. Zero-value options fall back to the public Anthropic
// endpoint and a 60 second timeout.
func New(opts llm.Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// messageRequest follows the Anthropic Messages API contract.
type messageRequest struct {
	Model       string         `json:"model"`
	Messages    []messageParam `json:"messages"`
	System      string         `json:"system,omitempty"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature *float64       `json:"temperature,omitempty"`
	TopP        *float64       `json:"top_p,omitempty"`
	Tools       []wireTool     `json:"tools,omitempty"`
}

type messageParam struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// contentBlock is a union over text, tool_use, and tool_result blocks.
type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type wireTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type messageResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      *wireUsage     `json:"usage"`
}

type wireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CompleteChat sends one Messages API request and maps the reply into the
// provider-neutral result.
func (c *Client) CompleteChat(ctx context.Context, req *llm.Request) (*llm.Result, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &llm.ConnectionError{Provider: "anthropic", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &llm.ConnectionError{Provider: "anthropic", Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &llm.ConnectionError{
			Provider: "anthropic",
			Status:   resp.StatusCode,
			Err:      errors.New(apiErrorMessage(respBody)),
		}
	}

	var msgResp messageResponse
	if err := json.Unmarshal(respBody, &msgResp); err != nil {
		return nil, &llm.ConnectionError{Provider: "anthropic", Err: fmt.Errorf("parsing response: %w", err)}
	}

	var content strings.Builder
	var toolCalls []llm.ToolCall
	for _, block := range msgResp.Content {
		switch block.Type {
		case "text":
			content.WriteString(block.Text)
		case "tool_use":
			args := block.Input
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}

	result := &llm.Result{
		Content:      content.String(),
		FinishReason: mapStopReason(msgResp.StopReason),
		ToolCalls:    toolCalls,
		ResponseID:   msgResp.ID,
		Model:        msgResp.Model,
	}
	if msgResp.Usage != nil {
		// Anthropic reports no total; the core recomputes it from the parts.
		result.Usage = &llm.Usage{
			PromptTokens: msgResp.Usage.InputTokens,
			OutputTokens: msgResp.Usage.OutputTokens,
		}
	}
	return result, nil
}

func (c *Client) buildRequest(req *llm.Request) messageRequest {
	out := messageRequest{
		Model:       req.Model,
		MaxTokens:   defaultMaxTokens,
		Temperature: req.Config.Temperature,
		TopP:        req.Config.TopP,
	}
	if req.Config.MaxTokens != nil {
		out.MaxTokens = *req.Config.MaxTokens
	}

	var system []string
	for _, msg := range req.Messages {
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, msg.Content)
		case llm.RoleTool:
			out.Messages = append(out.Messages, messageParam{
				Role: "user",
				Content: []contentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Content,
				}},
			})
		case llm.RoleAssistant:
			blocks := []contentBlock{}
			if msg.Content != "" {
				blocks = append(blocks, contentBlock{Type: "text", Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, contentBlock{
					Type:  "tool_use",
					ID:    call.ID,
					Name:  call.Name,
					Input: call.Arguments,
				})
			}
			if len(blocks) == 0 {
				blocks = append(blocks, contentBlock{Type: "text", Text: ""})
			}
			out.Messages = append(out.Messages, messageParam{Role: "assistant", Content: blocks})
		default:
			out.Messages = append(out.Messages, messageParam{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: msg.Content}},
			})
		}
	}

	// The Messages API has no response_format; structured output is steered
	// through the system prompt and validated by the core on the way back.
	if req.Format != nil {
		instr := "Respond with a single valid JSON value and nothing else."
		if req.Format.Type == llm.FormatJSONSchema && req.Format.Schema != nil {
			instr = "Respond with a single valid JSON value matching this JSON Schema, and nothing else:\n" + string(req.Format.Schema)
		}
		system = append(system, instr)
	}
	out.System = strings.Join(system, "\n\n")

	for _, tool := range req.Tools {
		out.Tools = append(out.Tools, wireTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Parameters,
		})
	}

	return out
}

func mapStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "tool_use":
		return "tool_calls"
	case "max_tokens":
		return "length"
	default:
		return reason
	}
}

func apiErrorMessage(body []byte) string {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return string(body)
}
