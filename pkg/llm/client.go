package llm

import (
	"context"
	"time"
)

// Client is a session against one model: it pairs a Provider with a model
// name and the accumulated request configuration. Clients are cheap; create
// one per conversation or share one across conversations. The client itself
// holds no conversation state.
type Client struct {
	provider     Provider
	providerName string
	model        string
	config       RequestConfig
}

type clientOptions struct {
	backend  Options
	provider Provider
}

// Option configures client construction.
type Option func(*clientOptions)

// WithAPIKey sets the backend API key.
func WithAPIKey(key string) Option {
	return func(o *clientOptions) { o.backend.APIKey = key }
}

// WithBaseURL overrides the backend base URL.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.backend.BaseURL = url }
}

// WithTimeout sets the backend HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.backend.Timeout = d }
}

// WithProvider bypasses the registry and uses the given Provider directly.
// The model-ref prefix is still required but only names the provider.
func WithProvider(p Provider) Option {
	return func(o *clientOptions) { o.provider = p }
}

// New creates a client from a "provider:model" reference, resolving the
// provider through the registry unless one is injected with WithProvider.
func New(modelRef string, opts ...Option) (*Client, error) {
	name, model, err := ParseModelRef(modelRef)
	if err != nil {
		return nil, err
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	provider := o.provider
	if provider == nil {
		provider, err = newProvider(name, o.backend)
		if err != nil {
			return nil, err
		}
	}

	return &Client{provider: provider, providerName: name, model: model}, nil
}

// Model returns the model name without the provider prefix.
func (c *Client) Model() string { return c.model }

// SetTemperature sets the sampling temperature.
func (c *Client) SetTemperature(t float64) *Client {
	c.config.Temperature = &t
	return c
}

// SetMaxTokens sets the completion token limit.
func (c *Client) SetMaxTokens(n int) *Client {
	c.config.MaxTokens = &n
	return c
}

// SetTopP sets the nucleus sampling threshold.
func (c *Client) SetTopP(p float64) *Client {
	c.config.TopP = &p
	return c
}

// SetFrequencyPenalty sets the frequency penalty.
func (c *Client) SetFrequencyPenalty(p float64) *Client {
	c.config.FrequencyPenalty = &p
	return c
}

// SetPresencePenalty sets the presence penalty.
func (c *Client) SetPresencePenalty(p float64) *Client {
	c.config.PresencePenalty = &p
	return c
}

// Complete runs a plain completion over the conversation.
func (c *Client) Complete(ctx context.Context, messages *MessageCollection) (*Response, error) {
	if err := c.config.Validate(); err != nil {
		return nil, err
	}

	res, err := c.provider.CompleteChat(ctx, &Request{
		Model:    c.model,
		Messages: messages.All(),
		Config:   c.config.clone(),
	})
	if err != nil {
		return nil, err
	}

	return &Response{
		Content:      res.Content,
		Usage:        usageFrom(res),
		Model:        modelFrom(res, c.model),
		FinishReason: finishFrom(res, "stop"),
	}, nil
}

// Structured creates a structured-output builder seeded with the client's
// current configuration.
func (c *Client) Structured() *StructuredBuilder {
	return &StructuredBuilder{
		provider: c.provider,
		model:    c.model,
		config:   c.config.clone(),
	}
}

// WithTools creates a tool-calling builder seeded with the client's current
// configuration and the given tools.
func (c *Client) WithTools(tools ...ToolDefinition) *ToolBuilder {
	return &ToolBuilder{
		provider: c.provider,
		model:    c.model,
		config:   c.config.clone(),
		tools:    append([]ToolDefinition(nil), tools...),
	}
}

func usageFrom(res *Result) Usage {
	if res.Usage == nil {
		return Usage{}
	}
	return NewUsage(res.Usage.PromptTokens, res.Usage.OutputTokens, res.Usage.TotalTokens)
}

func modelFrom(res *Result, fallback string) string {
	if res.Model != "" {
		return res.Model
	}
	return fallback
}

func finishFrom(res *Result, fallback string) string {
	if res.FinishReason != "" {
		return res.FinishReason
	}
	return fallback
}
