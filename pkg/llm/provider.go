package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Structured output formats.
const (
	FormatJSON       = "json"
	FormatJSONSchema = "json_schema"
)

// ResponseFormat constrains a completion to structured output. Schema is set
// only for FormatJSONSchema.
type ResponseFormat struct {
	Type   string
	Schema json.RawMessage
}

// Request is the provider-facing form of one completion call.
type Request struct {
	Model    string
	Messages []Message
	Config   RequestConfig
	Tools    []ToolDefinition
	Format   *ResponseFormat
}

// Result is the provider-facing form of one completion outcome. Usage is nil
// when the backend reported no token accounting; Structured is set only when
// the backend itself produced a parsed structured value.
type Result struct {
	Content      string
	FinishReason string
	Usage        *Usage
	ToolCalls    []ToolCall
	Structured   json.RawMessage
	ResponseID   string
	Model        string
}

// Provider performs the actual inference call for one vendor. CompleteChat
// is the only operation in this package that blocks on I/O; cancellation and
// deadlines pass through the context opaquely. Implementations must not
// retry internally.
type Provider interface {
	CompleteChat(ctx context.Context, req *Request) (*Result, error)
}

// Options carries opaque pass-through settings for a provider backend.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Factory builds a Provider from backend options.
type Factory func(opts Options) (Provider, error)

var (
	providersMu sync.RWMutex
	providers   = make(map[string]Factory)
)

// Register makes a provider factory available under the given vendor name.
// Adapter packages call Register from init, so importing an adapter is
// enough to enable its vendor prefix.
func Register(name string, factory Factory) {
	providersMu.Lock()
	defer providersMu.Unlock()
	if factory == nil {
		panic("llm: Register with nil factory")
	}
	if _, dup := providers[name]; dup {
		panic("llm: Register called twice for provider " + name)
	}
	providers[name] = factory
}

// ParseModelRef splits a "provider:model" reference.
func ParseModelRef(ref string) (provider, model string, err error) {
	provider, model, ok := strings.Cut(ref, ":")
	if !ok || provider == "" || model == "" {
		return "", "", &ValidationError{Field: "model", Reason: fmt.Sprintf("%q is not a provider:model reference", ref)}
	}
	return provider, model, nil
}

func newProvider(name string, opts Options) (Provider, error) {
	providersMu.RLock()
	factory, ok := providers[name]
	providersMu.RUnlock()
	if !ok {
		return nil, &ValidationError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q (is the adapter package imported?)", name)}
	}
	return factory(opts)
}
