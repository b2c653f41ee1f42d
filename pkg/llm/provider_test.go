package llm

import (
	"context"
	"errors"
	"testing"
)

// MockProvider is a test double that satisfies the Provider interface.
type MockProvider struct {
	CompleteChatFunc func(ctx context.Context, req *Request) (*Result, error)
	Requests         []*Request
}

func (m *MockProvider) CompleteChat(ctx context.Context, req *Request) (*Result, error) {
	m.Requests = append(m.Requests, req)
	if m.CompleteChatFunc != nil {
		return m.CompleteChatFunc(ctx, req)
	}
	return &Result{Content: "mock response"}, nil
}

func TestParseModelRef(t *testing.T) {
	tests := []struct {
		ref          string
		provider     string
		model        string
		wantErr      bool
	}{
		{"openai:gpt-4o-mini", "openai", "gpt-4o-mini", false},
		{"anthropic:claude-sonnet-4-5", "anthropic", "claude-sonnet-4-5", false},
		{"ollama:llama3:8b", "ollama", "llama3:8b", false},
		{"gpt-4o-mini", "", "", true},
		{":gpt-4o", "", "", true},
		{"openai:", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			provider, model, err := ParseModelRef(tt.ref)
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if provider != tt.provider || model != tt.model {
				t.Errorf("expected %s/%s, got %s/%s", tt.provider, tt.model, provider, model)
			}
		})
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("nosuchvendor:model-1")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for unknown provider, got %v", err)
	}
}

func TestNewWithInjectedProvider(t *testing.T) {
	mock := &MockProvider{}
	client, err := New("mock:test-model", WithProvider(mock))
	if err != nil {
		t.Fatal(err)
	}
	if client.Model() != "test-model" {
		t.Errorf("expected model test-model, got %q", client.Model())
	}

	msgs, _ := NewMessageCollection()
	msgs.AppendUser("hello")
	resp, err := client.Complete(context.Background(), msgs)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "mock response" {
		t.Errorf("expected mock response, got %q", resp.Content)
	}
}

func TestRegisteredFactoryReceivesOptions(t *testing.T) {
	var got Options
	Register("optioncheck", func(opts Options) (Provider, error) {
		got = opts
		return &MockProvider{}, nil
	})

	_, err := New("optioncheck:m",
		WithAPIKey("sk-test"),
		WithBaseURL("http://localhost:8080"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if got.APIKey != "sk-test" {
		t.Errorf("expected API key to pass through, got %q", got.APIKey)
	}
	if got.BaseURL != "http://localhost:8080" {
		t.Errorf("expected base URL to pass through, got %q", got.BaseURL)
	}
}
