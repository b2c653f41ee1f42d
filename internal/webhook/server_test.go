// internal/webhook/server_test.go
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/parley/internal/history"
	"github.com/user/parley/pkg/llm"
)

func newTestServer(t *testing.T, handler TaskHandler) (*Server, *history.TaskStore, *history.Store) {
	t.Helper()
	dir := t.TempDir()
	tasks := history.NewTaskStore(filepath.Join(dir, "tasks.json"))
	store := history.NewStore(dir)
	if handler == nil {
		handler = func(sessionKey, prompt string) (string, error) {
			return "ok", nil
		}
	}
	return NewServer(tasks, handler, store, store), tasks, store
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestAdHocWebhook(t *testing.T) {
	var gotKey, gotPrompt string
	srv, _, _ := newTestServer(t, func(sessionKey, prompt string) (string, error) {
		gotKey = sessionKey
		gotPrompt = prompt
		return "summary ready", nil
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook",
		strings.NewReader(`{"prompt":"summarize today","session_key":"webhook:reports"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotKey != "webhook:reports" {
		t.Errorf("expected session key webhook:reports, got %q", gotKey)
	}
	if gotPrompt != "summarize today" {
		t.Errorf("expected prompt to pass through, got %q", gotPrompt)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["response"] != "summary ready" {
		t.Errorf("expected response %q, got %q", "summary ready", body["response"])
	}
}

func TestAdHocWebhookBadRequests(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{not json`},
		{"missing prompt", `{"session_key":"webhook:x"}`},
		{"missing session key", `{"prompt":"do it"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestAdHocWebhookHandlerError(t *testing.T) {
	srv, _, _ := newTestServer(t, func(sessionKey, prompt string) (string, error) {
		return "", errors.New("boom")
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook",
		strings.NewReader(`{"prompt":"p","session_key":"webhook:x"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestNamedTaskWebhook(t *testing.T) {
	var gotKey, gotPrompt string
	srv, tasks, _ := newTestServer(t, func(sessionKey, prompt string) (string, error) {
		gotKey = sessionKey
		gotPrompt = prompt
		return "done", nil
	})

	if err := tasks.Add(&history.Task{
		Name:       "daily-report",
		Prompt:     "write the daily report",
		SessionKey: "telegram:1:2",
		Enabled:    true,
	}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/webhook/daily-report", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotKey != "telegram:1:2" {
		t.Errorf("expected task session key, got %q", gotKey)
	}
	if gotPrompt != "write the daily report" {
		t.Errorf("expected task prompt, got %q", gotPrompt)
	}
}

func TestNamedTaskWebhookPromptOverride(t *testing.T) {
	var gotPrompt string
	srv, tasks, _ := newTestServer(t, func(sessionKey, prompt string) (string, error) {
		gotPrompt = prompt
		return "done", nil
	})

	if err := tasks.Add(&history.Task{
		Name:       "daily-report",
		Prompt:     "default prompt",
		SessionKey: "webhook:reports",
		Enabled:    true,
	}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/webhook/daily-report",
		strings.NewReader(`{"prompt":"focus on errors only"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotPrompt != "focus on errors only" {
		t.Errorf("expected override prompt, got %q", gotPrompt)
	}
}

func TestNamedTaskWebhookNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook/missing", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestNamedTaskWebhookDisabled(t *testing.T) {
	srv, tasks, _ := newTestServer(t, nil)

	if err := tasks.Add(&history.Task{
		Name:       "paused",
		Prompt:     "p",
		SessionKey: "webhook:x",
		Enabled:    false,
	}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/webhook/paused", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestAPISessions(t *testing.T) {
	srv, _, store := newTestServer(t, nil)
	ctx := context.Background()

	sid, err := store.ResolveOrCreate(ctx, "telegram:1:2", "openai:gpt-4o-mini")
	if err != nil {
		t.Fatal(err)
	}
	conv, err := llm.NewMessageCollection(
		llm.UserMessage("hello"),
		llm.AssistantMessage("hi there"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveMessages(ctx, sid, conv); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sessions []sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].SessionKey != "telegram:1:2" {
		t.Errorf("expected session key telegram:1:2, got %q", sessions[0].SessionKey)
	}
	if sessions[0].Model != "openai:gpt-4o-mini" {
		t.Errorf("expected model openai:gpt-4o-mini, got %q", sessions[0].Model)
	}
	if sessions[0].MessageCount != 2 {
		t.Errorf("expected 2 messages, got %d", sessions[0].MessageCount)
	}
}

func TestAPISessionMessages(t *testing.T) {
	srv, _, store := newTestServer(t, nil)
	ctx := context.Background()

	sid, err := store.ResolveOrCreate(ctx, "telegram:1:2", "openai:gpt-4o-mini")
	if err != nil {
		t.Fatal(err)
	}
	conv, err := llm.NewMessageCollection(
		llm.SystemMessage("You are helpful."),
		llm.UserMessage("hello"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveMessages(ctx, sid, conv); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+string(sid)+"/messages", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var messages []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &messages); err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0]["role"] != "system" {
		t.Errorf("expected first role system, got %v", messages[0]["role"])
	}
	if messages[1]["content"] != "hello" {
		t.Errorf("expected content hello, got %v", messages[1]["content"])
	}
}

func TestAPISessionMessagesBadPath(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/abc/events", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
