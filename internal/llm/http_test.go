package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

var diagramRequest = Request{
	System:      "You output PlantUML.",
	Prompt:      "Class Diagram",
	Temperature: 0.2,
}

func TestAnthropicComplete(t *testing.T) {
	var got anthropicBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "k" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("anthropic-version = %q", r.Header.Get("anthropic-version"))
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"content":[{"type":"text","text":"@startuml\nA -> B\n@enduml"}],"model":"claude","stop_reason":"end_turn","usage":{"input_tokens":12,"output_tokens":7}}`)
	}))
	defer srv.Close()

	p := NewAnthropic("k", "claude")
	p.baseURL = srv.URL

	resp, err := p.Complete(context.Background(), diagramRequest)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "@startuml\nA -> B\n@enduml" {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 7 || resp.StopReason != "end_turn" {
		t.Errorf("resp = %+v", resp)
	}
	if got.System != "You output PlantUML." {
		t.Errorf("system = %q", got.System)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "Class Diagram" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if got.MaxTokens != defaultMaxTokens {
		t.Errorf("max_tokens = %d", got.MaxTokens)
	}
}

func TestAnthropicUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	p := NewAnthropic("bad", "claude")
	p.baseURL = srv.URL

	_, err := p.Complete(context.Background(), diagramRequest)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if !apiErr.Unauthorized() {
		t.Errorf("expected unauthorized, status %d", apiErr.StatusCode)
	}
	if apiErr.Provider != "anthropic" || apiErr.Message != "authentication_error: invalid x-api-key" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestOllamaComplete(t *testing.T) {
	var got ollamaBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"@startuml\n@enduml"},"model":"llama3.1","done":true,"done_reason":"stop","prompt_eval_count":3,"eval_count":4}`)
	}))
	defer srv.Close()

	p := NewOllama(srv.URL+"/", "llama3.1")
	resp, err := p.Complete(context.Background(), diagramRequest)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "@startuml\n@enduml" || resp.StopReason != "stop" {
		t.Errorf("resp = %+v", resp)
	}
	if got.Stream {
		t.Error("expected a non-streaming request")
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "Class Diagram" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestOllamaServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllama(srv.URL, "missing").Complete(context.Background(), diagramRequest)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Unauthorized() || apiErr.Message != "model not found" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestOpenAIUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("bad")
	cfg.BaseURL = srv.URL + "/v1"
	p := newOpenAIWithConfig(cfg, "gpt-4o-mini")

	_, err := p.Complete(context.Background(), diagramRequest)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if !apiErr.Unauthorized() {
		t.Errorf("expected unauthorized, got %d", apiErr.StatusCode)
	}
}

func TestOpenAIComplete(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"@startuml\nclass A\n@enduml"},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":6}}`)
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("k")
	cfg.BaseURL = srv.URL + "/v1"
	resp, err := newOpenAIWithConfig(cfg, "gpt-4o-mini").Complete(context.Background(), diagramRequest)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "@startuml\nclass A\n@enduml" || resp.InputTokens != 5 || resp.OutputTokens != 6 {
		t.Errorf("resp = %+v", resp)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Model != "gpt-4o-mini" {
		t.Errorf("request = %+v", got)
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Provider: "google", StatusCode: 403, Message: "API key not valid"}
	if err.Error() != "google returned status 403: API key not valid" {
		t.Errorf("Error() = %q", err.Error())
	}
}
