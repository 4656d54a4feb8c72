// Package llm adapts hosted and local language models to one call: a system
// instruction plus a prompt in, generated text out.
package llm

import (
	"context"
	"fmt"
	"net/http"
)

// defaultMaxTokens applies when a Request leaves MaxTokens at zero. Large
// class and ER diagrams regularly exceed 2k tokens.
const defaultMaxTokens = 4096

// Provider is a language-model backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is a single-turn generation.
type Request struct {
	// Model overrides the provider's configured model when set.
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

func (r Request) modelOr(fallback string) string {
	if r.Model != "" {
		return r.Model
	}
	return fallback
}

func (r Request) tokenLimit() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return defaultMaxTokens
}

// Response is the generated text and what it cost.
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// APIError is returned when a provider answers with a non-success status.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Unauthorized reports whether the provider rejected the credential.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
