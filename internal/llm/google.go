package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// Gemini uses the official genai SDK against the Gemini API backend.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string { return "google" }

func (g *Gemini) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.modelOr(g.model)
	temperature := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(req.tokenLimit()),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, g.apiError(err)
	}

	out := &Response{Model: model}
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		out.StopReason = string(cand.FinishReason)
		if cand.Content != nil {
			var text strings.Builder
			for _, part := range cand.Content.Parts {
				text.WriteString(part.Text)
			}
			out.Text = text.String()
		}
	}
	if u := resp.UsageMetadata; u != nil {
		out.InputTokens = int(u.PromptTokenCount)
		out.OutputTokens = int(u.CandidatesTokenCount)
	}
	return out, nil
}

// apiError unwraps genai.APIError. The SDK returns it by value, but a
// pointer is accepted too.
func (g *Gemini) apiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Provider: g.Name(), StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	if p := (*genai.APIError)(nil); errors.As(err, &p) {
		return &APIError{Provider: g.Name(), StatusCode: p.Code, Message: p.Message}
	}
	return fmt.Errorf("gemini request: %w", err)
}
