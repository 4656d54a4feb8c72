package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI uses the Chat Completions endpoint through go-openai.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, model string) *OpenAI {
	return newOpenAIWithConfig(openai.DefaultConfig(apiKey), model)
}

func newOpenAIWithConfig(cfg openai.ClientConfig, model string) *OpenAI {
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.modelOr(o.model),
		Messages:    msgs,
		MaxTokens:   req.tokenLimit(),
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, o.apiError(err)
	}

	out := &Response{
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
		out.StopReason = string(resp.Choices[0].FinishReason)
	}
	return out, nil
}

func (o *OpenAI) apiError(err error) error {
	if apiErr := (*openai.APIError)(nil); errors.As(err, &apiErr) {
		return &APIError{Provider: o.Name(), StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	if reqErr := (*openai.RequestError)(nil); errors.As(err, &reqErr) {
		return &APIError{Provider: o.Name(), StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return err
}
