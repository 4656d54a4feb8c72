package llm

import (
	"context"
	"net/http"
	"strings"
)

// DefaultOllamaHost is used when OLLAMA_HOST is unset.
const DefaultOllamaHost = "http://localhost:11434"

// Ollama talks to a local Ollama daemon. It needs no credential.
type Ollama struct {
	host   string
	model  string
	client *http.Client
}

func NewOllama(host, model string) *Ollama {
	if host == "" {
		host = DefaultOllamaHost
	}
	return &Ollama{host: strings.TrimRight(host, "/"), model: model, client: &http.Client{}}
}

func (o *Ollama) Name() string { return "ollama" }

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaBody struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaReply struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	DoneReason      string        `json:"done_reason"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

func (o *Ollama) Complete(ctx context.Context, req Request) (*Response, error) {
	var messages []ollamaMessage
	if req.System != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: req.Prompt})

	body := ollamaBody{
		Model:    req.modelOr(o.model),
		Messages: messages,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.tokenLimit(),
		},
	}

	var reply ollamaReply
	if err := postJSON(ctx, o.client, o.Name(), o.host+"/api/chat", nil, body, &reply, nil); err != nil {
		return nil, err
	}
	return &Response{
		Text:         reply.Message.Content,
		Model:        reply.Model,
		InputTokens:  reply.PromptEvalCount,
		OutputTokens: reply.EvalCount,
		StopReason:   reply.DoneReason,
	}, nil
}
