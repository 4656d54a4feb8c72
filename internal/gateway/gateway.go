// Package gateway turns a project context and a diagram instruction into raw
// model output using one of the configured LLM providers.
package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ziadkadry99/umlgen/internal/apperr"
	"github.com/ziadkadry99/umlgen/internal/llm"
)

// ProviderFactory builds a provider authenticated with credential.
type ProviderFactory func(credential string) (llm.Provider, error)

// Usage reports token consumption for one successful call.
type Usage struct {
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(g *Gateway) { g.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *Gateway) { g.temperature = t }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(g *Gateway) { g.maxTokens = n }
}

// WithRateLimit limits calls per credential to rpm requests per minute.
func WithRateLimit(rpm int) Option {
	return func(g *Gateway) { g.rpm = rpm }
}

// WithCacheSize sets how many authenticated providers are kept.
func WithCacheSize(n int) Option {
	return func(g *Gateway) { g.cacheSize = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// WithUsageHook registers fn to receive token usage after each call.
func WithUsageHook(fn func(context.Context, Usage)) Option {
	return func(g *Gateway) { g.onUsage = fn }
}

// Gateway implements conversation.Gateway on top of llm.Provider. It makes a
// single attempt per call.
type Gateway struct {
	factory     ProviderFactory
	model       string
	temperature float64
	maxTokens   int
	rpm         int
	cacheSize   int
	logger      *slog.Logger
	onUsage     func(context.Context, Usage)

	providers *lru.Cache[string, llm.Provider]
}

// New creates a Gateway that builds providers with factory.
func New(factory ProviderFactory, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		factory:     factory,
		temperature: 0.2,
		maxTokens:   8192,
		cacheSize:   16,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	cache, err := lru.New[string, llm.Provider](g.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating provider cache: %w", err)
	}
	g.providers = cache
	return g, nil
}

// Generate asks the model for PlantUML describing projectContext according
// to instruction and returns its raw answer.
func (g *Gateway) Generate(ctx context.Context, credential, projectContext, instruction string) (string, error) {
	switch {
	case strings.TrimSpace(credential) == "":
		return "", apperr.New(apperr.KindAuthFailure, "an API key is required")
	case strings.TrimSpace(projectContext) == "":
		return "", apperr.ErrMissingContext
	case strings.TrimSpace(instruction) == "":
		return "", apperr.ErrMissingInstruction
	}

	provider, err := g.provider(credential)
	if err != nil {
		return "", Classify(err)
	}

	prompt := BuildPrompt(projectContext, instruction)
	resp, err := provider.Complete(ctx, llm.Request{
		Model:       g.model,
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		classified := Classify(err)
		if classified.Kind == apperr.KindAuthFailure {
			g.providers.Remove(digest(credential))
		}
		return "", classified
	}

	g.reportUsage(ctx, provider.Name(), prompt, resp)
	return resp.Text, nil
}

// reportUsage logs and forwards token usage. Backends that report no usage
// get an estimate from the text lengths.
func (g *Gateway) reportUsage(ctx context.Context, providerName, prompt string, resp *llm.Response) {
	usage := Usage{
		Provider:     providerName,
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}
	if usage.InputTokens == 0 && usage.OutputTokens == 0 {
		usage.InputTokens = llm.EstimateTokens(systemPrompt + prompt)
		usage.OutputTokens = llm.EstimateTokens(resp.Text)
	}
	usage.CostUSD = llm.EstimateCost(usage.Model, usage.InputTokens, usage.OutputTokens)

	g.logger.Debug("generation call finished",
		"provider", usage.Provider,
		"model", usage.Model,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"stop_reason", resp.StopReason,
	)
	if g.onUsage != nil {
		g.onUsage(ctx, usage)
	}
}

func (g *Gateway) provider(credential string) (llm.Provider, error) {
	key := digest(credential)
	if p, ok := g.providers.Get(key); ok {
		return p, nil
	}
	p, err := g.factory(credential)
	if err != nil {
		return nil, err
	}
	p = llm.Throttle(p, g.rpm)
	g.providers.Add(key, p)
	return p, nil
}

// digest keeps raw credentials out of the cache keys.
func digest(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}
