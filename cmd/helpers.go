package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ziadkadry99/umlgen/internal/config"
	"github.com/ziadkadry99/umlgen/internal/conversation"
	"github.com/ziadkadry99/umlgen/internal/credentials"
	"github.com/ziadkadry99/umlgen/internal/db"
	"github.com/ziadkadry99/umlgen/internal/diagrams"
	"github.com/ziadkadry99/umlgen/internal/gateway"
	"github.com/ziadkadry99/umlgen/internal/generations"
	"github.com/ziadkadry99/umlgen/internal/llm"
)

// localCredential stands in for an API key when the provider needs none.
const localCredential = "local"

// app holds the services shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *db.DB
	keys     credentials.Store
	history  *generations.Store
	gateway  *gateway.Gateway
	renderer *diagrams.Renderer
	format   diagrams.Format
}

// newApp opens the database and builds the generation stack from the loaded
// configuration.
func newApp() (*app, error) {
	cfg := appConfig
	a := &app{cfg: cfg, logger: logger}

	format, err := diagrams.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	a.format = format

	a.db, err = db.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}
	a.history = generations.NewStore(a.db)

	switch {
	case keyFile != "":
		a.keys = credentials.NewFileStore(keyFile)
	case cfg.RememberCredential:
		a.keys = credentials.NewSQLStore(a.db)
	default:
		a.keys = &credentials.MemoryStore{}
	}

	a.gateway, err = newGateway(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.renderer, err = diagrams.NewRenderer(cfg.RenderURL, diagrams.WithRendererLogger(logger))
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func newGateway(cfg *config.Config, logger *slog.Logger) (*gateway.Gateway, error) {
	factory := func(credential string) (llm.Provider, error) {
		if credential == localCredential {
			credential = ""
		}
		return llm.NewProvider(string(cfg.Provider), cfg.Model, credential)
	}
	return gateway.New(factory,
		gateway.WithModel(cfg.Model),
		gateway.WithRateLimit(cfg.RateLimitRPM),
		gateway.WithLogger(logger),
		gateway.WithUsageHook(func(ctx context.Context, u gateway.Usage) {
			logger.Debug("token usage",
				"provider", u.Provider,
				"model", u.Model,
				"input_tokens", u.InputTokens,
				"output_tokens", u.OutputTokens,
				"cost_usd", fmt.Sprintf("%.5f", u.CostUSD),
			)
		}),
	)
}

// credential returns the key a new conversation starts with, which may be
// empty.
func (a *app) credential(ctx context.Context) string {
	key, err := credentials.Resolve(ctx, a.keys, string(a.cfg.Provider))
	if err != nil {
		a.logger.Warn("loading stored API key", "error", err)
	}
	if key == "" && a.cfg.Provider == config.ProviderOllama {
		return localCredential
	}
	return key
}

// recorder archives successful generation turns.
func (a *app) recorder() conversation.Observer {
	return generations.NewRecorder(a.history, string(a.cfg.Provider), a.cfg.Model, a.logger)
}

// newConversation starts a controller wired to the shared stack.
func (a *app) newConversation(ctx context.Context) *conversation.Controller {
	return conversation.New(a.gateway,
		conversation.WithCredential(a.credential(ctx)),
		conversation.WithLogger(a.logger),
		conversation.WithObserver(a.recorder()),
		conversation.WithGenerationTimeout(a.cfg.Timeout()),
	)
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
