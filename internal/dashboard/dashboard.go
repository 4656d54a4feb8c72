// Package dashboard serves the browser chat for building UML diagrams: an
// embedded page, a websocket conversation endpoint and a small REST API.
package dashboard

import (
	_ "embed"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/umlgen/internal/conversation"
	"github.com/ziadkadry99/umlgen/internal/credentials"
	"github.com/ziadkadry99/umlgen/internal/diagrams"
	"github.com/ziadkadry99/umlgen/internal/generations"
)

//go:embed index.html
var indexHTML []byte

// Config wires the dashboard to the conversation stack.
type Config struct {
	Gateway  conversation.Gateway
	Renderer *diagrams.Renderer
	// Credentials persists keys the user asks to remember. Nil keeps keys
	// for the lifetime of one connection only.
	Credentials credentials.Store
	// Generations backs /api/generations. Nil serves an empty list.
	Generations       *generations.Store
	Observer          conversation.Observer
	Provider          string
	Format            diagrams.Format
	GenerationTimeout time.Duration
	Logger            *slog.Logger
}

// Dashboard provides the chat interface and its supporting endpoints.
type Dashboard struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a new Dashboard.
func New(cfg Config) *Dashboard {
	if cfg.Format == "" {
		cfg.Format = diagrams.FormatPNG
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{cfg: cfg, logger: logger.With("component", "dashboard")}
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)
	r.Get("/ws/chat", d.handleWebSocket)
	r.Get("/api/categories", d.handleCategories)
	r.Post("/api/render", d.handleRender)
	r.Post("/api/download", d.handleDownload)
	r.Get("/api/generations", d.handleGenerations)
}
