package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/umlgen/internal/conversation"
	"github.com/ziadkadry99/umlgen/internal/diagrams"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Deps are the collaborators the tools call into.
type Deps struct {
	Gateway  conversation.Gateway
	Renderer *diagrams.Renderer
	// Credential is the language-model key used for every generate_uml call.
	Credential string
	// Observer, when set, is told about every generate_uml result.
	Observer conversation.Observer
	Logger   *slog.Logger
}

// Server wraps an MCP server that exposes diagram generation tools.
type Server struct {
	deps   Deps
	logger *slog.Logger
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{deps: deps, logger: logger.With("component", "mcp")}

	s.mcp = server.NewMCPServer(
		"umlgen",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listDiagramTypesTool, s.handleListDiagramTypes)
	s.mcp.AddTool(generateUMLTool, s.handleGenerateUML)
	s.mcp.AddTool(renderUMLTool, s.handleRenderUML)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
