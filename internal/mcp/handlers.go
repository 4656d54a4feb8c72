package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/umlgen/internal/apperr"
	"github.com/ziadkadry99/umlgen/internal/conversation"
	"github.com/ziadkadry99/umlgen/internal/diagrams"
	"github.com/ziadkadry99/umlgen/internal/markup"
)

// handleListDiagramTypes returns the diagram menu, one entry per line.
func (s *Server) handleListDiagramTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	for _, c := range conversation.Categories {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleGenerateUML asks the language model for a diagram and returns the
// normalized markup followed by its image URL.
func (s *Server) handleGenerateUML(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectContext, err := request.RequireString("project_context")
	if err != nil || strings.TrimSpace(projectContext) == "" {
		return mcp.NewToolResultError("missing required parameter: project_context"), nil
	}
	diagramType, err := request.RequireString("diagram_type")
	if err != nil || strings.TrimSpace(diagramType) == "" {
		return mcp.NewToolResultError("missing required parameter: diagram_type"), nil
	}
	format, err := diagrams.ParseFormat(request.GetString("format", string(diagrams.FormatPNG)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(s.deps.Credential) == "" {
		return mcp.NewToolResultError("No API key configured. Set UMLGEN_API_KEY or run `umlgen key set`."), nil
	}

	started := time.Now()
	raw, err := s.deps.Gateway.Generate(ctx, s.deps.Credential, projectContext, diagramType)
	var result string
	if err == nil {
		result, err = markup.Normalize(raw)
	}
	s.record(ctx, projectContext, diagramType, result, err, time.Since(started))
	if err != nil {
		s.logger.Warn("generate_uml failed", "kind", apperr.KindOf(err), "error", err)
		return mcp.NewToolResultError("Diagram generation failed: " + apperr.UserMessage(err)), nil
	}

	var b strings.Builder
	b.WriteString("```plantuml\n")
	b.WriteString(result)
	b.WriteString("\n```\n")
	if s.deps.Renderer != nil {
		if url, err := s.deps.Renderer.URL(result, format); err == nil {
			fmt.Fprintf(&b, "\n%s: %s\n", strings.ToUpper(string(format)), url)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleRenderUML returns the image URL for caller-supplied markup.
func (s *Server) handleRenderUML(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := request.RequireString("markup")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: markup"), nil
	}
	format, err := diagrams.ParseFormat(request.GetString("format", string(diagrams.FormatPNG)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.deps.Renderer == nil {
		return mcp.NewToolResultError("rendering is not configured"), nil
	}

	url, err := s.deps.Renderer.URL(markup.Wrap(src), format)
	if err != nil {
		return mcp.NewToolResultError(apperr.UserMessage(err)), nil
	}
	return mcp.NewToolResultText(url), nil
}

func (s *Server) record(ctx context.Context, projectContext, instruction, result string, err error, elapsed time.Duration) {
	if s.deps.Observer == nil {
		return
	}
	s.deps.Observer.TurnCompleted(ctx, conversation.TurnResult{
		SessionID:      "mcp",
		ProjectContext: projectContext,
		Instruction:    instruction,
		Markup:         result,
		Err:            apperr.As(err),
		Duration:       elapsed,
	})
}
