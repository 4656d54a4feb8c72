package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listDiagramTypesTool defines the list_diagram_types MCP tool.
var listDiagramTypesTool = mcp.NewTool("list_diagram_types",
	mcp.WithDescription("List the UML diagram types the generator offers. Any free-form description is also accepted by generate_uml."),
)

// generateUMLTool defines the generate_uml MCP tool.
var generateUMLTool = mcp.NewTool("generate_uml",
	mcp.WithDescription("Generate PlantUML markup for a project and return it with a rendered image URL."),
	mcp.WithString("project_context",
		mcp.Required(),
		mcp.Description("Description of the system to diagram"),
	),
	mcp.WithString("diagram_type",
		mcp.Required(),
		mcp.Description("Diagram to produce, e.g. \"Class Diagram\", or a change to apply"),
	),
	mcp.WithString("format",
		mcp.Description("Image format for the returned URL (default png)"),
		mcp.Enum("png", "svg"),
	),
)

// renderUMLTool defines the render_uml MCP tool.
var renderUMLTool = mcp.NewTool("render_uml",
	mcp.WithDescription("Build the image URL for PlantUML markup. Missing @startuml/@enduml markers are added."),
	mcp.WithString("markup",
		mcp.Required(),
		mcp.Description("PlantUML source"),
	),
	mcp.WithString("format",
		mcp.Description("Image format (default png)"),
		mcp.Enum("png", "svg"),
	),
)
