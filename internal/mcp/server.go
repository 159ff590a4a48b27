package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"indicadores/internal/dataset"
	"indicadores/internal/schemas"
	"indicadores/internal/service"
)

// Server is the MCP server for the indicator pipeline.
// It exposes tools, resources and prompts so AI agents can run the
// pipeline and inspect its reports and clean datasets.
type Server struct {
	mcp *server.MCPServer
	log zerolog.Logger

	pipeline *service.PipelineService
	schemas  *schemas.Registry
	dataset  *dataset.Store
}

// Deps holds everything the server reads from.
type Deps struct {
	Pipeline *service.PipelineService
	Schemas  *schemas.Registry
	Dataset  *dataset.Store
	Log      zerolog.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		log:      deps.Log,
		pipeline: deps.Pipeline,
		schemas:  deps.Schemas,
		dataset:  deps.Dataset,
	}

	s.mcp = server.NewMCPServer(
		"indicadores-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerPipelineTools()
	s.registerDatasetTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// MCPServer exposes the underlying server, mainly for in-process clients.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// ServeStdio starts the MCP server on stdin/stdout. Logs must not go to
// stdout while it runs.
func (s *Server) ServeStdio() error {
	s.log.Info().Msg("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
