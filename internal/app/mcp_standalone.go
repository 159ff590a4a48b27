package app

import (
	mcpserver "indicadores/internal/mcp"
)

// ServeMCP runs the app as an MCP server on stdin/stdout until the client
// disconnects or the process is interrupted.
func (a *App) ServeMCP() error {
	srv := mcpserver.New(mcpserver.Deps{
		Pipeline: a.Pipeline,
		Schemas:  a.Schemas,
		Dataset:  a.Dataset,
		Log:      a.Log.With().Str("component", "mcp").Logger(),
	})
	return srv.ServeStdio()
}
