package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/minsu-lab/mstrack/internal/musinsa"
	"github.com/minsu-lab/mstrack/internal/store"
	"github.com/minsu-lab/mstrack/internal/tracker"
)

// Deps carries the tracking components the tools call into.
type Deps struct {
	Scraper    *musinsa.Scraper
	Store      *store.Store
	Reconciler *tracker.Reconciler
	Registry   *musinsa.Registry
}

// Serve starts the MCP stdio server with all tools registered.
func Serve(deps Deps) error {
	return server.ServeStdio(newServer(deps))
}

// newServer builds the MCP server shared by the stdio and HTTP transports.
func newServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"mstrack",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	registerTools(s, deps)
	return s
}
