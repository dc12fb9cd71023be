package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/minsu-lab/mstrack/mcp"
)

var mcpHTTPCmd = &cobra.Command{
	Use:   "mcp-http",
	Short: "Start MCP HTTP server",
	Long:  "Start the MCP server over HTTP for remote access (e.g. from Fly.io).",
	RunE:  runMCPHTTP,
}

func init() {
	mcpHTTPCmd.Flags().String("port", "", "HTTP port (default from $PORT or 8080)")
	rootCmd.AddCommand(mcpHTTPCmd)
}

func runMCPHTTP(cmd *cobra.Command, args []string) error {
	deps, closeDeps, err := buildMCPDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	port := cfg.HTTPPort
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}

	addr := fmt.Sprintf(":%s", port)
	return mcpserver.ServeHTTP(addr, cfg.APIKey, deps)
}
