package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/minsu-lab/mstrack/mcp"

	"github.com/minsu-lab/mstrack/internal/stealth"
	"github.com/minsu-lab/mstrack/internal/store"
	"github.com/minsu-lab/mstrack/internal/tracker"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	deps, closeDeps, err := buildMCPDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting mstrack MCP server on stdio...")

	return mcpserver.Serve(deps)
}

// buildMCPDeps wires the tracking components the MCP tools call into.
func buildMCPDeps() (mcpserver.Deps, func(), error) {
	db, err := openDB()
	if err != nil {
		return mcpserver.Deps{}, nil, err
	}

	st := store.New(db)
	scraper := newScraper()
	registry := scraper.Registry()
	delay := stealth.NewHumanDelay(stealth.DelayProfile(cfg.DelayProfile))
	reconciler := tracker.NewReconciler(store.TrackerStore{Store: st}, scraper, registry, delay, nil)

	deps := mcpserver.Deps{
		Scraper:    scraper,
		Store:      st,
		Reconciler: reconciler,
		Registry:   registry,
	}
	return deps, func() { store.Close(db) }, nil
}
