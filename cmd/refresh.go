package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minsu-lab/mstrack/internal/musinsa"
	"github.com/minsu-lab/mstrack/internal/stealth"
	"github.com/minsu-lab/mstrack/internal/store"
	"github.com/minsu-lab/mstrack/internal/tracker"
	"github.com/minsu-lab/mstrack/internal/ui"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh prices of all tracked products",
	RunE:  runRefresh,
}

func init() {
	refreshCmd.Flags().String("format", "table", "Output format: json, table")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	db, err := openDB()
	if err != nil {
		return err
	}
	defer store.Close(db)

	scraper := newScraper()
	refresher := tracker.NewRefresher(store.TrackerStore{Store: store.New(db)}, scraper,
		stealth.NewFixedDelay(cfg.RefreshDelay), nil)

	spin := ui.NewSpinner()
	spin.Start("Refreshing tracked products...")
	ctx := musinsa.WithProgress(context.Background(), spin.Update)
	result, err := refresher.RefreshAll(ctx)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result)
	default:
		printRefreshTable(result)
	}

	return nil
}
