package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minsu-lab/mstrack/internal/musinsa"
	"github.com/minsu-lab/mstrack/internal/stealth"
	"github.com/minsu-lab/mstrack/internal/store"
	"github.com/minsu-lab/mstrack/internal/tracker"
	"github.com/minsu-lab/mstrack/internal/ui"
)

var trackCmd = &cobra.Command{
	Use:   "track [url]",
	Short: "Register a product URL for price tracking",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrack,
}

func init() {
	trackCmd.Flags().String("format", "table", "Output format: json, table")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	productURL := args[0]
	format, _ := cmd.Flags().GetString("format")

	db, err := openDB()
	if err != nil {
		return err
	}
	defer store.Close(db)

	scraper := newScraper()
	delay := stealth.NewHumanDelay(stealth.DelayProfile(cfg.DelayProfile))
	reconciler := tracker.NewReconciler(store.TrackerStore{Store: store.New(db)}, scraper,
		scraper.Registry(), delay, nil)

	spin := ui.NewSpinner()
	spin.Start("Crawling product page...")
	ctx := musinsa.WithProgress(context.Background(), spin.Update)
	product, err := reconciler.Register(ctx, productURL)
	spin.Stop()
	if errors.Is(err, tracker.ErrAlreadyTracked) {
		return fmt.Errorf("already tracked: %s", productURL)
	}
	if err != nil {
		return fmt.Errorf("track failed: %w", err)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(product)
	default:
		fmt.Fprintf(os.Stdout, "Tracking product #%d\n", product.ID)
		printProductCard(product)
	}

	return nil
}
