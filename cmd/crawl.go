package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minsu-lab/mstrack/internal/musinsa"
	"github.com/minsu-lab/mstrack/internal/stealth"
	"github.com/minsu-lab/mstrack/internal/store"
	"github.com/minsu-lab/mstrack/internal/tracker"
	"github.com/minsu-lab/mstrack/internal/ui"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl category listings for products",
	Long:  "Crawl Musinsa category listings. Without --save the discovered products are printed; with --save new ones are registered for tracking with their first price point.",
	RunE:  runCrawl,
}

func init() {
	crawlCmd.Flags().StringSlice("category", nil, "Category codes or names (default: all known)")
	crawlCmd.Flags().Int("count", 0, "Products per category (default from config)")
	crawlCmd.Flags().Bool("save", false, "Save discovered products for tracking")
	crawlCmd.Flags().String("format", "json", "Output format: json, table")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	categories, _ := cmd.Flags().GetStringSlice("category")
	count, _ := cmd.Flags().GetInt("count")
	save, _ := cmd.Flags().GetBool("save")
	format, _ := cmd.Flags().GetString("format")

	if count <= 0 {
		count = cfg.ListingTarget
	}

	scraper := newScraper()
	registry := scraper.Registry()
	ctx := context.Background()

	codes, err := resolveCategories(ctx, registry, categories)
	if err != nil {
		return err
	}

	// The store is only touched when saving.
	var trackerStore tracker.Store
	if save {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer store.Close(db)
		trackerStore = store.TrackerStore{Store: store.New(db)}
	}

	delay := stealth.NewHumanDelay(stealth.DelayProfile(cfg.DelayProfile))
	reconciler := tracker.NewReconciler(trackerStore, scraper, registry, delay, nil)

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Crawling %d categories (%d products each)...", len(codes), count))
	ctx = musinsa.WithProgress(ctx, spin.Update)
	result, err := reconciler.CrawlCategories(ctx, codes, count, save)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	switch format {
	case "table":
		printBatchTable(result)
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result)
	}

	return nil
}

// resolveCategories maps a mix of codes and display names onto listing
// codes, or returns every known code when the list is empty.
func resolveCategories(ctx context.Context, registry *musinsa.Registry, entries []string) ([]string, error) {
	if len(entries) == 0 {
		table := registry.Categories(ctx)
		codes := make([]string, 0, len(table))
		for _, name := range registry.Names(ctx) {
			codes = append(codes, table[name])
		}
		return codes, nil
	}

	codes := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if registry.ValidCode(ctx, entry) {
			codes = append(codes, entry)
			continue
		}
		code, ok := registry.CodeFor(ctx, entry)
		if !ok {
			return nil, fmt.Errorf("unknown category %q (see 'mstrack categories')", entry)
		}
		codes = append(codes, code)
	}
	return codes, nil
}
