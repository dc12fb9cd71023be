package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/minsu-lab/mstrack/internal/musinsa"
)

// Candidate product-container selectors, probed in order. The site
// reworks its listing markup now and then; this command shows which
// selector currently matches.
var analyzeSelectors = []string{
	".list-box",
	".goods-item",
	".product-item",
	".item",
	"[data-goods-no]",
	".li_box",
	".box",
	".list-item",
	"li",
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [url]",
	Short: "Analyze the DOM structure of a category page",
	Long:  "Render a Musinsa category page in the headless browser, save the final HTML and probe candidate product-container selectors.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("out", "musinsa_category_content.html", "File to save the rendered HTML to")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	pageURL := args[0]
	out, _ := cmd.Flags().GetString("out")

	fmt.Printf("Fetching page: %s\n", pageURL)

	browser := musinsa.NewHeadlessBrowserStrategy(cfg.UserAgent, musinsa.ListingOptions{})
	html, err := browser.RenderedHTML(context.Background(), pageURL)
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		return fmt.Errorf("save HTML: %w", err)
	}
	fmt.Printf("Saved rendered HTML to %s (%d bytes)\n", out, len(html))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse HTML: %w", err)
	}

	fmt.Println("\n=== Product container probe ===")
	for _, selector := range analyzeSelectors {
		matches := doc.Find(selector)
		fmt.Printf("%q: %d matches\n", selector, matches.Length())

		// A selector matching a whole page of products is the likely
		// container; report its first element and stop.
		if matches.Length() > 20 {
			fmt.Printf("  >> likely product container\n")
			reportFirstMatch(matches.First())
			break
		}
	}

	return nil
}

func reportFirstMatch(first *goquery.Selection) {
	if href, ok := first.Find("a").First().Attr("href"); ok {
		fmt.Printf("  - product link: %s\n", href)
	}
	img := first.Find("img").First()
	if src, ok := img.Attr("src"); ok {
		fmt.Printf("  - image src: %s\n", src)
	}
	if alt, ok := img.Attr("alt"); ok {
		fmt.Printf("  - image alt: %s\n", alt)
	}
	if inner, err := first.Html(); err == nil {
		fmt.Printf("  - inner HTML preview:\n    %s...\n", truncate(strings.TrimSpace(inner), 200))
	}
}
