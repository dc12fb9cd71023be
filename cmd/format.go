package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/minsu-lab/mstrack/internal/models"
	"github.com/minsu-lab/mstrack/internal/tracker"
)

// printBatchTable prints a discovery crawl summary, one category per
// line, then the product cards when the crawl ran without saving.
func printBatchTable(r *tracker.BatchResult) {
	codes := make([]string, 0, len(r.Categories))
	for code := range r.Categories {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	if r.Raw == nil {
		fmt.Fprintf(os.Stdout, "Crawled %d products: %d saved, %d skipped, %d errors\n",
			r.TotalCrawled, r.TotalSaved, r.TotalSkipped, r.TotalErrors)
	} else {
		fmt.Fprintf(os.Stdout, "Crawled %d products\n", r.TotalCrawled)
	}

	for _, code := range codes {
		count := r.Categories[code]
		if count.Error != "" {
			fmt.Fprintf(os.Stdout, "  %s: crawl failed: %s\n", code, count.Error)
			continue
		}
		if r.Raw == nil {
			fmt.Fprintf(os.Stdout, "  %s: %d crawled, %d saved, %d skipped, %d errors\n",
				code, count.Crawled, count.Saved, count.Skipped, count.Errors)
		} else {
			fmt.Fprintf(os.Stdout, "  %s: %d products\n", code, count.Crawled)
		}
	}

	for _, code := range codes {
		products := r.Raw[code]
		if len(products) == 0 {
			continue
		}
		fmt.Fprintf(os.Stdout, "\n== %s ==\n", code)
		printSnapshotsTable(products)
	}
}

// printSnapshotsTable prints crawled products in a human-friendly card layout.
func printSnapshotsTable(products []models.ProductSnapshot) {
	for i, p := range products {
		if i > 0 {
			fmt.Fprintln(os.Stdout)
		}
		fmt.Fprintf(os.Stdout, " %d. %s\n", i+1, p.Name)

		priceLine := "    Price: " + formatWon(p.SalePrice)
		if p.NormalPrice > p.SalePrice && p.DiscountRate > 0 {
			priceLine += fmt.Sprintf("  (was %s, -%.0f%%)", formatWon(p.NormalPrice), p.DiscountRate)
		}
		if brand := displayBrand(p.Brand, p.BrandEnglish); brand != "" {
			priceLine += "  |  Brand: " + brand
		}
		fmt.Fprintln(os.Stdout, priceLine)

		if p.IsSoldOut {
			fmt.Fprintln(os.Stdout, "    [Sold out]")
		}
		if p.ReviewCount > 0 {
			fmt.Fprintf(os.Stdout, "    Reviews: %.1f (%d)\n", p.ReviewScore, p.ReviewCount)
		}
		if display := p.CategoryPath.Display(); display != "" {
			fmt.Fprintf(os.Stdout, "    Category: %s\n", display)
		} else if p.Category != "" {
			fmt.Fprintf(os.Stdout, "    Category: %s\n", p.Category)
		}
		fmt.Fprintf(os.Stdout, "    %s\n", p.ProductURL)
	}
}

// printProductCard prints one tracked product's details.
func printProductCard(p *models.Product) {
	fmt.Fprintf(os.Stdout, "    Name: %s\n", p.Name)
	if brand := displayBrand(p.Brand, p.BrandEnglish); brand != "" {
		fmt.Fprintf(os.Stdout, "    Brand: %s\n", brand)
	}
	if p.Category != "" {
		fmt.Fprintf(os.Stdout, "    Category: %s\n", p.Category)
	}
	if p.ReviewCount > 0 {
		fmt.Fprintf(os.Stdout, "    Reviews: %.1f (%d)\n", p.ReviewScore, p.ReviewCount)
	}
	fmt.Fprintf(os.Stdout, "    %s\n", p.ProductURL)
}

// printRefreshTable prints a refresh pass, one product per line.
func printRefreshTable(r *tracker.RefreshResult) {
	fmt.Fprintf(os.Stdout, "Refreshed %d products: %d ok, %d failed\n", r.Total, r.Success, r.Errors)
	for _, item := range r.Results {
		if item.Status == "success" {
			fmt.Fprintf(os.Stdout, " %5d  %-44s %12s\n",
				item.ProductID, truncate(item.Name, 44), formatWon(item.Price))
			continue
		}
		fmt.Fprintf(os.Stdout, " %5d  %-44s %12s  %s\n",
			item.ProductID, truncate(item.Name, 44), item.Status, truncate(item.Error, 48))
	}
}

// displayBrand combines the Korean and English brand names, e.g.
// "무신사 스탠다드 (MUSINSASTANDARD)".
func displayBrand(brand, english string) string {
	if brand == "" {
		return english
	}
	if english != "" && !strings.EqualFold(english, brand) {
		return brand + " (" + english + ")"
	}
	return brand
}

// formatWon formats an int price as "1,234,567원".
func formatWon(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s + "원"
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",") + "원"
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
