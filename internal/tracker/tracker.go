// Package tracker turns crawl snapshots into tracked products and price
// history: batch reconciliation after discovery crawls, periodic refresh
// of everything tracked, and history retention.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/minsu-lab/mstrack/internal/models"
	"github.com/minsu-lab/mstrack/internal/musinsa"
)

var (
	// ErrProductNotFound is returned when an operation targets an
	// untracked product ID.
	ErrProductNotFound = errors.New("product not found")
	// ErrAlreadyTracked is returned when a URL is registered twice.
	ErrAlreadyTracked = errors.New("product already tracked")
)

// InvalidCategoryError rejects a discovery crawl over unknown codes.
type InvalidCategoryError struct {
	Codes []string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("invalid category codes: %s", strings.Join(e.Codes, ", "))
}

// Store is the persistence surface the tracking engine needs. The
// gorm-backed implementation lives in internal/store; tests use an
// in-memory fake.
type Store interface {
	ExistingURLs(urls []string) (map[string]struct{}, error)
	FindByURL(url string) (*models.Product, error)
	ByID(id uint) (*models.Product, error)
	Active() ([]models.Product, error)
	CreateProduct(p *models.Product) error
	CreatePricePoint(pt *models.PricePoint) error
	SaveProduct(p *models.Product) error
	PrunePointsBefore(cutoff time.Time) (int64, error)
	// WithTx runs fn as one transaction. Nested calls become savepoints,
	// so a failing item rolls back alone while the batch commits.
	WithTx(fn func(tx Store) error) error
}

// Crawler is the live-extraction surface, implemented by musinsa.Scraper.
type Crawler interface {
	ProductDetail(ctx context.Context, url string) (*models.ProductSnapshot, error)
	CategoryListing(ctx context.Context, code string, target int) (*musinsa.ListingResult, error)
}

// Gate serializes the long batch crawls. The shared HTTP client already
// rate-limits individual requests; the gate keeps a scheduled refresh
// and an API-triggered discovery crawl from interleaving. A nil Gate
// disables serialization.
type Gate struct {
	mu sync.Mutex
}

func (g *Gate) acquire() func() {
	if g == nil {
		return func() {}
	}
	g.mu.Lock()
	return g.mu.Unlock
}

// CategoryCount summarizes one category inside a batch crawl. Error is
// set when the whole category listing crawl failed.
type CategoryCount struct {
	Crawled int    `json:"crawled"`
	Saved   int    `json:"saved"`
	Skipped int    `json:"skipped"`
	Errors  int    `json:"errors"`
	Error   string `json:"error,omitempty"`
}

// BatchResult summarizes a discovery crawl over several categories.
type BatchResult struct {
	TotalCrawled int                                 `json:"total_crawled"`
	TotalSaved   int                                 `json:"total_saved"`
	TotalSkipped int                                 `json:"total_skipped"`
	TotalErrors  int                                 `json:"total_errors"`
	Categories   map[string]CategoryCount            `json:"category_results"`
	Raw          map[string][]models.ProductSnapshot `json:"raw_data,omitempty"`
}

// ProductResult is one product's outcome inside a refresh pass.
type ProductResult struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"product_name"`
	Status    string `json:"status"`
	Price     int    `json:"price,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RefreshResult summarizes a refresh pass over all active products.
type RefreshResult struct {
	Total   int             `json:"total_products"`
	Success int             `json:"success_count"`
	Errors  int             `json:"error_count"`
	Results []ProductResult `json:"results"`
}

// ManualCrawlResult reports a single on-demand product crawl.
type ManualCrawlResult struct {
	ProductID   uint      `json:"product_id"`
	Name        string    `json:"product_name"`
	Price       int       `json:"price"`
	StockStatus string    `json:"stock_status"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// statusFor maps a crawl error to the refresh outcome label. Known
// extraction failures read "failed"; anything else is "error".
func statusFor(err error) string {
	if musinsa.IsExtractionFailure(err) {
		return "failed"
	}
	return "error"
}
