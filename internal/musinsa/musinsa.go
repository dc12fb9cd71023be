package musinsa

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/minsu-lab/mstrack/internal/models"
	"golang.org/x/time/rate"
)

// ListingResult is a category crawl plus how it terminated.
type ListingResult struct {
	Category     string                   `json:"category"`
	CategoryCode string                   `json:"category_code"`
	Products     []models.ProductSnapshot `json:"products"`
	Outcome      ScrollOutcome            `json:"-"`
	Strategy     string                   `json:"strategy"`
}

// Scraper crawls Musinsa product and category pages through a chain of
// strategies: the static fetch first (the detail state is
// server-rendered), the headless browser as fallback and for listings.
type Scraper struct {
	fastStrategies []Strategy
	slowStrategies []Strategy
	registry       *Registry
	rateLimiter    *rate.Limiter
	fastTimeout    time.Duration
}

// NewScraper creates a Musinsa scraper with the full strategy chain.
func NewScraper(client *http.Client, registry *Registry, rateLimiter *rate.Limiter, userAgent string, listing ListingOptions) *Scraper {
	return &Scraper{
		fastStrategies: []Strategy{
			NewStaticPageStrategy(client),
		},
		slowStrategies: []Strategy{
			NewHeadlessBrowserStrategy(userAgent, listing),
		},
		registry:    registry,
		rateLimiter: rateLimiter,
		fastTimeout: 10 * time.Second,
	}
}

// Registry exposes the category registry the scraper resolves codes with.
func (m *Scraper) Registry() *Registry { return m.registry }

// ProductDetail extracts one product page snapshot.
func (m *Scraper) ProductDetail(ctx context.Context, url string) (*models.ProductSnapshot, error) {
	req := Request{Type: ProductDetailRequest, URL: url}

	products, err := m.executeWithFallback(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no product detail found for: %s", url)
	}
	return &products[0], nil
}

// CategoryListing collects up to target products from a category's
// popularity-sorted listing. An empty result with
// OutcomeContainerNotFound is a valid answer, not an error.
func (m *Scraper) CategoryListing(ctx context.Context, code string, target int) (*ListingResult, error) {
	if m.rateLimiter != nil {
		if err := m.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req := Request{
		Type:         CategoryListingRequest,
		CategoryCode: code,
		CategoryName: m.registry.NameFor(ctx, code),
		Target:       target,
	}

	var lastErr error
	for _, s := range m.slowStrategies {
		ReportProgress(ctx, "Crawling category %s via %s...", code, s.Name())
		res, err := s.Execute(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		return &ListingResult{
			Category:     req.CategoryName,
			CategoryCode: code,
			Products:     res.Products,
			Outcome:      res.Outcome,
			Strategy:     res.Strategy,
		}, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("category %s: %w", code, lastErr)
	}
	return nil, fmt.Errorf("no strategy can crawl category listings")
}

// executeWithFallback races fast strategies concurrently, then falls back to slow strategies.
func (m *Scraper) executeWithFallback(ctx context.Context, req Request) ([]models.ProductSnapshot, error) {
	// Phase 1: Race fast strategies concurrently
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type strategyResult struct {
		products []models.ProductSnapshot
		strategy string
	}
	resultCh := make(chan strategyResult, len(m.fastStrategies))

	for _, s := range m.fastStrategies {
		go func(s Strategy) {
			if m.rateLimiter != nil {
				if err := m.rateLimiter.Wait(raceCtx); err != nil {
					return
				}
			}
			r, err := s.Execute(raceCtx, req)
			if err == nil && r != nil && len(r.Products) > 0 {
				resultCh <- strategyResult{products: r.Products, strategy: s.Name()}
			}
		}(s)
	}

	select {
	case r := <-resultCh:
		cancel()
		ReportProgress(ctx, "Extracted %d product(s) via %s", len(r.products), r.strategy)
		return r.products, nil
	case <-time.After(m.fastTimeout):
		cancel()
		ReportProgress(ctx, "Fast strategies timed out, trying headless browser...")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Phase 2: Fall back to slow strategies sequentially
	for _, s := range m.slowStrategies {
		ReportProgress(ctx, "Trying %s strategy...", s.Name())
		result, err := s.Execute(ctx, req)
		if err == nil && result != nil && len(result.Products) > 0 {
			ReportProgress(ctx, "Extracted %d product(s) via %s", len(result.Products), s.Name())
			return result.Products, nil
		}
		if err != nil {
			ReportProgress(ctx, "Strategy %s failed, trying next...", s.Name())
		}
	}

	return nil, fmt.Errorf("all strategies exhausted for request: %+v", req)
}
