package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/minsu-lab/mstrack/internal/models"
	"github.com/minsu-lab/mstrack/internal/musinsa"
	"github.com/minsu-lab/mstrack/internal/stealth"
)

// Reconciler feeds discovery crawls into the product table: new URLs are
// inserted with their first price point, known URLs are skipped
// untouched so their original registration data survives.
type Reconciler struct {
	store    Store
	crawler  Crawler
	registry *musinsa.Registry
	delay    *stealth.HumanDelay
	gate     *Gate
}

func NewReconciler(store Store, crawler Crawler, registry *musinsa.Registry, delay *stealth.HumanDelay, gate *Gate) *Reconciler {
	return &Reconciler{store: store, crawler: crawler, registry: registry, delay: delay, gate: gate}
}

// Register tracks a single product URL: live detail crawl, duplicate
// rejection, product plus first price point in one transaction.
func (r *Reconciler) Register(ctx context.Context, productURL string) (*models.Product, error) {
	existing, err := r.store.FindByURL(productURL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyTracked
	}

	snap, err := r.crawler.ProductDetail(ctx, productURL)
	if err != nil {
		return nil, fmt.Errorf("crawl %s: %w", productURL, err)
	}

	product := models.ProductFromSnapshot(*snap)
	err = r.store.WithTx(func(tx Store) error {
		if err := tx.CreateProduct(&product); err != nil {
			return err
		}
		point := models.PricePointFromSnapshot(product.ID, *snap)
		return tx.CreatePricePoint(&point)
	})
	if err != nil {
		// Concurrent registration of the same URL loses the unique-index
		// race; report it like the pre-check would have.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyTracked
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"name":       product.Name,
		"brand":      product.Brand,
	}).Info("Product registered for tracking")

	return &product, nil
}

// CrawlCategories crawls each category listing, then reconciles the
// results in one batch. With save disabled the snapshots are returned
// raw instead.
func (r *Reconciler) CrawlCategories(ctx context.Context, codes []string, target int, save bool) (*BatchResult, error) {
	var invalid []string
	for _, code := range codes {
		if !r.registry.ValidCode(ctx, code) {
			invalid = append(invalid, code)
		}
	}
	if len(invalid) > 0 {
		return nil, &InvalidCategoryError{Codes: invalid}
	}

	defer r.gate.acquire()()

	batches := make(map[string][]models.ProductSnapshot, len(codes))
	crawlErrs := make(map[string]string)

	for i, code := range codes {
		if i > 0 && r.delay != nil {
			if err := r.delay.BrowseWait(ctx); err != nil {
				return nil, err
			}
		}

		listing, err := r.crawler.CategoryListing(ctx, code, target)
		if err != nil {
			logrus.WithError(err).WithField("category", code).Error("Category crawl failed")
			crawlErrs[code] = err.Error()
			batches[code] = nil
			continue
		}

		logrus.WithFields(logrus.Fields{
			"category": listing.Category,
			"code":     code,
			"products": len(listing.Products),
			"outcome":  listing.Outcome.String(),
		}).Info("Category crawl finished")
		batches[code] = listing.Products
	}

	if !save {
		result := &BatchResult{
			Categories: make(map[string]CategoryCount, len(batches)),
			Raw:        batches,
		}
		for code, snaps := range batches {
			result.Categories[code] = CategoryCount{Crawled: len(snaps), Error: crawlErrs[code]}
			result.TotalCrawled += len(snaps)
		}
		return result, nil
	}

	result, err := r.SaveBatch(batches)
	if err != nil {
		return nil, err
	}
	for code, msg := range crawlErrs {
		count := result.Categories[code]
		count.Error = msg
		result.Categories[code] = count
	}
	return result, nil
}

// SaveBatch reconciles crawl batches into the store in one transaction.
// Known URLs are skipped untouched; new URLs get a product row plus a
// first price point. A failing item rolls back alone (savepoint) while
// the rest of the batch commits, and reruns over the same data are
// no-ops.
func (r *Reconciler) SaveBatch(batches map[string][]models.ProductSnapshot) (*BatchResult, error) {
	result := &BatchResult{Categories: make(map[string]CategoryCount, len(batches))}
	inserted := make(map[string]struct{})

	err := r.store.WithTx(func(tx Store) error {
		for code, snaps := range batches {
			count := CategoryCount{Crawled: len(snaps)}

			urls := make([]string, 0, len(snaps))
			for _, s := range snaps {
				if s.ProductURL != "" {
					urls = append(urls, s.ProductURL)
				}
			}
			existing, err := tx.ExistingURLs(urls)
			if err != nil {
				return err
			}

			for _, snap := range snaps {
				if snap.ProductURL == "" {
					count.Errors++
					continue
				}
				if _, ok := existing[snap.ProductURL]; ok {
					count.Skipped++
					continue
				}
				if _, ok := inserted[snap.ProductURL]; ok {
					// Same product listed under two categories.
					count.Skipped++
					continue
				}

				itemErr := tx.WithTx(func(itx Store) error {
					product := models.ProductFromSnapshot(snap)
					if err := itx.CreateProduct(&product); err != nil {
						return err
					}
					point := models.PricePointFromSnapshot(product.ID, snap)
					return itx.CreatePricePoint(&point)
				})
				if itemErr != nil {
					logrus.WithError(itemErr).WithField("url", snap.ProductURL).Error("Failed to save product")
					count.Errors++
					continue
				}
				inserted[snap.ProductURL] = struct{}{}
				count.Saved++
			}

			result.Categories[code] = count
			result.TotalCrawled += count.Crawled
			result.TotalSaved += count.Saved
			result.TotalSkipped += count.Skipped
			result.TotalErrors += count.Errors
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"crawled": result.TotalCrawled,
		"saved":   result.TotalSaved,
		"skipped": result.TotalSkipped,
		"errors":  result.TotalErrors,
	}).Info("Batch reconciled")

	return result, nil
}
