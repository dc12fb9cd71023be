package tracker

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/minsu-lab/mstrack/internal/models"
	"github.com/minsu-lab/mstrack/internal/stealth"
)

// Refresher re-crawls every tracked product and extends its price
// history. Crawling and persisting are separate phases: detail pages are
// fetched one by one with a pacing delay, then all successful results
// are written in a single transaction. A failing product never blocks
// the rest.
type Refresher struct {
	store   Store
	crawler Crawler
	delay   *stealth.HumanDelay
	gate    *Gate
}

func NewRefresher(store Store, crawler Crawler, delay *stealth.HumanDelay, gate *Gate) *Refresher {
	return &Refresher{store: store, crawler: crawler, delay: delay, gate: gate}
}

type refreshUpdate struct {
	product models.Product
	snap    models.ProductSnapshot
}

// RefreshAll crawls every active product. Each success appends a price
// point, whether or not the price moved, and refreshes the product's
// descriptive fields in place.
func (r *Refresher) RefreshAll(ctx context.Context) (*RefreshResult, error) {
	defer r.gate.acquire()()

	products, err := r.store.Active()
	if err != nil {
		return nil, err
	}

	logrus.WithField("products", len(products)).Info("Price refresh started")

	result := &RefreshResult{Total: len(products)}
	var updates []refreshUpdate

	for i, product := range products {
		if i > 0 && r.delay != nil {
			if err := r.delay.Wait(ctx); err != nil {
				return nil, err
			}
		}

		snap, err := r.crawler.ProductDetail(ctx, product.ProductURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logrus.WithError(err).WithFields(logrus.Fields{
				"product_id": product.ID,
				"name":       product.Name,
			}).Warn("Product refresh failed")
			result.Errors++
			result.Results = append(result.Results, ProductResult{
				ProductID: product.ID,
				Name:      product.Name,
				Status:    statusFor(err),
				Error:     err.Error(),
			})
			continue
		}

		product.ApplySnapshot(*snap)
		updates = append(updates, refreshUpdate{product: product, snap: *snap})
		result.Success++
		result.Results = append(result.Results, ProductResult{
			ProductID: product.ID,
			Name:      product.Name,
			Status:    "success",
			Price:     snap.SalePrice,
		})
	}

	if len(updates) > 0 {
		err := r.store.WithTx(func(tx Store) error {
			for _, u := range updates {
				point := models.PricePointFromSnapshot(u.product.ID, u.snap)
				if err := tx.CreatePricePoint(&point); err != nil {
					return err
				}
				if err := tx.SaveProduct(&u.product); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("persist refresh results: %w", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"total":   result.Total,
		"success": result.Success,
		"errors":  result.Errors,
	}).Info("Price refresh finished")

	return result, nil
}

// RefreshOne crawls a single tracked product on demand.
func (r *Refresher) RefreshOne(ctx context.Context, productID uint) (*ManualCrawlResult, error) {
	product, err := r.store.ByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	snap, err := r.crawler.ProductDetail(ctx, product.ProductURL)
	if err != nil {
		return nil, fmt.Errorf("crawl %s: %w", product.ProductURL, err)
	}

	product.ApplySnapshot(*snap)
	point := models.PricePointFromSnapshot(product.ID, *snap)

	err = r.store.WithTx(func(tx Store) error {
		if err := tx.CreatePricePoint(&point); err != nil {
			return err
		}
		return tx.SaveProduct(product)
	})
	if err != nil {
		return nil, err
	}

	return &ManualCrawlResult{
		ProductID:   product.ID,
		Name:        product.Name,
		Price:       snap.SalePrice,
		StockStatus: snap.StockStatus,
		RecordedAt:  point.RecordedAt,
	}, nil
}
