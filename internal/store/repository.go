package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/minsu-lab/mstrack/internal/models"
	"github.com/minsu-lab/mstrack/internal/utils"
)

// Store wraps the gorm handle with the queries the tracker, API and
// scheduler need.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for aggregate queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithTx runs fn inside a transaction. Nesting is safe: gorm downgrades
// inner transactions to savepoints, which keeps per-item isolation
// inside a batch commit.
func (s *Store) WithTx(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) CreateProduct(p *models.Product) error {
	return s.db.Create(p).Error
}

func (s *Store) CreatePricePoint(pt *models.PricePoint) error {
	return s.db.Create(pt).Error
}

// SaveProduct persists in-place field updates from a refresh crawl.
func (s *Store) SaveProduct(p *models.Product) error {
	return s.db.Save(p).Error
}

// FindByURL returns the product tracked under url, or nil when none is.
func (s *Store) FindByURL(url string) (*models.Product, error) {
	var p models.Product
	if err := s.db.Where("product_url = ?", url).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ExistingURLs returns which of the given URLs are already tracked.
// One query per batch instead of one per product.
func (s *Store) ExistingURLs(urls []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(urls))
	if len(urls) == 0 {
		return existing, nil
	}

	var found []string
	err := s.db.Model(&models.Product{}).
		Where("product_url IN ?", urls).
		Pluck("product_url", &found).Error
	if err != nil {
		return nil, err
	}

	for _, u := range found {
		existing[u] = struct{}{}
	}
	return existing, nil
}

// ByID returns the product with the given ID, or nil when none exists.
func (s *Store) ByID(id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Active returns every product with price tracking enabled, oldest first
// so long-tracked products are refreshed before recent additions.
func (s *Store) Active() ([]models.Product, error) {
	var products []models.Product
	err := s.db.Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&products).Error
	return products, err
}

// List returns a filtered, sorted, paginated product page plus the total
// row count for the filter.
func (s *Store) List(params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{})

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Brand != "" {
		query = query.Where("brand = ?", params.Brand)
	}
	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("product_name ILIKE ? OR brand ILIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	allowedSortFields := []string{"created_at", "product_name", "brand", "review_count", "review_score"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// Delete removes a product. Price points go with it via the cascade
// constraint.
func (s *Store) Delete(id uint) error {
	return s.db.Delete(&models.Product{}, id).Error
}

// History returns a product's price points, newest first. days limits
// the window; 0 means the full history.
func (s *Store) History(productID uint, days int) ([]models.PricePoint, error) {
	query := s.db.Where("product_id = ?", productID)
	if days > 0 {
		cutoff := time.Now().AddDate(0, 0, -days)
		query = query.Where("recorded_at >= ?", cutoff)
	}

	var points []models.PricePoint
	err := query.Order("recorded_at DESC").Find(&points).Error
	return points, err
}

// LatestPoint returns the most recent price observation, or nil when
// the product has none yet.
func (s *Store) LatestPoint(productID uint) (*models.PricePoint, error) {
	var pt models.PricePoint
	err := s.db.Where("product_id = ?", productID).
		Order("recorded_at DESC").
		First(&pt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pt, nil
}

// PrunePointsBefore deletes price points recorded before cutoff and
// reports how many rows went away.
func (s *Store) PrunePointsBefore(cutoff time.Time) (int64, error) {
	res := s.db.Where("recorded_at < ?", cutoff).Delete(&models.PricePoint{})
	return res.RowsAffected, res.Error
}

func (s *Store) CountProducts() (int64, error) {
	var n int64
	err := s.db.Model(&models.Product{}).Count(&n).Error
	return n, err
}

func (s *Store) CountActive() (int64, error) {
	var n int64
	err := s.db.Model(&models.Product{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

func (s *Store) CountWithReviews() (int64, error) {
	var n int64
	err := s.db.Model(&models.Product{}).Where("review_count > 0").Count(&n).Error
	return n, err
}

func (s *Store) CountPricePoints() (int64, error) {
	var n int64
	err := s.db.Model(&models.PricePoint{}).Count(&n).Error
	return n, err
}
