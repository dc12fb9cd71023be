// Package analytics aggregates tracked products and price history into
// the read-only reporting views served by the API.
package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// TrendPoint is one observation in a product's price series.
type TrendPoint struct {
	Timestamp    time.Time `json:"timestamp"`
	ProductName  string    `json:"product_name"`
	NormalPrice  int       `json:"normal_price"`
	SalePrice    int       `json:"sale_price"`
	DiscountRate float64   `json:"discount_rate"`
}

// DailyDiscount is the fleet-wide average discount for one day.
type DailyDiscount struct {
	Date            string  `json:"date"`
	AvgDiscountRate float64 `json:"avg_discount_rate"`
}

// DailyPrice is the fleet-wide average price level for one day.
type DailyPrice struct {
	Date           string  `json:"date"`
	AvgSalePrice   float64 `json:"avg_sale_price"`
	AvgNormalPrice float64 `json:"avg_normal_price"`
}

// PriceTrends carries either one product's series or the daily fleet
// averages, depending on whether a product was requested.
type PriceTrends struct {
	ProductID        uint            `json:"product_id,omitempty"`
	PeriodDays       int             `json:"period_days"`
	DataPoints       int             `json:"data_points"`
	PriceHistory     []TrendPoint    `json:"price_history,omitempty"`
	AvgDiscountTrend []DailyDiscount `json:"average_discount_trend,omitempty"`
	AvgPriceTrend    []DailyPrice    `json:"average_price_trend,omitempty"`
}

// PriceTrends reports price movement over the trailing window. With a
// product ID it returns that product's raw series; without one it
// returns daily averages across all tracked products.
func (s *Service) PriceTrends(ctx context.Context, productID uint, days int) (*PriceTrends, error) {
	if days <= 0 {
		days = 7
	}
	start := time.Now().AddDate(0, 0, -days)

	if productID > 0 {
		var points []TrendPoint
		err := s.db.WithContext(ctx).
			Table("price_points").
			Select("price_points.recorded_at AS timestamp, products.product_name AS product_name, price_points.normal_price, price_points.sale_price, price_points.discount_rate").
			Joins("JOIN products ON products.id = price_points.product_id").
			Where("price_points.product_id = ? AND price_points.recorded_at >= ?", productID, start).
			Order("price_points.recorded_at").
			Scan(&points).Error
		if err != nil {
			return nil, err
		}
		return &PriceTrends{
			ProductID:    productID,
			PeriodDays:   days,
			DataPoints:   len(points),
			PriceHistory: points,
		}, nil
	}

	var discounts []DailyDiscount
	err := s.db.WithContext(ctx).
		Table("price_points").
		Select("to_char(recorded_at::date, 'YYYY-MM-DD') AS date, AVG(discount_rate) AS avg_discount_rate").
		Where("recorded_at >= ?", start).
		Group("recorded_at::date").
		Order("date").
		Scan(&discounts).Error
	if err != nil {
		return nil, err
	}

	var prices []DailyPrice
	err = s.db.WithContext(ctx).
		Table("price_points").
		Select("to_char(recorded_at::date, 'YYYY-MM-DD') AS date, AVG(sale_price) AS avg_sale_price, AVG(normal_price) AS avg_normal_price").
		Where("recorded_at >= ? AND sale_price > 0", start).
		Group("recorded_at::date").
		Order("date").
		Scan(&prices).Error
	if err != nil {
		return nil, err
	}

	return &PriceTrends{
		PeriodDays:       days,
		AvgDiscountTrend: discounts,
		AvgPriceTrend:    prices,
	}, nil
}

// BrandStat aggregates one brand's tracked products. Price figures come
// from each product's latest observation only, so long histories do not
// skew the averages.
type BrandStat struct {
	Brand           string  `json:"brand"`
	ProductCount    int     `json:"product_count"`
	AvgReviewScore  float64 `json:"avg_review_score"`
	AvgReviewCount  float64 `json:"avg_review_count"`
	AvgSalePrice    float64 `json:"avg_sale_price"`
	AvgDiscountRate float64 `json:"avg_discount_rate"`
}

type BrandStats struct {
	TotalBrands int         `json:"total_brands"`
	Brands      []BrandStat `json:"brand_statistics"`
}

func (s *Service) BrandStats(ctx context.Context, limit int) (*BrandStats, error) {
	if limit <= 0 {
		limit = 20
	}

	var brands []BrandStat
	err := s.db.WithContext(ctx).
		Table("products").
		Select("brand, COUNT(id) AS product_count, AVG(review_score) AS avg_review_score, AVG(review_count) AS avg_review_count").
		Where("brand <> ''").
		Group("brand").
		Order("product_count DESC").
		Limit(limit).
		Scan(&brands).Error
	if err != nil {
		return nil, err
	}

	type brandPrice struct {
		Brand           string
		AvgSalePrice    float64
		AvgDiscountRate float64
	}
	var prices []brandPrice
	err = s.db.WithContext(ctx).Raw(`
		SELECT products.brand,
		       AVG(price_points.sale_price) AS avg_sale_price,
		       AVG(price_points.discount_rate) AS avg_discount_rate
		FROM products
		JOIN price_points ON products.id = price_points.product_id
		JOIN (
			SELECT product_id, MAX(recorded_at) AS latest_recorded
			FROM price_points
			GROUP BY product_id
		) latest ON price_points.product_id = latest.product_id
		        AND price_points.recorded_at = latest.latest_recorded
		WHERE products.brand <> '' AND price_points.sale_price > 0
		GROUP BY products.brand`).
		Scan(&prices).Error
	if err != nil {
		return nil, err
	}

	priceByBrand := make(map[string]brandPrice, len(prices))
	for _, p := range prices {
		priceByBrand[p.Brand] = p
	}
	for i := range brands {
		if p, ok := priceByBrand[brands[i].Brand]; ok {
			brands[i].AvgSalePrice = p.AvgSalePrice
			brands[i].AvgDiscountRate = p.AvgDiscountRate
		}
	}

	return &BrandStats{TotalBrands: len(brands), Brands: brands}, nil
}

// PriceAnalysis is the observed price range within one category.
type PriceAnalysis struct {
	MinPrice    int     `json:"min_price"`
	MaxPrice    int     `json:"max_price"`
	AvgPrice    int     `json:"avg_price"`
	AvgDiscount float64 `json:"avg_discount"`
}

type CategoryInsight struct {
	Category       string        `json:"category"`
	ProductCount   int           `json:"product_count"`
	AvgReviewScore float64       `json:"avg_review_score"`
	TotalReviews   int           `json:"total_reviews"`
	PriceAnalysis  PriceAnalysis `json:"price_analysis"`
}

type CategoryInsights struct {
	TotalCategories int               `json:"total_categories"`
	Categories      []CategoryInsight `json:"category_insights"`
}

func (s *Service) CategoryInsights(ctx context.Context, limit int) (*CategoryInsights, error) {
	if limit <= 0 {
		limit = 15
	}

	type categoryRow struct {
		Category       string
		ProductCount   int
		AvgReviewScore float64
		TotalReviews   int
	}
	var rows []categoryRow
	err := s.db.WithContext(ctx).
		Table("products").
		Select("category, COUNT(id) AS product_count, AVG(review_score) AS avg_review_score, COALESCE(SUM(review_count), 0) AS total_reviews").
		Where("category <> ''").
		Group("category").
		Order("product_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	type priceRow struct {
		Category    string
		MinPrice    int
		MaxPrice    int
		AvgPrice    float64
		AvgDiscount float64
	}
	var prices []priceRow
	err = s.db.WithContext(ctx).
		Table("products").
		Select("products.category, MIN(price_points.sale_price) AS min_price, MAX(price_points.sale_price) AS max_price, AVG(price_points.sale_price) AS avg_price, AVG(price_points.discount_rate) AS avg_discount").
		Joins("JOIN price_points ON products.id = price_points.product_id").
		Where("products.category <> '' AND price_points.sale_price > 0").
		Group("products.category").
		Scan(&prices).Error
	if err != nil {
		return nil, err
	}

	priceByCategory := make(map[string]priceRow, len(prices))
	for _, p := range prices {
		priceByCategory[p.Category] = p
	}

	insights := make([]CategoryInsight, 0, len(rows))
	for _, row := range rows {
		insight := CategoryInsight{
			Category:       row.Category,
			ProductCount:   row.ProductCount,
			AvgReviewScore: row.AvgReviewScore,
			TotalReviews:   row.TotalReviews,
		}
		if p, ok := priceByCategory[row.Category]; ok {
			insight.PriceAnalysis = PriceAnalysis{
				MinPrice:    p.MinPrice,
				MaxPrice:    p.MaxPrice,
				AvgPrice:    int(p.AvgPrice),
				AvgDiscount: p.AvgDiscount,
			}
		}
		insights = append(insights, insight)
	}

	return &CategoryInsights{TotalCategories: len(insights), Categories: insights}, nil
}

// ScoreBucket counts products sharing one review score.
type ScoreBucket struct {
	Score        float64 `json:"score"`
	ProductCount int     `json:"product_count"`
}

type ReviewStatistics struct {
	AvgReviewCount      float64 `json:"avg_review_count"`
	MaxReviewCount      int     `json:"max_review_count"`
	MinReviewCount      int     `json:"min_review_count"`
	ProductsWithReviews int     `json:"products_with_reviews"`
	TotalProducts       int     `json:"total_products"`
	ReviewCoverageRate  float64 `json:"review_coverage_rate"`
}

type RankedProduct struct {
	Name        string  `json:"product_name"`
	Brand       string  `json:"brand"`
	ReviewScore float64 `json:"review_score"`
	ReviewCount int     `json:"review_count"`
}

type ReviewAnalysis struct {
	Distribution []ScoreBucket    `json:"review_distribution"`
	Statistics   ReviewStatistics `json:"review_statistics"`
	HighRated    []RankedProduct  `json:"high_rated_products"`
	MostReviewed []RankedProduct  `json:"most_reviewed_products"`
}

func (s *Service) ReviewAnalysis(ctx context.Context) (*ReviewAnalysis, error) {
	var distribution []ScoreBucket
	err := s.db.WithContext(ctx).
		Table("products").
		Select("review_score AS score, COUNT(id) AS product_count").
		Where("review_score > 0").
		Group("review_score").
		Order("review_score").
		Scan(&distribution).Error
	if err != nil {
		return nil, err
	}

	var stats ReviewStatistics
	err = s.db.WithContext(ctx).Raw(`
		SELECT COALESCE(AVG(review_count), 0) AS avg_review_count,
		       COALESCE(MAX(review_count), 0) AS max_review_count,
		       COALESCE(MIN(review_count), 0) AS min_review_count,
		       COUNT(id) FILTER (WHERE review_count > 0) AS products_with_reviews,
		       COUNT(id) AS total_products
		FROM products`).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	if stats.TotalProducts > 0 {
		stats.ReviewCoverageRate = float64(stats.ProductsWithReviews) / float64(stats.TotalProducts) * 100
	}

	var highRated []RankedProduct
	err = s.db.WithContext(ctx).
		Table("products").
		Select("product_name AS name, brand, review_score, review_count").
		Where("review_score >= ? AND review_count >= ?", 4.5, 10).
		Order("review_score DESC, review_count DESC").
		Limit(10).
		Scan(&highRated).Error
	if err != nil {
		return nil, err
	}

	var mostReviewed []RankedProduct
	err = s.db.WithContext(ctx).
		Table("products").
		Select("product_name AS name, brand, review_score, review_count").
		Where("review_count > 0").
		Order("review_count DESC").
		Limit(10).
		Scan(&mostReviewed).Error
	if err != nil {
		return nil, err
	}

	return &ReviewAnalysis{
		Distribution: distribution,
		Statistics:   stats,
		HighRated:    highRated,
		MostReviewed: mostReviewed,
	}, nil
}

type DashboardOverview struct {
	TotalProducts       int     `json:"total_products"`
	ProductsWithReviews int     `json:"products_with_reviews"`
	TotalBrands         int     `json:"total_brands"`
	TotalCategories     int     `json:"total_categories"`
	ReviewCoverageRate  float64 `json:"review_coverage_rate"`
}

type DashboardPricing struct {
	TotalPriceRecords int     `json:"total_price_records"`
	AvgSalePrice      int     `json:"avg_sale_price"`
	AvgDiscountRate   float64 `json:"avg_discount_rate"`
}

type DashboardActivity struct {
	RecordsLast24h int `json:"records_last_24h"`
}

type TopBrand struct {
	Brand        string `json:"brand"`
	ProductCount int    `json:"product_count"`
}

type DashboardSummary struct {
	Overview       DashboardOverview `json:"overview"`
	Pricing        DashboardPricing  `json:"pricing"`
	RecentActivity DashboardActivity `json:"recent_activity"`
	TopBrands      []TopBrand        `json:"top_brands"`
}

// DashboardSummary fans the four summary queries out concurrently; the
// pool serializes what it must.
func (s *Service) DashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	summary := &DashboardSummary{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.db.WithContext(ctx).Raw(`
			SELECT COUNT(id) AS total_products,
			       COUNT(id) FILTER (WHERE review_count > 0) AS products_with_reviews,
			       COUNT(DISTINCT brand) AS total_brands,
			       COUNT(DISTINCT category) AS total_categories
			FROM products`).
			Scan(&summary.Overview).Error
		if err != nil {
			return err
		}
		if summary.Overview.TotalProducts > 0 {
			summary.Overview.ReviewCoverageRate = float64(summary.Overview.ProductsWithReviews) / float64(summary.Overview.TotalProducts) * 100
		}
		return nil
	})

	g.Go(func() error {
		return s.db.WithContext(ctx).Raw(`
			SELECT COUNT(id) AS total_price_records,
			       COALESCE(AVG(sale_price), 0)::int AS avg_sale_price,
			       COALESCE(AVG(discount_rate), 0) AS avg_discount_rate
			FROM price_points
			WHERE sale_price > 0`).
			Scan(&summary.Pricing).Error
	})

	g.Go(func() error {
		yesterday := time.Now().AddDate(0, 0, -1)
		return s.db.WithContext(ctx).
			Table("price_points").
			Select("COUNT(id) AS records_last_24h").
			Where("recorded_at >= ?", yesterday).
			Scan(&summary.RecentActivity).Error
	})

	g.Go(func() error {
		return s.db.WithContext(ctx).
			Table("products").
			Select("brand, COUNT(id) AS product_count").
			Where("brand <> ''").
			Group("brand").
			Order("product_count DESC").
			Limit(5).
			Scan(&summary.TopBrands).Error
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}
