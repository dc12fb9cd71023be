package models

import (
	"time"

	"github.com/lib/pq"
)

// Product is a tracked product row. The product URL is the sole
// identity key: one row per URL, enforced by a unique index.
type Product struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	ProductURL   string         `json:"product_url" gorm:"size:500;uniqueIndex;not null"`
	GoodsNo      int64          `json:"goods_no" gorm:"index"`
	StyleNo      string         `json:"style_no" gorm:"size:100"`
	Name         string         `json:"product_name" gorm:"column:product_name;size:500;not null"`
	Brand        string         `json:"brand" gorm:"size:200;index"`
	BrandEnglish string         `json:"brand_english" gorm:"size:200"`
	Category     string         `json:"category" gorm:"size:200;index"`
	CategoryCode string         `json:"category_code" gorm:"size:10;index"`
	ImageURL     string         `json:"image_url" gorm:"size:500"`
	Genders      pq.StringArray `json:"genders" gorm:"type:text[]"`
	DeliveryInfo string         `json:"delivery_info" gorm:"size:200"`
	CourierName  string         `json:"courier_name" gorm:"size:100"`
	ReviewCount  int            `json:"review_count" gorm:"default:0"`
	ReviewScore  float64        `json:"review_score" gorm:"default:0"`
	IsActive     bool           `json:"is_active" gorm:"default:true;index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	PricePoints []PricePoint `json:"price_points,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// PricePoint is one price observation for a product. Every successful
// crawl appends a point, price change or not, so the series doubles as
// an availability log.
type PricePoint struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ProductID    uint      `json:"product_id" gorm:"index;not null"`
	NormalPrice  int       `json:"normal_price"`
	SalePrice    int       `json:"sale_price"`
	DiscountRate float64   `json:"discount_rate"`
	IsSale       bool      `json:"is_sale"`
	IsSoldOut    bool      `json:"is_sold_out"`
	StockStatus  string    `json:"stock_status" gorm:"size:20"`
	RecordedAt   time.Time `json:"recorded_at" gorm:"index"`
}

// ProductFromSnapshot builds a new tracked product from a crawl result.
func ProductFromSnapshot(s ProductSnapshot) Product {
	return Product{
		ProductURL:   s.ProductURL,
		GoodsNo:      s.GoodsNo,
		StyleNo:      s.StyleNo,
		Name:         s.Name,
		Brand:        s.Brand,
		BrandEnglish: s.BrandEnglish,
		Category:     s.Category,
		CategoryCode: s.CategoryCode,
		ImageURL:     s.ImageURL,
		Genders:      pq.StringArray(s.GenderTags),
		DeliveryInfo: s.DeliveryInfo,
		CourierName:  s.CourierName,
		ReviewCount:  s.ReviewCount,
		ReviewScore:  s.ReviewScore,
		IsActive:     true,
	}
}

// PricePointFromSnapshot builds the price observation for a crawl result.
func PricePointFromSnapshot(productID uint, s ProductSnapshot) PricePoint {
	return PricePoint{
		ProductID:    productID,
		NormalPrice:  s.NormalPrice,
		SalePrice:    s.SalePrice,
		DiscountRate: s.DiscountRate,
		IsSale:       s.IsSale,
		IsSoldOut:    s.IsSoldOut,
		StockStatus:  s.StockStatus,
		RecordedAt:   s.ScrapedAt,
	}
}

// ApplySnapshot refreshes the descriptive and engagement fields from a
// newer crawl. Identity fields (URL, ID, CreatedAt) are left alone, and
// blank crawl values never erase known data.
func (p *Product) ApplySnapshot(s ProductSnapshot) {
	if s.Name != "" {
		p.Name = s.Name
	}
	if s.Brand != "" {
		p.Brand = s.Brand
	}
	if s.BrandEnglish != "" {
		p.BrandEnglish = s.BrandEnglish
	}
	if s.Category != "" {
		p.Category = s.Category
	}
	if s.CategoryCode != "" {
		p.CategoryCode = s.CategoryCode
	}
	if s.ImageURL != "" {
		p.ImageURL = s.ImageURL
	}
	if s.GoodsNo != 0 {
		p.GoodsNo = s.GoodsNo
	}
	if s.StyleNo != "" {
		p.StyleNo = s.StyleNo
	}
	if len(s.GenderTags) > 0 {
		p.Genders = pq.StringArray(s.GenderTags)
	}
	if s.DeliveryInfo != "" {
		p.DeliveryInfo = s.DeliveryInfo
	}
	if s.CourierName != "" {
		p.CourierName = s.CourierName
	}
	if s.ReviewCount > 0 {
		p.ReviewCount = s.ReviewCount
	}
	if s.ReviewScore > 0 {
		p.ReviewScore = s.ReviewScore
	}
}
