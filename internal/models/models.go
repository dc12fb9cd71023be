package models

import (
	"strings"
	"time"
)

// CategoryLevel is one level of a product's category path, with the
// site's internal code when the page exposes it.
type CategoryLevel struct {
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// CategoryPath is the up-to-3-level category breakdown of a product page.
type CategoryPath struct {
	Depth1 CategoryLevel `json:"depth1"`
	Depth2 CategoryLevel `json:"depth2"`
	Depth3 CategoryLevel `json:"depth3"`
}

// Display flattens the path into a "상의 > 셔츠 > 반팔셔츠" string. A gap
// truncates the display at the deepest filled prefix so it never
// contains empty segments.
func (c CategoryPath) Display() string {
	var parts []string
	for _, lv := range []CategoryLevel{c.Depth1, c.Depth2, c.Depth3} {
		name := strings.TrimSpace(lv.Name)
		if name == "" {
			break
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, " > ")
}

// ProductSnapshot is a single observation of a product page. The
// extractors produce it; the reconciler and refresher persist it.
// ProductURL is the sole cross-run identity.
type ProductSnapshot struct {
	ProductURL   string       `json:"product_url"`
	GoodsNo      int64        `json:"goods_no,omitempty"`
	StyleNo      string       `json:"style_no,omitempty"`
	Name         string       `json:"name"`
	Brand        string       `json:"brand"`
	BrandEnglish string       `json:"brand_english,omitempty"`
	Category     string       `json:"category,omitempty"`
	CategoryPath CategoryPath `json:"category_path"`
	CategoryCode string       `json:"category_code,omitempty"`
	ImageURL     string       `json:"image_url,omitempty"`
	NormalPrice  int          `json:"normal_price"`
	SalePrice    int          `json:"sale_price"`
	DiscountRate float64      `json:"discount_rate"`
	IsSale       bool         `json:"is_sale,omitempty"`
	IsSoldOut    bool         `json:"is_sold_out,omitempty"`
	StockStatus  string       `json:"stock_status,omitempty"`
	ReviewCount  int          `json:"review_count,omitempty"`
	ReviewScore  float64      `json:"review_score,omitempty"`
	DeliveryInfo string       `json:"delivery_info,omitempty"`
	CourierName  string       `json:"courier_name,omitempty"`
	Gender       string       `json:"gender,omitempty"`
	GenderTags   []string     `json:"gender_tags,omitempty"`
	ScrapedAt    time.Time    `json:"scraped_at"`
	Strategy     string       `json:"strategy"`
}
