package musinsa

import (
	"strings"
	"time"

	"github.com/minsu-lab/mstrack/internal/models"
)

const (
	siteHost  = "https://www.musinsa.com"
	assetHost = "https://image.msscdn.net"
)

const (
	stockInStock  = "판매중"
	stockSoldOut  = "품절"
	genderUnisex  = "공용"
	categoryOther = "기타"
)

// snapshotFromScripts scans inline script bodies for the embedded product
// state and builds a snapshot from the first one carrying the required
// fields. Candidates that fail to decode are skipped, so a broken
// analytics blob earlier in the page cannot mask the real state.
func snapshotFromScripts(pageURL string, scripts []string, now time.Time) (*models.ProductSnapshot, error) {
	var candidates, decoded int
	for _, body := range scripts {
		raw, ok := extractStateJSON(body)
		if !ok {
			continue
		}
		candidates++
		st, err := decodeState(raw)
		if err != nil {
			continue
		}
		decoded++
		snap, err := snapshotFromState(pageURL, st, now)
		if err != nil {
			continue
		}
		return snap, nil
	}
	switch {
	case candidates == 0:
		return nil, ErrNoStateScript
	case decoded == 0:
		return nil, ErrStateParse
	default:
		return nil, ErrMissingCoreFields
	}
}

// snapshotFromState maps the decoded page state onto a snapshot. Name,
// brand and image are required; everything else falls back to defaults.
func snapshotFromState(pageURL string, st *productState, now time.Time) (*models.ProductSnapshot, error) {
	name := strings.TrimSpace(st.GoodsNm)
	brand := strings.TrimSpace(st.BrandInfo.BrandName)
	image := normalizeImageURL(st.ThumbnailImageURL)
	if name == "" || brand == "" || image == "" {
		return nil, ErrMissingCoreFields
	}

	soldOut := bool(st.OutOfStock)
	if st.IsSoldOut != nil {
		soldOut = bool(*st.IsSoldOut)
	}
	stock := stockInStock
	if soldOut {
		stock = stockSoldOut
	}

	gender := genderUnisex
	var tags []string
	for _, g := range st.Genders {
		if g = strings.TrimSpace(g); g != "" {
			tags = append(tags, g)
		}
	}
	if len(tags) > 0 {
		gender = strings.Join(tags, "/")
	}

	path := models.CategoryPath{
		Depth1: models.CategoryLevel{Name: strings.TrimSpace(st.Category.Depth1Name), Code: st.Category.Depth1Code},
		Depth2: models.CategoryLevel{Name: strings.TrimSpace(st.Category.Depth2Name), Code: st.Category.Depth2Code},
		Depth3: models.CategoryLevel{Name: strings.TrimSpace(st.Category.Depth3Name), Code: st.Category.Depth3Code},
	}
	category := path.Display()
	if category == "" {
		category = categoryOther
	}

	snap := &models.ProductSnapshot{
		ProductURL:   pageURL,
		GoodsNo:      int64(st.GoodsNo),
		StyleNo:      strings.TrimSpace(st.StyleNo),
		Name:         name,
		Brand:        brand,
		BrandEnglish: strings.TrimSpace(st.BrandInfo.BrandEnglishName),
		Category:     category,
		CategoryPath: path,
		ImageURL:     image,
		NormalPrice:  int(st.GoodsPrice.NormalPrice),
		SalePrice:    int(st.GoodsPrice.SalePrice),
		DiscountRate: float64(st.GoodsPrice.DiscountRate),
		IsSale:       bool(st.GoodsPrice.IsSale),
		IsSoldOut:    soldOut,
		StockStatus:  stock,
		ReviewCount:  int(st.GoodsReview.TotalCount),
		ReviewScore:  float64(st.GoodsReview.SatisfactionScore),
		DeliveryInfo: strings.TrimSpace(st.Logistics.DeliveryInfoName),
		CourierName:  strings.TrimSpace(st.Logistics.CourierName),
		Gender:       gender,
		GenderTags:   tags,
		ScrapedAt:    now,
	}
	normalizePrices(snap)
	return snap, nil
}

// normalizeImageURL makes a page-relative or protocol-relative image
// reference absolute against the asset host.
func normalizeImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return assetHost + raw
	default:
		return raw
	}
}

// normalizePrices enforces sale <= normal. Listing tiles occasionally
// carry the pair swapped, and a tile without a discount only carries one
// price.
func normalizePrices(p *models.ProductSnapshot) {
	if p.NormalPrice > 0 && p.SalePrice > 0 && p.SalePrice > p.NormalPrice {
		p.NormalPrice, p.SalePrice = p.SalePrice, p.NormalPrice
	}
	if p.NormalPrice == 0 && p.SalePrice > 0 {
		p.NormalPrice = p.SalePrice
	}
	if p.DiscountRate < 0 {
		p.DiscountRate = 0
	}
}
