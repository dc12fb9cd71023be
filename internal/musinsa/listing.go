package musinsa

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/minsu-lab/mstrack/internal/models"
)

// Selectors for the category listing grid. The container class is the
// stable prefix of the styled-components hash; product anchors carry GTM
// dataset attributes.
const (
	listingContainerSelector = "div.sc-ibashp"
	listingAnchorSelector    = "a.gtm-select-item"
	listingReviewSelector    = "span.text-etc_11px_reg.text-yellow.font-pretendard"
)

// ScrollOutcome is the terminal state of a listing crawl.
type ScrollOutcome int

const (
	// OutcomeTargetReached means the requested product count was collected.
	OutcomeTargetReached ScrollOutcome = iota
	// OutcomeBudgetExhausted means the scroll budget ran out first.
	OutcomeBudgetExhausted
	// OutcomeContainerNotFound means the grid never appeared: layout
	// change or empty category. Not an error, the result is just empty.
	OutcomeContainerNotFound
)

func (o ScrollOutcome) String() string {
	switch o {
	case OutcomeTargetReached:
		return "target_reached"
	case OutcomeBudgetExhausted:
		return "budget_exhausted"
	case OutcomeContainerNotFound:
		return "container_not_found"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ListingPage is the slice of a rendered page the listing crawl needs.
// The headless strategy backs it with a browser tab; tests back it with
// a scripted fake.
type ListingPage interface {
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Elements(selector string) ([]Element, error)
	ScrollToBottom() error
	Settle(ctx context.Context, d time.Duration)
}

// Element is a DOM element handle.
type Element interface {
	Attribute(name string) (string, bool)
	Text() string
	Elements(selector string) ([]Element, error)
}

// ListingOptions bound a category crawl.
type ListingOptions struct {
	Target      int           // products to collect
	MaxRounds   int           // scroll budget
	InitialWait time.Duration // first render settle
	SettleWait  time.Duration // per-scroll settle
	WaitVisible time.Duration // container wait budget
}

func (o *ListingOptions) setDefaults() {
	if o.Target <= 0 {
		o.Target = 300
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = 10
	}
	if o.InitialWait <= 0 {
		o.InitialWait = 3 * time.Second
	}
	if o.SettleWait <= 0 {
		o.SettleWait = 2 * time.Second
	}
	if o.WaitVisible <= 0 {
		o.WaitVisible = 10 * time.Second
	}
}

// collectListing drives the bounded scroll loop over an open category
// page. Each round enumerates the anchors currently in the DOM, parses
// the unseen ones, and either stops (target hit) or scrolls once more
// until the round budget runs out.
func collectListing(ctx context.Context, page ListingPage, categoryCode, categoryName string, opts ListingOptions, now func() time.Time) ([]models.ProductSnapshot, ScrollOutcome, error) {
	opts.setDefaults()

	if err := page.WaitVisible(ctx, listingContainerSelector, opts.WaitVisible); err != nil {
		return nil, OutcomeContainerNotFound, nil
	}
	page.Settle(ctx, opts.InitialWait)

	seen := make(map[string]bool)
	var out []models.ProductSnapshot

	for round := 0; round < opts.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return out, OutcomeBudgetExhausted, err
		}
		anchors, err := page.Elements(listingAnchorSelector)
		if err != nil {
			return out, OutcomeBudgetExhausted, fmt.Errorf("enumerate listing anchors: %w", err)
		}
		for _, a := range anchors {
			snap, ok := parseListingAnchor(a, categoryCode, categoryName, now())
			if !ok || seen[snap.ProductURL] {
				continue
			}
			seen[snap.ProductURL] = true
			out = append(out, snap)
			if len(out) >= opts.Target {
				return out, OutcomeTargetReached, nil
			}
		}
		ReportProgress(ctx, "Collected %d/%d products (scroll %d/%d)", len(out), opts.Target, round+1, opts.MaxRounds)
		if round == opts.MaxRounds-1 {
			break
		}
		if err := page.ScrollToBottom(); err != nil {
			return out, OutcomeBudgetExhausted, fmt.Errorf("scroll listing: %w", err)
		}
		page.Settle(ctx, opts.SettleWait)
	}
	return out, OutcomeBudgetExhausted, nil
}

var reviewCountPattern = regexp.MustCompile(`\(([0-9,]+)\)`)

// parseListingAnchor reads one product tile. Numeric garbage in any
// attribute rejects just this tile, never the round.
func parseListingAnchor(a Element, categoryCode, categoryName string, now time.Time) (models.ProductSnapshot, bool) {
	href, ok := a.Attribute("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return models.ProductSnapshot{}, false
	}
	if strings.HasPrefix(href, "/") {
		href = siteHost + href
	}

	goodsNo, err := attrInt(a, "data-item-id")
	if err != nil {
		return models.ProductSnapshot{}, false
	}
	sale, err := attrInt(a, "data-price")
	if err != nil {
		return models.ProductSnapshot{}, false
	}
	normal, err := attrInt(a, "data-original-price")
	if err != nil {
		return models.ProductSnapshot{}, false
	}
	rate, err := attrFloat(a, "data-discount-rate")
	if err != nil {
		return models.ProductSnapshot{}, false
	}

	// A zero original with a live discount means the tile only carries
	// the sale price; recover the original from the rate.
	if normal == 0 && rate > 0 && sale > 0 {
		normal = int(math.Round(float64(sale) / (1 - rate/100)))
	}

	// data-brand-id carries the display brand, data-item-brand the
	// romanized one.
	brand := attrOr(a, "data-brand-id", "Unknown")
	brandEnglish := attrOr(a, "data-item-brand", "")

	name := "Unknown"
	image := ""
	if imgs, err := a.Elements("img"); err == nil && len(imgs) > 0 {
		if alt, ok := imgs[0].Attribute("alt"); ok && strings.TrimSpace(alt) != "" {
			name = strings.TrimSpace(alt)
		}
		if src, ok := imgs[0].Attribute("src"); ok {
			image = normalizeImageURL(src)
		}
	}

	count, score := reviewFromSpans(a)

	snap := models.ProductSnapshot{
		ProductURL:   href,
		GoodsNo:      int64(goodsNo),
		Name:         name,
		Brand:        brand,
		BrandEnglish: brandEnglish,
		Category:     categoryName,
		CategoryCode: categoryCode,
		ImageURL:     image,
		NormalPrice:  normal,
		SalePrice:    sale,
		DiscountRate: rate,
		IsSale:       rate > 0,
		StockStatus:  stockInStock,
		ReviewCount:  count,
		ReviewScore:  score,
		Gender:       genderUnisex,
		ScrapedAt:    now,
		Strategy:     "headless",
	}
	normalizePrices(&snap)
	return snap, true
}

// reviewFromSpans scans the tile's rating spans. "(1,234)" is the review
// count; a bare 0-5 decimal is the satisfaction score. Both best-effort.
func reviewFromSpans(a Element) (count int, score float64) {
	spans, err := a.Elements(listingReviewSelector)
	if err != nil {
		return 0, 0
	}
	for _, s := range spans {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			continue
		}
		if m := reviewCountPattern.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				count = n
			}
			continue
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil && f >= 0 && f <= 5 {
			score = f
		}
	}
	return count, score
}

// attrInt reads a numeric dataset attribute. Absent counts as zero;
// present but non-numeric is an error so the caller can skip the tile.
func attrInt(e Element, name string) (int, error) {
	v, ok := e.Attribute(name)
	if !ok || strings.TrimSpace(v) == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(v), ",", ""))
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", name, err)
	}
	return n, nil
}

func attrFloat(e Element, name string) (float64, error) {
	v, ok := e.Attribute(name)
	if !ok || strings.TrimSpace(v) == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", name, err)
	}
	return f, nil
}

func attrOr(e Element, name, fallback string) string {
	if v, ok := e.Attribute(name); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
