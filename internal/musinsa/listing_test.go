package musinsa

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeElement struct {
	attrs    map[string]string
	text     string
	children map[string][]Element
}

func (e *fakeElement) Attribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *fakeElement) Text() string { return e.text }

func (e *fakeElement) Elements(selector string) ([]Element, error) {
	return e.children[selector], nil
}

// tile builds a listing anchor the way the category grid renders one.
func tile(id int, sale, original int, rate string) *fakeElement {
	return &fakeElement{
		attrs: map[string]string{
			"href":                fmt.Sprintf("/products/%d", id),
			"data-item-id":        fmt.Sprintf("%d", id),
			"data-price":          fmt.Sprintf("%d", sale),
			"data-original-price": fmt.Sprintf("%d", original),
			"data-discount-rate":  rate,
			"data-brand-id":       "무신사스탠다드",
			"data-item-brand":     "MUSINSA STANDARD",
		},
		children: map[string][]Element{
			"img": {&fakeElement{attrs: map[string]string{
				"alt": fmt.Sprintf("상품 %d", id),
				"src": fmt.Sprintf("//image.msscdn.net/goods/%d.jpg", id),
			}}},
			listingReviewSelector: {
				&fakeElement{text: "4.9"},
				&fakeElement{text: "(2,481)"},
			},
		},
	}
}

type fakePage struct {
	containerMissing bool
	rounds           [][]Element
	round            int
	scrolls          int
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if p.containerMissing {
		return errors.New("element not found")
	}
	return nil
}

func (p *fakePage) Elements(selector string) ([]Element, error) {
	i := p.round
	if i >= len(p.rounds) {
		i = len(p.rounds) - 1
	}
	return p.rounds[i], nil
}

func (p *fakePage) ScrollToBottom() error {
	p.scrolls++
	if p.round < len(p.rounds)-1 {
		p.round++
	}
	return nil
}

func (p *fakePage) Settle(ctx context.Context, d time.Duration) {}

func fixedNow() time.Time { return time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC) }

func TestCollectListingTargetReached(t *testing.T) {
	// Two rounds of content; the second repeats the first tile to prove
	// URL dedup, then adds new ones.
	page := &fakePage{
		rounds: [][]Element{
			{tile(1, 10000, 20000, "50"), tile(2, 5000, 0, "0")},
			{tile(1, 10000, 20000, "50"), tile(3, 7000, 0, "30"), tile(4, 9900, 9900, "0")},
		},
	}

	opts := ListingOptions{Target: 3, MaxRounds: 10, InitialWait: time.Millisecond, SettleWait: time.Millisecond, WaitVisible: time.Millisecond}
	products, outcome, err := collectListing(context.Background(), page, "001", "상의", opts, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, OutcomeTargetReached, outcome)
	require.Len(t, products, 3)
	assert.Equal(t, "https://www.musinsa.com/products/1", products[0].ProductURL)
	assert.Equal(t, "https://www.musinsa.com/products/2", products[1].ProductURL)
	assert.Equal(t, "https://www.musinsa.com/products/3", products[2].ProductURL)
	assert.Equal(t, "상의", products[0].Category)
	assert.Equal(t, "001", products[0].CategoryCode)
}

func TestCollectListingBudgetExhausted(t *testing.T) {
	page := &fakePage{
		rounds: [][]Element{{tile(1, 10000, 20000, "50"), tile(2, 5000, 0, "0")}},
	}

	opts := ListingOptions{Target: 50, MaxRounds: 4, InitialWait: time.Millisecond, SettleWait: time.Millisecond, WaitVisible: time.Millisecond}
	products, outcome, err := collectListing(context.Background(), page, "001", "상의", opts, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, OutcomeBudgetExhausted, outcome)
	assert.Len(t, products, 2)
	// The last round never scrolls; the budget bounds scroll operations.
	assert.Equal(t, 3, page.scrolls)
}

func TestCollectListingContainerNotFound(t *testing.T) {
	page := &fakePage{containerMissing: true}

	opts := ListingOptions{Target: 10, MaxRounds: 3, InitialWait: time.Millisecond, SettleWait: time.Millisecond, WaitVisible: time.Millisecond}
	products, outcome, err := collectListing(context.Background(), page, "001", "상의", opts, fixedNow)

	require.NoError(t, err)
	assert.Equal(t, OutcomeContainerNotFound, outcome)
	assert.Empty(t, products)
}

func TestCollectListingSkipsBrokenTile(t *testing.T) {
	broken := tile(9, 0, 0, "0")
	broken.attrs["data-price"] = "abc"

	page := &fakePage{
		rounds: [][]Element{{broken, tile(2, 5000, 0, "0")}},
	}

	opts := ListingOptions{Target: 10, MaxRounds: 1, InitialWait: time.Millisecond, SettleWait: time.Millisecond, WaitVisible: time.Millisecond}
	products, outcome, err := collectListing(context.Background(), page, "001", "상의", opts, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, OutcomeBudgetExhausted, outcome)
	require.Len(t, products, 1)
	assert.Equal(t, "https://www.musinsa.com/products/2", products[0].ProductURL)
}

func TestParseListingAnchor(t *testing.T) {
	now := fixedNow()

	t.Run("full tile", func(t *testing.T) {
		snap, ok := parseListingAnchor(tile(11, 41300, 59000, "30"), "001", "상의", now)
		require.True(t, ok)

		assert.Equal(t, "https://www.musinsa.com/products/11", snap.ProductURL)
		assert.Equal(t, int64(11), snap.GoodsNo)
		assert.Equal(t, "상품 11", snap.Name)
		assert.Equal(t, "무신사스탠다드", snap.Brand)
		assert.Equal(t, "MUSINSA STANDARD", snap.BrandEnglish)
		assert.Equal(t, 59000, snap.NormalPrice)
		assert.Equal(t, 41300, snap.SalePrice)
		assert.InDelta(t, 30, snap.DiscountRate, 0.001)
		assert.True(t, snap.IsSale)
		assert.Equal(t, "https://image.msscdn.net/goods/11.jpg", snap.ImageURL)
		assert.Equal(t, 2481, snap.ReviewCount)
		assert.InDelta(t, 4.9, snap.ReviewScore, 0.001)
		assert.Equal(t, now, snap.ScrapedAt)
	})

	t.Run("original recovered from discount rate", func(t *testing.T) {
		snap, ok := parseListingAnchor(tile(12, 7000, 0, "30"), "001", "상의", now)
		require.True(t, ok)
		// 7000 / 0.7 = 10000
		assert.Equal(t, 10000, snap.NormalPrice)
		assert.Equal(t, 7000, snap.SalePrice)
	})

	t.Run("no discount means single price", func(t *testing.T) {
		snap, ok := parseListingAnchor(tile(13, 5000, 0, "0"), "001", "상의", now)
		require.True(t, ok)
		assert.Equal(t, 5000, snap.NormalPrice)
		assert.Equal(t, 5000, snap.SalePrice)
		assert.False(t, snap.IsSale)
	})

	t.Run("href required", func(t *testing.T) {
		el := tile(14, 5000, 0, "0")
		delete(el.attrs, "href")
		_, ok := parseListingAnchor(el, "001", "상의", now)
		assert.False(t, ok)
	})

	t.Run("missing numeric attributes default to zero", func(t *testing.T) {
		el := &fakeElement{attrs: map[string]string{"href": "/products/15"}}
		snap, ok := parseListingAnchor(el, "001", "상의", now)
		require.True(t, ok)
		assert.Zero(t, snap.SalePrice)
		assert.Equal(t, "Unknown", snap.Name)
		assert.Equal(t, "Unknown", snap.Brand)
	})

	t.Run("garbage numeric attribute rejects the tile", func(t *testing.T) {
		el := tile(16, 5000, 0, "0")
		el.attrs["data-item-id"] = "16a"
		_, ok := parseListingAnchor(el, "001", "상의", now)
		assert.False(t, ok)
	})
}
