package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsu-lab/mstrack/internal/models"
	"github.com/minsu-lab/mstrack/internal/musinsa"
)

func TestRefreshAllAppendsPoints(t *testing.T) {
	store := newFakeStore()
	p1 := store.seed(models.Product{
		ProductURL:  "https://www.musinsa.com/products/1",
		Name:        "오래된 이름",
		ReviewCount: 3,
		IsActive:    true,
	})
	p2 := store.seed(models.Product{
		ProductURL: "https://www.musinsa.com/products/2",
		Name:       "상품 2",
		IsActive:   true,
	})

	crawler := newFakeCrawler()
	fresh := testSnapshot(p1.ProductURL, "새로 고친 이름", 30000, 24000)
	fresh.ReviewCount = 45
	crawler.details[p1.ProductURL] = fresh
	crawler.details[p2.ProductURL] = testSnapshot(p2.ProductURL, "상품 2", 15000, 15000)

	result, err := NewRefresher(store, crawler, nil, nil).RefreshAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 0, result.Errors)
	require.Len(t, result.Results, 2)
	assert.Equal(t, "success", result.Results[0].Status)
	assert.Equal(t, 24000, result.Results[0].Price)

	require.Len(t, store.pointsFor(p1.ID), 1)
	require.Len(t, store.pointsFor(p2.ID), 1)

	// Descriptive fields are refreshed in place.
	updated, _ := store.FindByURL(p1.ProductURL)
	assert.Equal(t, "새로 고친 이름", updated.Name)
	assert.Equal(t, 45, updated.ReviewCount)
}

func TestRefreshAppendsEvenWhenPriceUnchanged(t *testing.T) {
	store := newFakeStore()
	p := store.seed(models.Product{
		ProductURL: "https://www.musinsa.com/products/1",
		Name:       "상품",
		IsActive:   true,
	})
	snap := testSnapshot(p.ProductURL, "상품", 10000, 10000)
	store.points = append(store.points, models.PricePointFromSnapshot(p.ID, snap))

	crawler := newFakeCrawler()
	crawler.details[p.ProductURL] = snap

	_, err := NewRefresher(store, crawler, nil, nil).RefreshAll(context.Background())
	require.NoError(t, err)

	// The series records observations, not changes.
	assert.Len(t, store.pointsFor(p.ID), 2)
}

func TestRefreshAllFailureIsolation(t *testing.T) {
	store := newFakeStore()
	ok := store.seed(models.Product{ProductURL: "https://www.musinsa.com/products/1", Name: "정상", IsActive: true})
	gone := store.seed(models.Product{ProductURL: "https://www.musinsa.com/products/2", Name: "내려간 상품", IsActive: true})
	flaky := store.seed(models.Product{ProductURL: "https://www.musinsa.com/products/3", Name: "네트워크 불안정", IsActive: true})

	crawler := newFakeCrawler()
	crawler.details[ok.ProductURL] = testSnapshot(ok.ProductURL, "정상", 20000, 17000)
	crawler.detailErr[gone.ProductURL] = musinsa.ErrNoStateScript
	crawler.detailErr[flaky.ProductURL] = errors.New("connection reset")

	result, err := NewRefresher(store, crawler, nil, nil).RefreshAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 2, result.Errors)

	statuses := map[uint]string{}
	for _, pr := range result.Results {
		statuses[pr.ProductID] = pr.Status
	}
	assert.Equal(t, "success", statuses[ok.ID])
	assert.Equal(t, "failed", statuses[gone.ID], "extraction failures are expected page states")
	assert.Equal(t, "error", statuses[flaky.ID])

	assert.Len(t, store.pointsFor(ok.ID), 1)
	assert.Empty(t, store.pointsFor(gone.ID))
	assert.Empty(t, store.pointsFor(flaky.ID))
}

func TestRefreshAllSkipsInactive(t *testing.T) {
	store := newFakeStore()
	store.seed(models.Product{ProductURL: "https://www.musinsa.com/products/1", Name: "비활성", IsActive: false})

	crawler := newFakeCrawler()
	result, err := NewRefresher(store, crawler, nil, nil).RefreshAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Total)
	assert.Empty(t, crawler.detailCalls)
}

func TestRefreshOne(t *testing.T) {
	store := newFakeStore()
	p := store.seed(models.Product{
		ProductURL: "https://www.musinsa.com/products/5",
		Name:       "수동 갱신 대상",
		IsActive:   true,
	})

	crawler := newFakeCrawler()
	snap := testSnapshot(p.ProductURL, "수동 갱신 대상", 40000, 32000)
	snap.StockStatus = "품절"
	snap.IsSoldOut = true
	crawler.details[p.ProductURL] = snap

	result, err := NewRefresher(store, crawler, nil, nil).RefreshOne(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, p.ID, result.ProductID)
	assert.Equal(t, 32000, result.Price)
	assert.Equal(t, "품절", result.StockStatus)
	assert.Equal(t, testTime, result.RecordedAt)

	points := store.pointsFor(p.ID)
	require.Len(t, points, 1)
	assert.True(t, points[0].IsSoldOut)
}

func TestRefreshOneNotFound(t *testing.T) {
	_, err := NewRefresher(newFakeStore(), newFakeCrawler(), nil, nil).RefreshOne(context.Background(), 99)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
