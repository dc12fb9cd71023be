package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsu-lab/mstrack/internal/models"
	"github.com/minsu-lab/mstrack/internal/musinsa"
)

func newTestReconciler(store *fakeStore, crawler *fakeCrawler) *Reconciler {
	registry := musinsa.NewRegistry(nil, time.Hour)
	return NewReconciler(store, crawler, registry, nil, nil)
}

func TestRegisterNewProduct(t *testing.T) {
	store := newFakeStore()
	crawler := newFakeCrawler()
	url := "https://www.musinsa.com/products/4216556"
	crawler.details[url] = testSnapshot(url, "베이직 반팔 티셔츠", 29000, 19900)

	product, err := newTestReconciler(store, crawler).Register(context.Background(), url)
	require.NoError(t, err)
	require.NotNil(t, product)

	assert.NotZero(t, product.ID)
	assert.Equal(t, "베이직 반팔 티셔츠", product.Name)
	assert.Equal(t, "무신사 스탠다드", product.Brand)
	assert.True(t, product.IsActive)

	points := store.pointsFor(product.ID)
	require.Len(t, points, 1)
	assert.Equal(t, 29000, points[0].NormalPrice)
	assert.Equal(t, 19900, points[0].SalePrice)
	assert.Equal(t, testTime, points[0].RecordedAt)
}

func TestRegisterDuplicateURL(t *testing.T) {
	store := newFakeStore()
	crawler := newFakeCrawler()
	url := "https://www.musinsa.com/products/1111"
	store.seed(models.Product{ProductURL: url, Name: "이미 등록된 상품", IsActive: true})

	_, err := newTestReconciler(store, crawler).Register(context.Background(), url)
	assert.ErrorIs(t, err, ErrAlreadyTracked)
	assert.Empty(t, crawler.detailCalls, "duplicate should be rejected before crawling")
}

func TestRegisterCrawlFailure(t *testing.T) {
	store := newFakeStore()
	crawler := newFakeCrawler()
	url := "https://www.musinsa.com/products/2222"
	crawler.detailErr[url] = musinsa.ErrMissingCoreFields

	_, err := newTestReconciler(store, crawler).Register(context.Background(), url)
	assert.ErrorIs(t, err, musinsa.ErrMissingCoreFields)
	assert.Empty(t, store.byURL)
	assert.Empty(t, store.points)
}

func TestSaveBatchSkipsExisting(t *testing.T) {
	store := newFakeStore()
	existing := store.seed(models.Product{
		ProductURL: "https://www.musinsa.com/products/1",
		Name:       "원래 이름",
		IsActive:   true,
	})

	batch := map[string][]models.ProductSnapshot{
		"001": {
			testSnapshot("https://www.musinsa.com/products/1", "새 이름", 10000, 9000),
			testSnapshot("https://www.musinsa.com/products/2", "상품 2", 20000, 18000),
			testSnapshot("https://www.musinsa.com/products/3", "상품 3", 30000, 30000),
		},
	}

	result, err := newTestReconciler(store, newFakeCrawler()).SaveBatch(batch)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalCrawled)
	assert.Equal(t, 2, result.TotalSaved)
	assert.Equal(t, 1, result.TotalSkipped)
	assert.Equal(t, 0, result.TotalErrors)

	// Existing rows are never touched by reconciliation.
	assert.Equal(t, "원래 이름", store.byURL[existing.ProductURL].Name)
	assert.Empty(t, store.pointsFor(existing.ID))

	saved, err := store.FindByURL("https://www.musinsa.com/products/2")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Len(t, store.pointsFor(saved.ID), 1)
}

func TestSaveBatchItemIsolation(t *testing.T) {
	store := newFakeStore()
	store.createErr["https://www.musinsa.com/products/2"] = errors.New("insert blew up")

	batch := map[string][]models.ProductSnapshot{
		"002": {
			testSnapshot("https://www.musinsa.com/products/1", "상품 1", 10000, 9000),
			testSnapshot("https://www.musinsa.com/products/2", "상품 2", 20000, 18000),
			testSnapshot("https://www.musinsa.com/products/3", "상품 3", 30000, 27000),
			{Name: "URL 없는 상품", NormalPrice: 5000, SalePrice: 5000, ScrapedAt: testTime},
		},
	}

	result, err := newTestReconciler(store, newFakeCrawler()).SaveBatch(batch)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalCrawled)
	assert.Equal(t, 2, result.TotalSaved)
	assert.Equal(t, 0, result.TotalSkipped)
	assert.Equal(t, 2, result.TotalErrors)

	ok1, _ := store.FindByURL("https://www.musinsa.com/products/1")
	bad, _ := store.FindByURL("https://www.musinsa.com/products/2")
	ok3, _ := store.FindByURL("https://www.musinsa.com/products/3")
	assert.NotNil(t, ok1)
	assert.Nil(t, bad, "failed item must roll back alone")
	assert.NotNil(t, ok3)
	assert.Len(t, store.points, 2)
}

func TestSaveBatchIdempotent(t *testing.T) {
	store := newFakeStore()
	batch := map[string][]models.ProductSnapshot{
		"003": {
			testSnapshot("https://www.musinsa.com/products/10", "상품 10", 50000, 39000),
			testSnapshot("https://www.musinsa.com/products/11", "상품 11", 60000, 60000),
		},
	}
	rec := newTestReconciler(store, newFakeCrawler())

	first, err := rec.SaveBatch(batch)
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalSaved)

	second, err := rec.SaveBatch(batch)
	require.NoError(t, err)
	assert.Equal(t, 0, second.TotalSaved)
	assert.Equal(t, 2, second.TotalSkipped)

	assert.Len(t, store.byURL, 2)
	assert.Len(t, store.points, 2, "rerun must not append points to skipped products")
}

func TestSaveBatchCrossCategoryDuplicate(t *testing.T) {
	store := newFakeStore()
	url := "https://www.musinsa.com/products/77"
	batch := map[string][]models.ProductSnapshot{
		"001": {testSnapshot(url, "겸용 상품", 10000, 9000)},
		"002": {testSnapshot(url, "겸용 상품", 10000, 9000)},
	}

	result, err := newTestReconciler(store, newFakeCrawler()).SaveBatch(batch)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalSaved)
	assert.Equal(t, 1, result.TotalSkipped)
	assert.Len(t, store.byURL, 1)
	assert.Len(t, store.points, 1)
}

func TestCrawlCategoriesInvalidCode(t *testing.T) {
	rec := newTestReconciler(newFakeStore(), newFakeCrawler())

	_, err := rec.CrawlCategories(context.Background(), []string{"001", "999"}, 10, true)
	var invalid *InvalidCategoryError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"999"}, invalid.Codes)
}

func TestCrawlCategoriesWithoutSave(t *testing.T) {
	store := newFakeStore()
	crawler := newFakeCrawler()
	crawler.listings["001"] = &musinsa.ListingResult{
		Category:     "상의",
		CategoryCode: "001",
		Products: []models.ProductSnapshot{
			testSnapshot("https://www.musinsa.com/products/1", "상품 1", 10000, 9000),
		},
	}

	result, err := newTestReconciler(store, crawler).CrawlCategories(context.Background(), []string{"001"}, 10, false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalCrawled)
	assert.Equal(t, 0, result.TotalSaved)
	require.Contains(t, result.Raw, "001")
	assert.Len(t, result.Raw["001"], 1)
	assert.Empty(t, store.byURL, "save=false must not write")
}

func TestCrawlCategoriesPartialFailure(t *testing.T) {
	store := newFakeStore()
	crawler := newFakeCrawler()
	crawler.listings["001"] = &musinsa.ListingResult{
		Category:     "상의",
		CategoryCode: "001",
		Products: []models.ProductSnapshot{
			testSnapshot("https://www.musinsa.com/products/1", "상품 1", 10000, 9000),
		},
	}
	crawler.listingErr["002"] = errors.New("browser crashed")

	result, err := newTestReconciler(store, crawler).CrawlCategories(context.Background(), []string{"001", "002"}, 10, true)
	require.NoError(t, err, "one failed category must not fail the batch")

	assert.Equal(t, 1, result.TotalSaved)
	assert.Contains(t, result.Categories["002"].Error, "browser crashed")
	assert.Equal(t, 0, result.Categories["002"].Crawled)
}
