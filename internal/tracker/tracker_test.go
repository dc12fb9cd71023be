package tracker

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/minsu-lab/mstrack/internal/models"
	"github.com/minsu-lab/mstrack/internal/musinsa"
)

var testTime = time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)

// fakeStore keeps products and price points in memory. WithTx snapshots
// the state and restores it when the closure fails, which mirrors the
// savepoint behavior of the real store closely enough for the
// reconciliation tests.
type fakeStore struct {
	byURL     map[string]models.Product
	points    []models.PricePoint
	nextID    uint
	createErr map[string]error
	saveCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byURL:     make(map[string]models.Product),
		createErr: make(map[string]error),
	}
}

func (f *fakeStore) seed(p models.Product) models.Product {
	f.nextID++
	p.ID = f.nextID
	f.byURL[p.ProductURL] = p
	return p
}

func (f *fakeStore) ExistingURLs(urls []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, u := range urls {
		if _, ok := f.byURL[u]; ok {
			out[u] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeStore) FindByURL(url string) (*models.Product, error) {
	if p, ok := f.byURL[url]; ok {
		cp := p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) ByID(id uint) (*models.Product, error) {
	for _, p := range f.byURL {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Active() ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.byURL {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateProduct(p *models.Product) error {
	if err := f.createErr[p.ProductURL]; err != nil {
		return err
	}
	if _, ok := f.byURL[p.ProductURL]; ok {
		return gorm.ErrDuplicatedKey
	}
	f.nextID++
	p.ID = f.nextID
	f.byURL[p.ProductURL] = *p
	return nil
}

func (f *fakeStore) CreatePricePoint(pt *models.PricePoint) error {
	f.points = append(f.points, *pt)
	return nil
}

func (f *fakeStore) SaveProduct(p *models.Product) error {
	f.saveCalls++
	f.byURL[p.ProductURL] = *p
	return nil
}

func (f *fakeStore) PrunePointsBefore(cutoff time.Time) (int64, error) {
	var kept []models.PricePoint
	var deleted int64
	for _, pt := range f.points {
		if pt.RecordedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, pt)
	}
	f.points = kept
	return deleted, nil
}

func (f *fakeStore) WithTx(fn func(tx Store) error) error {
	prevURL := make(map[string]models.Product, len(f.byURL))
	for k, v := range f.byURL {
		prevURL[k] = v
	}
	prevPoints := append([]models.PricePoint(nil), f.points...)
	prevID := f.nextID

	if err := fn(f); err != nil {
		f.byURL = prevURL
		f.points = prevPoints
		f.nextID = prevID
		return err
	}
	return nil
}

func (f *fakeStore) pointsFor(productID uint) []models.PricePoint {
	var out []models.PricePoint
	for _, pt := range f.points {
		if pt.ProductID == productID {
			out = append(out, pt)
		}
	}
	return out
}

type fakeCrawler struct {
	details     map[string]models.ProductSnapshot
	detailErr   map[string]error
	listings    map[string]*musinsa.ListingResult
	listingErr  map[string]error
	detailCalls []string
}

func newFakeCrawler() *fakeCrawler {
	return &fakeCrawler{
		details:    make(map[string]models.ProductSnapshot),
		detailErr:  make(map[string]error),
		listings:   make(map[string]*musinsa.ListingResult),
		listingErr: make(map[string]error),
	}
}

func (f *fakeCrawler) ProductDetail(ctx context.Context, url string) (*models.ProductSnapshot, error) {
	f.detailCalls = append(f.detailCalls, url)
	if err := f.detailErr[url]; err != nil {
		return nil, err
	}
	if s, ok := f.details[url]; ok {
		cp := s
		return &cp, nil
	}
	return nil, musinsa.ErrNoStateScript
}

func (f *fakeCrawler) CategoryListing(ctx context.Context, code string, target int) (*musinsa.ListingResult, error) {
	if err := f.listingErr[code]; err != nil {
		return nil, err
	}
	if l, ok := f.listings[code]; ok {
		return l, nil
	}
	return &musinsa.ListingResult{CategoryCode: code}, nil
}

func testSnapshot(url, name string, normal, sale int) models.ProductSnapshot {
	return models.ProductSnapshot{
		ProductURL:  url,
		Name:        name,
		Brand:       "무신사 스탠다드",
		ImageURL:    "https://image.msscdn.net/thumbnails/goods.jpg",
		Category:    "상의",
		NormalPrice: normal,
		SalePrice:   sale,
		IsSale:      sale < normal,
		StockStatus: "판매중",
		ReviewCount: 12,
		ReviewScore: 4.5,
		ScrapedAt:   testTime,
	}
}
