package musinsa

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Curated category table, used at startup and whenever the dynamic fetch
// is unavailable. Codes are the site's d_cat_cd values.
var defaultCategories = map[string]string{
	"상의":   "001",
	"아우터":  "002",
	"하의":   "003",
	"모자":   "007",
	"양말":   "008",
	"언더웨어": "009",
	"악세서리": "010",
	"신발":   "022",
	"가방":   "025",
}

// CategoryURL builds the popularity-sorted listing URL for a category code.
func CategoryURL(code string) string {
	return fmt.Sprintf("%s/category/%s?d_cat_cd=%s&brand=&list_kind=small&sort=pop", siteHost, code, code)
}

// codeSnapshot is one cached fetch of the category table.
type codeSnapshot struct {
	codes     map[string]string
	fetchedAt time.Time
}

// stale reports whether the snapshot is older than ttl at the given
// instant. A zero snapshot is always stale.
func (s codeSnapshot) stale(now time.Time, ttl time.Duration) bool {
	if s.codes == nil {
		return true
	}
	return now.Sub(s.fetchedAt) > ttl
}

// CategoryFetchFunc retrieves the live name→code table.
type CategoryFetchFunc func(ctx context.Context) (map[string]string, error)

// Registry resolves category display names to listing codes. The table
// is cached for a freshness window so repeated lookups within a crawl do
// not refetch; past the window one refetch replaces the cache
// latest-wins. A nil or failing fetch falls back to the curated table.
type Registry struct {
	mu    sync.RWMutex
	fetch CategoryFetchFunc
	ttl   time.Duration
	now   func() time.Time
	cur   codeSnapshot
}

func NewRegistry(fetch CategoryFetchFunc, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Registry{fetch: fetch, ttl: ttl, now: time.Now}
}

// Categories returns the current name→code table.
func (r *Registry) Categories(ctx context.Context) map[string]string {
	r.mu.RLock()
	cur := r.cur
	r.mu.RUnlock()
	if !cur.stale(r.now(), r.ttl) {
		return cur.codes
	}

	codes := copyCategories(defaultCategories)
	if r.fetch != nil {
		if fetched, err := r.fetch(ctx); err == nil && len(fetched) > 0 {
			codes = fetched
		}
	}

	r.mu.Lock()
	r.cur = codeSnapshot{codes: codes, fetchedAt: r.now()}
	r.mu.Unlock()
	return codes
}

// CodeFor resolves a display name to its listing code.
func (r *Registry) CodeFor(ctx context.Context, name string) (string, bool) {
	code, ok := r.Categories(ctx)[name]
	return code, ok
}

// NameFor resolves a listing code back to its display name, or ""
// when the code is unknown.
func (r *Registry) NameFor(ctx context.Context, code string) string {
	for name, c := range r.Categories(ctx) {
		if c == code {
			return name
		}
	}
	return ""
}

// ValidCode reports whether code is a known listing code.
func (r *Registry) ValidCode(ctx context.Context, code string) bool {
	return r.NameFor(ctx, code) != ""
}

// Names returns the known display names sorted by code, so CLI and API
// listings come out in the site's catalog order.
func (r *Registry) Names(ctx context.Context) []string {
	codes := r.Categories(ctx)
	names := make([]string, 0, len(codes))
	for name := range codes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return codes[names[i]] < codes[names[j]]
	})
	return names
}

func copyCategories(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
