package stealth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

const (
	robotsTTL        = 1 * time.Hour
	robotsFailureTTL = 5 * time.Minute
)

// RobotsChecker caches robots.txt rules per origin and answers whether
// a crawl is allowed. Rules are refetched after robotsTTL; a failed
// fetch is cached as allow-all for the shorter robotsFailureTTL.
type RobotsChecker struct {
	mu      sync.RWMutex
	cache   map[string]robotsEntry
	client  *http.Client
	enabled bool
}

// robotsEntry is a cached parse result. A nil data means the last fetch
// failed and everything is allowed until expiry.
type robotsEntry struct {
	data    *robotstxt.RobotsData
	expires time.Time
}

// NewRobotsChecker creates a robots.txt checker. When enabled is false
// every request is allowed and nothing is fetched.
func NewRobotsChecker(client *http.Client, enabled bool) *RobotsChecker {
	return &RobotsChecker{
		cache:   make(map[string]robotsEntry),
		client:  client,
		enabled: enabled,
	}
}

// IsAllowed reports whether userAgent may fetch rawURL.
func (r *RobotsChecker) IsAllowed(ctx context.Context, userAgent, rawURL string) (bool, error) {
	if !r.enabled {
		return true, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false, err
	}

	data := r.robotsFor(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return true, nil
	}
	return data.FindGroup(userAgent).Test(u.Path), nil
}

// CrawlDelay returns the crawl delay robots.txt sets for the user
// agent, or zero when none is set.
func (r *RobotsChecker) CrawlDelay(ctx context.Context, userAgent, origin string) time.Duration {
	if !r.enabled {
		return 0
	}

	data := r.robotsFor(ctx, origin)
	if data == nil {
		return 0
	}
	return data.FindGroup(userAgent).CrawlDelay
}

// robotsFor returns the parsed rules for an origin, fetching and
// caching them as needed.
func (r *RobotsChecker) robotsFor(ctx context.Context, origin string) *robotstxt.RobotsData {
	r.mu.RLock()
	entry, ok := r.cache[origin]
	r.mu.RUnlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.data
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if entry, ok := r.cache[origin]; ok && time.Now().Before(entry.expires) {
		return entry.data
	}

	data, err := r.fetch(ctx, origin)
	entry = robotsEntry{data: data, expires: time.Now().Add(robotsTTL)}
	if err != nil {
		entry = robotsEntry{expires: time.Now().Add(robotsFailureTTL)}
	}
	r.cache[origin] = entry
	return entry.data
}

func (r *RobotsChecker) fetch(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	// FromResponse folds in the status code: 4xx allows everything,
	// 5xx disallows everything.
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}
