package stealth

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// StealthTransport is an http.RoundTripper that applies the full stealth pipeline:
// Fingerprint → RobotsCheck → RateLimiter → HumanDelay → Proxy → Send
type StealthTransport struct {
	Base        http.RoundTripper
	Robots      *RobotsChecker
	Fingerprint *FingerprintPool
	Proxy       *ProxyRotator
	Delay       *HumanDelay
	RateLimiter *rate.Limiter
}

func (t *StealthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not mutate the caller's request.
	req = req.Clone(req.Context())

	// 1. Apply fingerprint (UA + headers)
	fp := t.Fingerprint.Next()
	fp.Apply(req)

	// 2. Check robots.txt
	var crawlDelay time.Duration
	if t.Robots != nil {
		allowed, err := t.Robots.IsAllowed(req.Context(), fp.UserAgent, req.URL.String())
		if err == nil && !allowed {
			return nil, fmt.Errorf("blocked by robots.txt: %s", req.URL.Path)
		}
		crawlDelay = t.Robots.CrawlDelay(req.Context(), fp.UserAgent, req.URL.Scheme+"://"+req.URL.Host)
	}

	// 3. Wait for rate limiter token
	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	// 4. Apply human-like delay. A robots.txt Crawl-delay wins when the
	// site asks for a longer pause than the profile would pick.
	var wait time.Duration
	if t.Delay != nil {
		wait = t.Delay.RequestDelay()
	}
	if crawlDelay > wait {
		wait = crawlDelay
	}
	if wait > 0 {
		if err := sleepCtx(req.Context(), wait); err != nil {
			return nil, fmt.Errorf("delay: %w", err)
		}
	}

	// 5. Route through proxy if configured
	transport := t.Base
	if t.Proxy != nil {
		transport = t.Proxy.Next()
	}
	if transport == nil {
		transport = http.DefaultTransport
	}

	return transport.RoundTrip(req)
}
