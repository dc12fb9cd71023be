package stealth

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// ProxyRotator cycles outbound requests through a proxy pool in
// round-robin order. A nil rotator routes directly.
type ProxyRotator struct {
	transports []http.RoundTripper
	mu         sync.Mutex
	idx        int
}

// NewProxyRotator parses a comma-separated proxy URL list, as
// configured via MSTRACK_PROXIES. Entries that do not parse as a URL
// with a host are dropped; with no usable entry the rotator is nil.
func NewProxyRotator(raw string) *ProxyRotator {
	var transports []http.RoundTripper
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		proxyURL, err := url.Parse(entry)
		if err != nil || proxyURL.Host == "" {
			continue
		}
		transports = append(transports, &http.Transport{
			Proxy:             http.ProxyURL(proxyURL),
			DisableKeepAlives: true,
		})
	}
	if len(transports) == 0 {
		return nil
	}
	return &ProxyRotator{transports: transports}
}

// Next returns the next proxy transport in round-robin order.
func (p *ProxyRotator) Next() http.RoundTripper {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.transports[p.idx%len(p.transports)]
	p.idx++
	return t
}

// Size reports how many proxies are in the rotation.
func (p *ProxyRotator) Size() int {
	if p == nil {
		return 0
	}
	return len(p.transports)
}
