package httputil

import "net/http"

// BrowserHeaders returns common browser-like headers for Musinsa page
// fetches. The Korean Accept-Language matters: some page variants
// localize the price markup away when it is missing.
func BrowserHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Sec-Fetch-Site", "none")
	return h
}

// PageReferer returns the Referer value sent when navigating from a
// category listing to a product page.
func PageReferer(categoryCode string) string {
	if categoryCode == "" {
		return "https://www.musinsa.com/"
	}
	return "https://www.musinsa.com/category/" + categoryCode
}
