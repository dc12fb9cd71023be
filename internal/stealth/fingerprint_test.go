package stealth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintPoolCycles(t *testing.T) {
	pool := NewFingerprintPool()
	n := len(defaultFingerprints())

	first := pool.Next()
	for i := 1; i < n; i++ {
		pool.Next()
	}
	assert.Equal(t, first.UserAgent, pool.Next().UserAgent)
}

func TestFingerprintApplyKeepsCallerHeaders(t *testing.T) {
	fp := NewFingerprintPool().Next()
	req := httptest.NewRequest(http.MethodGet, "https://www.musinsa.com/", nil)
	req.Header.Set("Accept-Language", "en-US")

	fp.Apply(req)

	assert.Equal(t, fp.UserAgent, req.Header.Get("User-Agent"))
	assert.Equal(t, "en-US", req.Header.Get("Accept-Language"))
	assert.NotEmpty(t, req.Header.Get("Accept"))
}

func TestFingerprintsCarryKoreanLocale(t *testing.T) {
	for _, fp := range defaultFingerprints() {
		assert.NotEmpty(t, fp.UserAgent)
		lang := fp.Headers.Get("Accept-Language")
		assert.True(t, strings.HasPrefix(lang, "ko-KR"), "fingerprint %q sends %q", fp.UserAgent, lang)
	}
}

func TestClientHintsMatchUserAgent(t *testing.T) {
	for _, fp := range defaultFingerprints() {
		hints := fp.Headers.Get("Sec-Ch-Ua")
		switch {
		case strings.Contains(fp.UserAgent, "Whale/"):
			assert.Contains(t, hints, "Whale")
		case strings.Contains(fp.UserAgent, "Edg/"):
			assert.Contains(t, hints, "Microsoft Edge")
		case strings.Contains(fp.UserAgent, "Firefox/"):
			assert.Empty(t, hints)
		case strings.Contains(fp.UserAgent, "Version/"):
			// Safari
			assert.Empty(t, hints)
		default:
			assert.Contains(t, hints, "Google Chrome")
		}
	}
}
