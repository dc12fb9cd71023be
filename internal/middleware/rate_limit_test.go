package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func limitedEngine(rl *RateLimiter) *gin.Engine {
	r := gin.New()
	r.GET("/ping", rl.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})
	return r
}

func ping(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2)
	r := limitedEngine(rl)

	require.Equal(t, http.StatusOK, ping(r, "10.1.2.3:1111").Code)
	require.Equal(t, http.StatusOK, ping(r, "10.1.2.3:1111").Code)

	w := ping(r, "10.1.2.3:1111")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 1)
	r := limitedEngine(rl)

	require.Equal(t, http.StatusOK, ping(r, "10.1.2.3:1111").Code)
	require.Equal(t, http.StatusTooManyRequests, ping(r, "10.1.2.3:1111").Code)

	assert.Equal(t, http.StatusOK, ping(r, "10.9.9.9:2222").Code)
}

func TestRateLimiterReusesBucketPerIP(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Second), 3)

	first := rl.limiterFor("203.0.113.7")
	assert.Same(t, first, rl.limiterFor("203.0.113.7"))
	assert.NotSame(t, first, rl.limiterFor("203.0.113.8"))
}
