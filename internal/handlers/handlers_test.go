package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/minsu-lab/mstrack/config"
	"github.com/minsu-lab/mstrack/internal/auth"
	"github.com/minsu-lab/mstrack/internal/musinsa"
	"github.com/minsu-lab/mstrack/internal/tracker"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginEngine(t *testing.T) *gin.Engine {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("swordfish"), bcrypt.MinCost)
	require.NoError(t, err)
	a := auth.New(&config.Config{
		JWTSecret:         strings.Repeat("k", 32),
		AdminUser:         "admin",
		AdminPasswordHash: string(hash),
	})

	r := gin.New()
	r.POST("/v1/auth/login", NewAuthHandler(a).Login)
	return r
}

func TestLoginReturnsToken(t *testing.T) {
	w := performJSON(loginEngine(t), http.MethodPost, "/v1/auth/login",
		`{"username":"admin","password":"swordfish"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "access_token")
	assert.Contains(t, w.Body.String(), `"token_type":"bearer"`)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	w := performJSON(loginEngine(t), http.MethodPost, "/v1/auth/login",
		`{"username":"admin","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRejectsMissingFields(t *testing.T) {
	w := performJSON(loginEngine(t), http.MethodPost, "/v1/auth/login", `{"username":"admin"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	w := performJSON(loginEngine(t), http.MethodPost, "/v1/auth/login", `{"username":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func crawlEngine() *gin.Engine {
	registry := musinsa.NewRegistry(nil, time.Hour)
	reconciler := tracker.NewReconciler(nil, nil, registry, nil, nil)
	h := NewCrawlHandler(reconciler, nil, nil, registry, 300)

	r := gin.New()
	r.POST("/v1/crawl/categories", h.CrawlCategories)
	r.GET("/v1/scheduler/status", h.SchedulerStatus)
	r.GET("/v1/categories", h.Categories)
	return r
}

func TestCrawlCategoriesRejectsUnknownCodes(t *testing.T) {
	w := performJSON(crawlEngine(), http.MethodPost, "/v1/crawl/categories",
		`{"category_codes":["999"]}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_codes")
	assert.Contains(t, w.Body.String(), "999")
}

func TestCrawlCategoriesRejectsMalformedCodes(t *testing.T) {
	w := performJSON(crawlEngine(), http.MethodPost, "/v1/crawl/categories",
		`{"category_codes":["tops"]}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestCrawlCategoriesRequiresCodes(t *testing.T) {
	w := performJSON(crawlEngine(), http.MethodPost, "/v1/crawl/categories", `{}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestSchedulerStatusWithoutScheduler(t *testing.T) {
	w := performJSON(crawlEngine(), http.MethodGet, "/v1/scheduler/status", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running":false`)
	assert.Contains(t, w.Body.String(), `"job_count":0`)
}

func TestCategoriesListsKnownCodes(t *testing.T) {
	w := performJSON(crawlEngine(), http.MethodGet, "/v1/categories", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"001"`)
	assert.Contains(t, w.Body.String(), `"count":9`)
}

func productEngine() *gin.Engine {
	h := NewProductHandler(nil, nil, nil)

	r := gin.New()
	r.GET("/v1/products/:id", h.Get)
	r.POST("/v1/products", h.Track)
	return r
}

func TestProductRejectsNonNumericID(t *testing.T) {
	w := performJSON(productEngine(), http.MethodGet, "/v1/products/abc", "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid product ID")
}

func TestProductRejectsZeroID(t *testing.T) {
	w := performJSON(productEngine(), http.MethodGet, "/v1/products/0", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrackRejectsForeignURL(t *testing.T) {
	w := performJSON(productEngine(), http.MethodPost, "/v1/products",
		`{"url":"https://example.com/products/4411871"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestTrackRequiresURL(t *testing.T) {
	w := performJSON(productEngine(), http.MethodPost, "/v1/products", `{}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}
