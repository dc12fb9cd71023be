package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/minsu-lab/mstrack/internal/analytics"
	"github.com/minsu-lab/mstrack/internal/cache"
	"github.com/minsu-lab/mstrack/internal/utils"
)

// Analytics responses are cached for a short window; the views tolerate
// staleness and the aggregate queries are the most expensive ones.
const analyticsCacheTTL = 5 * time.Minute

type AnalyticsHandler struct {
	analytics *analytics.Service
	cache     *cache.Client
}

func NewAnalyticsHandler(svc *analytics.Service, cc *cache.Client) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: svc, cache: cc}
}

func (h *AnalyticsHandler) cached(c *gin.Context, key string, dest interface{}) bool {
	hit, err := h.cache.GetJSON(c.Request.Context(), key, dest)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Analytics cache read failed")
		return false
	}
	return hit
}

func (h *AnalyticsHandler) remember(c *gin.Context, key string, value interface{}) {
	if err := h.cache.SetJSON(c.Request.Context(), key, value, analyticsCacheTTL); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Analytics cache write failed")
	}
}

func queryInt(c *gin.Context, name string, def, max int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > max {
		return def
	}
	return n
}

// GET /v1/analytics/price-trends?product_id=&days=
func (h *AnalyticsHandler) PriceTrends(c *gin.Context) {
	var productID uint
	if v := c.Query("product_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil || id == 0 {
			utils.BadRequestResponse(c, "Invalid product_id parameter", nil)
			return
		}
		productID = uint(id)
	}
	days := queryInt(c, "days", 7, 365)

	key := fmt.Sprintf("analytics:price-trends:%d:%d", productID, days)
	var cachedTrends analytics.PriceTrends
	if h.cached(c, key, &cachedTrends) {
		utils.SuccessResponse(c, cachedTrends)
		return
	}

	trends, err := h.analytics.PriceTrends(c.Request.Context(), productID, days)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to compute price trends")
		return
	}

	h.remember(c, key, trends)
	utils.SuccessResponse(c, trends)
}

// GET /v1/analytics/brands?limit=
func (h *AnalyticsHandler) Brands(c *gin.Context) {
	limit := queryInt(c, "limit", 20, 100)

	key := fmt.Sprintf("analytics:brands:%d", limit)
	var cachedStats analytics.BrandStats
	if h.cached(c, key, &cachedStats) {
		utils.SuccessResponse(c, cachedStats)
		return
	}

	stats, err := h.analytics.BrandStats(c.Request.Context(), limit)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to compute brand statistics")
		return
	}

	h.remember(c, key, stats)
	utils.SuccessResponse(c, stats)
}

// GET /v1/analytics/categories?limit=
func (h *AnalyticsHandler) Categories(c *gin.Context) {
	limit := queryInt(c, "limit", 15, 100)

	key := fmt.Sprintf("analytics:categories:%d", limit)
	var cachedInsights analytics.CategoryInsights
	if h.cached(c, key, &cachedInsights) {
		utils.SuccessResponse(c, cachedInsights)
		return
	}

	insights, err := h.analytics.CategoryInsights(c.Request.Context(), limit)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to compute category insights")
		return
	}

	h.remember(c, key, insights)
	utils.SuccessResponse(c, insights)
}

// GET /v1/analytics/reviews
func (h *AnalyticsHandler) Reviews(c *gin.Context) {
	const key = "analytics:reviews"
	var cachedAnalysis analytics.ReviewAnalysis
	if h.cached(c, key, &cachedAnalysis) {
		utils.SuccessResponse(c, cachedAnalysis)
		return
	}

	analysis, err := h.analytics.ReviewAnalysis(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to compute review analysis")
		return
	}

	h.remember(c, key, analysis)
	utils.SuccessResponse(c, analysis)
}

// GET /v1/analytics/dashboard
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	const key = "analytics:dashboard"
	var cachedSummary analytics.DashboardSummary
	if h.cached(c, key, &cachedSummary) {
		utils.SuccessResponse(c, cachedSummary)
		return
	}

	summary, err := h.analytics.DashboardSummary(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to compute dashboard summary")
		return
	}

	h.remember(c, key, summary)
	utils.SuccessResponse(c, summary)
}
