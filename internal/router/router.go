// Package router assembles the gin engine: middleware stack, health and
// metrics endpoints, and the versioned API routes.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/minsu-lab/mstrack/config"
	"github.com/minsu-lab/mstrack/internal/analytics"
	"github.com/minsu-lab/mstrack/internal/auth"
	"github.com/minsu-lab/mstrack/internal/cache"
	"github.com/minsu-lab/mstrack/internal/handlers"
	"github.com/minsu-lab/mstrack/internal/middleware"
	"github.com/minsu-lab/mstrack/internal/musinsa"
	"github.com/minsu-lab/mstrack/internal/scheduler"
	"github.com/minsu-lab/mstrack/internal/store"
	"github.com/minsu-lab/mstrack/internal/tracker"
	"github.com/minsu-lab/mstrack/metrics"
)

// Deps carries the shared components the API serves. Scheduler and
// Cache may be nil; the routes degrade instead of failing.
type Deps struct {
	Store      *store.Store
	Reconciler *tracker.Reconciler
	Refresher  *tracker.Refresher
	Analytics  *analytics.Service
	Auth       *auth.Authenticator
	Cache      *cache.Client
	Scheduler  *scheduler.Scheduler
	Registry   *musinsa.Registry
}

func Initialize(cfg *config.Config, deps Deps) *gin.Engine {
	authHandler := handlers.NewAuthHandler(deps.Auth)
	productHandler := handlers.NewProductHandler(deps.Store, deps.Reconciler, deps.Refresher)
	crawlHandler := handlers.NewCrawlHandler(deps.Reconciler, deps.Refresher, deps.Scheduler, deps.Registry, cfg.ListingTarget)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Analytics, deps.Cache)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-API-Key")
	corsConfig.ExposeHeaders = []string{"X-Total-Count", "X-Page", "X-Per-Page", "X-Total-Pages"}
	r.Use(cors.New(corsConfig))

	// Health check and metrics
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "mstrack",
			"time":    time.Now().UTC(),
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		authRoutes := v1.Group("/auth")
		authRoutes.Use(middleware.LoginRateLimit())
		{
			authRoutes.POST("/login", authHandler.Login)
		}

		v1.GET("/categories", crawlHandler.Categories)
		v1.GET("/scheduler/status", crawlHandler.SchedulerStatus)

		products := v1.Group("/products")
		{
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
			products.GET("/:id/price-history", productHandler.PriceHistory)

			// Mutating routes need credentials
			protected := products.Group("")
			protected.Use(middleware.AuthRequired(deps.Auth))
			{
				protected.POST("", productHandler.Track)
				protected.DELETE("/:id", productHandler.Delete)
				protected.POST("/:id/crawl", productHandler.Crawl)
			}
		}

		crawl := v1.Group("/crawl")
		crawl.Use(middleware.AuthRequired(deps.Auth))
		{
			crawl.POST("/categories", crawlHandler.CrawlCategories)
			crawl.POST("/refresh", crawlHandler.RefreshAll)
		}

		analyticsRoutes := v1.Group("/analytics")
		{
			analyticsRoutes.GET("/price-trends", analyticsHandler.PriceTrends)
			analyticsRoutes.GET("/brands", analyticsHandler.Brands)
			analyticsRoutes.GET("/categories", analyticsHandler.Categories)
			analyticsRoutes.GET("/reviews", analyticsHandler.Reviews)
			analyticsRoutes.GET("/dashboard", analyticsHandler.Dashboard)
		}
	}

	return r
}
