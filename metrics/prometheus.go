package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mstrack_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mstrack_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
	crawlRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mstrack_crawl_requests_total",
			Help: "Crawl runs by job and outcome.",
		},
		[]string{"job", "status"},
	)
	crawlDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mstrack_crawl_duration_seconds",
			Help:    "Time spent per crawl run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"job"},
	)
	crawlProductsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mstrack_crawl_products_total",
			Help: "Products persisted by crawl runs.",
		},
		[]string{"job"},
	)
	pricePointsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mstrack_price_points_recorded_total",
			Help: "Price observations appended to the history.",
		},
	)
	dbProductsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mstrack_db_products_total",
			Help: "Products currently tracked.",
		},
	)
	dbProductsWithReviews = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mstrack_db_products_with_reviews",
			Help: "Tracked products with at least one review.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		crawlRequestsTotal,
		crawlDuration,
		crawlProductsTotal,
		pricePointsTotal,
		dbProductsTotal,
		dbProductsWithReviews,
	)
}

// RecordRequest records metrics for one HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordCrawl records one crawl run under its job label.
func RecordCrawl(job string, duration time.Duration, saved int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	crawlRequestsTotal.WithLabelValues(job, status).Inc()
	crawlDuration.WithLabelValues(job).Observe(duration.Seconds())
	if saved > 0 {
		crawlProductsTotal.WithLabelValues(job).Add(float64(saved))
	}
}

// RecordPricePoints counts appended price observations.
func RecordPricePoints(n int) {
	if n > 0 {
		pricePointsTotal.Add(float64(n))
	}
}

// SetDBGauges refreshes the database-level gauges.
func SetDBGauges(products, withReviews int64) {
	dbProductsTotal.Set(float64(products))
	dbProductsWithReviews.Set(float64(withReviews))
}

func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler returns the Prometheus exposition handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
