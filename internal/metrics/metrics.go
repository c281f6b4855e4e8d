package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tesatiki_http_requests_total",
		Help: "The total number of HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tesatiki_http_request_duration_seconds",
		Help:    "The HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// BlobVersionsDeleted counts object versions removed from the blob store.
	BlobVersionsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tesatiki_blob_versions_deleted_total",
		Help: "The total number of blob versions deleted by outcome",
	}, []string{"outcome"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tesatiki_cache_lookups_total",
		Help: "The total number of response cache lookups by kind and result",
	}, []string{"kind", "result"})

	SweepListings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tesatiki_sweep_listings_total",
		Help: "Listings touched by the maintenance sweep by action",
	}, []string{"action"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tesatiki_login_attempts_total",
		Help: "The total number of login attempts by outcome",
	}, []string{"outcome"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
