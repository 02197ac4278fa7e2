// Package metrics defines Prometheus metrics for the inventory dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "invdash"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 if the last liveness probe succeeded, 0 otherwise.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 if the last readiness probe succeeded, 0 otherwise.",
	})
)

// Vendor API metrics.
var (
	VendorRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_requests_total",
		Help:      "Total vendor API requests by API generation and response status.",
	}, []string{"generation", "status"})

	VendorPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_pages_total",
		Help:      "Total vendor result pages aggregated, by generation and resource.",
	}, []string{"generation", "resource"})

	VendorRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_retries_total",
		Help:      "Total page requests retried after a transient failure.",
	}, []string{"generation"})

	VendorBreakerTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_breaker_transitions_total",
		Help:      "Total circuit breaker state transitions, by breaker and target state.",
	}, []string{"breaker", "to"})

	TokenRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total OAuth token refresh attempts by outcome.",
	}, []string{"outcome"})
)

// Inventory load metrics.
var (
	InventoryLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "inventory_load_duration_seconds",
		Help:      "Duration of full inventory loads in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"generation"})

	InventoryLoadErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inventory_load_errors_total",
		Help:      "Total failed inventory loads by error kind.",
	}, []string{"kind"})

	NormalizationSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "normalization_skipped_total",
		Help:      "Total vendor records skipped as malformed during normalization.",
	}, []string{"generation"})

	InventoryItems = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "inventory_items",
		Help:      "Number of items in the current inventory snapshot.",
	})

	InventoryLastLoadTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "inventory_last_load_timestamp_seconds",
		Help:      "Unix timestamp of the last successful inventory load.",
	})
)
