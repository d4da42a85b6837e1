package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_catalog_operations_total",
			Help: "Total number of catalog operations",
		},
		[]string{"operation", "type", "status"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_store_errors_total",
			Help: "Total number of backing store errors",
		},
		[]string{"backend", "operation"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vigil_http_request_duration_seconds",
			Help:    "Time taken to serve API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)
