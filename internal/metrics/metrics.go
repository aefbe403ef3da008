package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Enumeration metrics
	RunsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "primes_runs_created_total",
			Help: "Total number of enumeration runs recorded",
		},
		[]string{"store"},
	)

	RunsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "primes_runs_failed_total",
			Help: "Total number of enumeration runs that failed",
		},
		[]string{"reason"},
	)

	PrimesEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "primes_emitted_total",
			Help: "Total number of primes produced by the service",
		},
	)

	EnumerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "primes_enumeration_duration_seconds",
			Help:    "Time spent enumerating primes",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12), // 100us to ~7min
		},
		[]string{"endpoint"},
	)

	RequestedCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "primes_requested_count",
			Help:    "Number of primes requested per enumeration",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10), // 1 to ~262k
		},
	)

	DivisionsByZero = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "primes_divisions_by_zero_total",
			Help: "Total number of rejected divisions with a zero divisor",
		},
	)

	// Database metrics
	DatabaseQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "primes_database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DatabaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "primes_database_query_duration_seconds",
			Help:    "Database query duration",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10), // 1ms to ~1s
		},
		[]string{"operation"},
	)

	// API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "primes_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "primes_api_request_duration_seconds",
			Help:    "API request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// System metrics
	OldRunsCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "primes_old_runs_cleaned_total",
			Help: "Total number of runs removed by the retention worker",
		},
	)
)

// ObserveQuery records the outcome and duration of a database operation
func ObserveQuery(operation string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DatabaseQueries.WithLabelValues(operation, status).Inc()
	DatabaseDuration.WithLabelValues(operation).Observe(seconds)
}
