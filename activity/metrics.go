// ABOUTME: Prometheus instruments for aggregation service calls
// ABOUTME: Query latency, slow query counts and cache hit/miss counters
package activity

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	QueryDuration *prometheus.HistogramVec
	SlowQueries   *prometheus.CounterVec
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_activity_query_duration_seconds",
				Help:    "Duration of activity aggregation operations in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		SlowQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_activity_slow_queries_total",
				Help: "Total activity operations slower than the slow query threshold.",
			},
			[]string{"operation"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_activity_cache_hits_total",
				Help: "Total query cache hits.",
			},
			[]string{"operation"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_activity_cache_misses_total",
				Help: "Total query cache misses.",
			},
			[]string{"operation"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.QueryDuration, m.SlowQueries, m.CacheHits, m.CacheMisses)
	}
	return m
}
