package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics holds Prometheus metrics for the popular-feed cache.
type CacheMetrics struct {
	Hits   prometheus.Counter
	Misses prometheus.Counter
	Errors prometheus.Counter
}

// NewCacheMetrics creates and registers cache metrics on the given registry.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "popular_cache",
			Name:      "hits_total",
			Help:      "Total number of popular cache hits.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "popular_cache",
			Name:      "misses_total",
			Help:      "Total number of popular cache misses.",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "popular_cache",
			Name:      "errors_total",
			Help:      "Total number of popular cache read/write errors.",
		}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Errors)
	return m
}
