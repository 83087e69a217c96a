package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus instrumentation a Resolver reports
// through: query counts by outcome, referral depth, and cache hit
// ratio, mirroring the counters/histograms the daemon exposes on its
// admin surface.
type Metrics struct {
	Queries     *prometheus.CounterVec
	Referrals   prometheus.Histogram
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	Validations *prometheus.CounterVec
}

// NewMetrics registers a fresh Metrics set with reg. Pass a dedicated
// *prometheus.Registry in tests to avoid collisions with the global
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnsresolver",
			Name:      "queries_total",
			Help:      "Resolve attempts by outcome.",
		}, []string{"outcome"}),
		Referrals: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dnsresolver",
			Name:      "referrals",
			Help:      "Number of referrals followed per iterative resolve.",
			Buckets:   prometheus.LinearBuckets(0, 2, 11),
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dnsresolver",
			Name:      "cache_hits_total",
			Help:      "Record cache lookups satisfied without a query.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dnsresolver",
			Name:      "cache_misses_total",
			Help:      "Record cache lookups that required a query.",
		}),
		Validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnsresolver",
			Name:      "validations_total",
			Help:      "DNSSEC validation outcomes.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.Queries, m.Referrals, m.CacheHits, m.CacheMisses, m.Validations)
	return m
}
