package geocode

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts geocode cache effectiveness.
type Metrics struct {
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewMetrics registers the geocode metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "thingapi_geocode_cache_hits_total",
			Help: "Geocode lookups served from the Redis cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "thingapi_geocode_cache_misses_total",
			Help: "Geocode lookups that went to the provider",
		}),
	}
}
