package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors recorded by analysis passes.
type Metrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	LookupFailures prometheus.Counter
	CacheEntries   prometheus.Gauge
	CacheSaveFails prometheus.Counter
	Passes         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_geocode_cache_hits_total",
			Help: "Places resolved from the geocode cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_geocode_cache_misses_total",
			Help: "Places sent to the geocoder.",
		}),
		LookupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_geocode_lookup_failures_total",
			Help: "Places the geocoder could not resolve.",
		}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_geocode_cache_entries",
			Help: "Entries in the geocode cache after the last pass.",
		}),
		CacheSaveFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_geocode_cache_save_failures_total",
			Help: "Cache flushes that could not be written.",
		}),
		Passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "survey_analysis_passes_total",
			Help: "Analysis passes by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.CacheHits, m.CacheMisses, m.LookupFailures, m.CacheEntries, m.CacheSaveFails, m.Passes)
	}
	return m
}

// PassOutcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
