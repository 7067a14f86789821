// Package metrics holds Prometheus instruments that are used across the
// URL-mapping layer.  All collectors are registered with the global
// registry, so importing this package in main.go is enough to expose them
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveSites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "urlmap_active_sites",
			Help: "Number of site rows currently held in the in-process cache.",
		})

	SiteLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "urlmap_site_load_total",
			Help: "Cumulative number of site rows loaded from the store.",
		})

	SiteLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "urlmap_site_load_errors_total",
			Help: "Cumulative number of site load errors.",
		})

	CacheHitTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "urlmap_cache_hit_total",
			Help: "Cumulative number of mapping lookups answered by the cache.",
		})

	CacheMissTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "urlmap_cache_miss_total",
			Help: "Cumulative number of mapping lookups that missed the cache.",
		})

	StoreReadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "urlmap_store_read_total",
			Help: "Cumulative number of mapping reads issued to the store.",
		})

	WriteThroughTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "urlmap_write_through_total",
			Help: "Cumulative number of cache entries refreshed by a mapping save.",
		})

	ResolveOutcomeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urlmap_resolve_outcome_total",
			Help: "Cumulative resolutions by routing outcome.",
		},
		[]string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		ActiveSites,
		SiteLoadTotal,
		SiteLoadErrorsTotal,
		CacheHitTotal,
		CacheMissTotal,
		StoreReadTotal,
		WriteThroughTotal,
		ResolveOutcomeTotal,
	)
}
