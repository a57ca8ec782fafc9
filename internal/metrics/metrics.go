// Package metrics holds Prometheus instruments for the configuration
// loader.  All collectors are registered with the global registry, so
// serving promhttp.Handler() is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConfigLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "config_load_total",
			Help: "Cumulative number of configurations successfully loaded and validated.",
		})

	ConfigLoadErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_load_errors_total",
			Help: "Cumulative number of failed loads, by reason (source, validation, decode).",
		}, []string{"reason"})

	ConfigCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "config_cache_hits_total",
			Help: "Cumulative number of Get calls served from the cached configuration.",
		})

	ConfigSourceAvailable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "config_source_available",
			Help: "1 when the source kind was found on the last load, else 0.",
		}, []string{"kind"})

	ConfigViolations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "config_violations",
			Help: "Number of validation violations reported by the last load.",
		})
)

func init() {
	prometheus.MustRegister(
		ConfigLoadTotal,
		ConfigLoadErrorsTotal,
		ConfigCacheHitsTotal,
		ConfigSourceAvailable,
		ConfigViolations,
	)
}
