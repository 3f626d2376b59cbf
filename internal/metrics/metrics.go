// Package metrics exposes prometheus collectors for lookups.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"domain-parser/internal/suffix"
)

var lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "domainparser_lookups_total",
	Help: "The number of lookups by operation and outcome",
}, []string{"operation", "outcome"})

var lookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "domainparser_lookup_duration_seconds",
	Help:    "The time it took to answer a lookup",
	Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
}, []string{"operation"})

var suffixSections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "domainparser_suffix_section_total",
	Help: "The number of detected suffixes per section",
}, []string{"section"})

var datasetSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "domainparser_dataset_suffixes",
	Help: "The number of suffixes loaded per section",
}, []string{"section"})

// Outcomes recorded in domainparser_lookups_total.
const (
	OutcomeOK            = "ok"
	OutcomeInvalidURL    = "invalid_url"
	OutcomeInvalidHost   = "invalid_hostname"
	OutcomeInvalidOption = "invalid_option"
	OutcomeNotFound      = "suffix_not_found"
)

// ObserveLookup records a finished lookup.
func ObserveLookup(operation, outcome, section string, seconds float64) {
	lookupsTotal.WithLabelValues(operation, outcome).Inc()
	lookupDuration.WithLabelValues(operation).Observe(seconds)
	if outcome == OutcomeOK && section != "" {
		suffixSections.WithLabelValues(section).Inc()
	}
}

// SetDatasetStats publishes the size of the loaded suffix database.
func SetDatasetStats(stats suffix.Stats) {
	datasetSize.WithLabelValues("icann").Set(float64(stats.ICANN))
	datasetSize.WithLabelValues("private").Set(float64(stats.Private))
	datasetSize.WithLabelValues("skipped").Set(float64(stats.Skipped))
}
