// Package metrics exposes the Prometheus collectors of the ROI engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Quote outcomes
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid_input"
	OutcomeIneligible = "ineligible"
	OutcomeResolution = "resolution_error"
)

var (
	QuotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roi_quotes_total",
		Help: "The total number of rate quotes by scheme and outcome",
	}, []string{"scheme", "outcome"})

	IneligibleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roi_ineligible_total",
		Help: "Total eligibility rejections by reason",
	}, []string{"scheme", "reason"})

	ResolutionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roi_resolution_errors_total",
		Help: "Rate table lookups that found no key for an eligible request",
	}, []string{"scheme", "table"})

	FinalRate = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roi_final_rate_percent",
		Help:    "Distribution of quoted final rates",
		Buckets: prometheus.LinearBuckets(7, 0.5, 18),
	}, []string{"scheme", "regime"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roi_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	RateTableEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roi_rate_table_entries",
		Help: "Number of entries in the loaded rate table",
	}, []string{"version"})
)
