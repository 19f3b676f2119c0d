// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vazios_http_requests_total",
			Help: "Total HTTP API requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vazios_http_request_duration_seconds",
			Help:    "HTTP API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	RecalcRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vazios_recalc_runs_total",
			Help: "Total indicator recalculation runs",
		},
		[]string{"status"},
	)

	RecalcDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vazios_recalc_duration_seconds",
			Help:    "Indicator recalculation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	TerritorialGaps = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vazios_territorial_gaps",
			Help: "Municipalities flagged as territorial gaps by the last recalculation",
		},
	)

	OrphanStations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vazios_orphan_stations",
			Help: "Active stations not attributable to any municipality in the last recalculation",
		},
	)
)
