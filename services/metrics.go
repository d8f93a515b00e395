package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	datasetRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "accidents_dataset_rows",
		Help: "Rows in the canonical accident table",
	})
	datasetDropped = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "accidents_dataset_dropped_rows",
		Help: "Rows dropped by the last successful load, by reason",
	}, []string{"reason"})
	datasetVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "accidents_dataset_version",
		Help: "Number of successful dataset loads since start",
	})
	datasetLoadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accidents_dataset_load_failures_total",
		Help: "Total failed dataset loads",
	})
	datasetLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "accidents_dataset_load_duration_seconds",
		Help:    "Duration of dataset loads",
		Buckets: prometheus.DefBuckets,
	})
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accidents_upstream_requests_total",
		Help: "Calls to collaborator APIs by target and outcome",
	}, []string{"target", "outcome"})
)
