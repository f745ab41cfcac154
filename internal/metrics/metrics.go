package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Content writer API metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentwriter",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "contentwriter",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Generation outcomes by mode; outcome is "success" or an error kind
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentwriter",
			Subsystem: "api",
			Name:      "generations_total",
			Help:      "Total generation requests by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "contentwriter",
			Subsystem: "api",
			Name:      "generation_duration_seconds",
			Help:      "Backend generation duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"mode"},
	)

	RelatedTopicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentwriter",
			Subsystem: "api",
			Name:      "related_topics_total",
			Help:      "Related topics jobs by final status",
		},
		[]string{"status"},
	)

	// Image archive operations against object storage
	ArchiveOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentwriter",
			Subsystem: "api",
			Name:      "archive_operations_total",
			Help:      "Total image archive uploads",
		},
		[]string{"status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordGeneration records a finished generation
func RecordGeneration(mode, outcome string, durationSec float64) {
	GenerationsTotal.WithLabelValues(mode, outcome).Inc()
	if durationSec > 0 {
		GenerationDuration.WithLabelValues(mode).Observe(durationSec)
	}
}

// RecordRelatedTopics records a related topics job result
func RecordRelatedTopics(status string) {
	RelatedTopicsTotal.WithLabelValues(status).Inc()
}

// RecordArchive records an image archive upload
func RecordArchive(status string) {
	ArchiveOperationsTotal.WithLabelValues(status).Inc()
}
