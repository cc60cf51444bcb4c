package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoresizer",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "videoresizer",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Upload counters
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoresizer",
			Subsystem: "api",
			Name:      "uploads_total",
			Help:      "Total source transfers",
		},
		[]string{"origin", "status"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoresizer",
			Subsystem: "api",
			Name:      "upload_bytes_total",
			Help:      "Total bytes transferred into storage",
		},
		[]string{"origin"},
	)

	// Conversion job counters
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoresizer",
			Subsystem: "api",
			Name:      "jobs_total",
			Help:      "Total conversion jobs by terminal status",
		},
		[]string{"platform", "status"},
	)

	// Conversion job duration
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "videoresizer",
			Subsystem: "api",
			Name:      "job_duration_seconds",
			Help:      "End to end conversion job duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"platform"},
	)

	// Transcoder call counter
	TranscoderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoresizer",
			Subsystem: "api",
			Name:      "transcoder_calls_total",
			Help:      "Total calls to the external transcoder",
		},
		[]string{"status"},
	)

	// Storage operations counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoresizer",
			Subsystem: "api",
			Name:      "storage_operations_total",
			Help:      "Total object storage operations",
		},
		[]string{"operation", "status"},
	)

	// Delivery action counter
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videoresizer",
			Subsystem: "api",
			Name:      "deliveries_total",
			Help:      "Total delivery actions on finished jobs",
		},
		[]string{"action", "status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordUpload records a source transfer
func RecordUpload(origin, status string, bytes int64) {
	UploadsTotal.WithLabelValues(origin, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(origin).Add(float64(bytes))
	}
}

// RecordJob records a finished conversion job
func RecordJob(platform, status string, durationSec float64) {
	JobsTotal.WithLabelValues(platform, status).Inc()
	JobDuration.WithLabelValues(platform).Observe(durationSec)
}

// RecordTranscoderCall records a call to the external transcoder
func RecordTranscoderCall(status string) {
	TranscoderCallsTotal.WithLabelValues(status).Inc()
}

// RecordStorageOperation records an object storage operation
func RecordStorageOperation(operation, status string) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDelivery records a delivery action
func RecordDelivery(action, status string) {
	DeliveriesTotal.WithLabelValues(action, status).Inc()
}
