// Package metrics provides Prometheus metrics for the extractor service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Probe outcomes.
const (
	ProbeOK           = "ok"
	ProbeDecodeFailed = "decode_failed"
	ProbeSkipped      = "skipped"
)

var (
	// ExtractRequests tracks extraction requests by source and outcome.
	ExtractRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_extract_requests_total",
		Help: "Total number of extraction requests",
	}, []string{"source", "status"})

	// ExtractDuration tracks end-to-end extraction latency.
	ExtractDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "audio_extract_duration_seconds",
		Help:    "Duration of extraction requests in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
	}, []string{"source"})

	// ObjectsListed tracks objects returned by backend listings.
	ObjectsListed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_extract_objects_listed_total",
		Help: "Total number of objects enumerated from storage",
	}, []string{"source"})

	// ObjectsMatched tracks listed objects that passed the audio filter.
	ObjectsMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_extract_objects_matched_total",
		Help: "Total number of audio objects returned",
	}, []string{"source"})

	// ProbeResults tracks duration probe outcomes.
	ProbeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_extract_probe_results_total",
		Help: "Total number of duration probes by outcome",
	}, []string{"outcome"})

	// BytesDownloaded tracks bytes fetched for probing.
	BytesDownloaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_extract_downloaded_bytes_total",
		Help: "Total bytes downloaded for duration probing",
	}, []string{"provider"})

	// StorageOperations tracks storage operations.
	StorageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_extract_storage_operations_total",
		Help: "Total number of storage operations",
	}, []string{"operation", "provider", "status"})
)

// RecordRequest records an extraction request with its status.
func RecordRequest(source string, success bool) {
	ExtractRequests.WithLabelValues(source, status(success)).Inc()
}

// RecordStorageOperation records a storage operation.
func RecordStorageOperation(operation, provider string, success bool) {
	StorageOperations.WithLabelValues(operation, provider, status(success)).Inc()
}

// RecordProbe records a duration probe outcome.
func RecordProbe(outcome string) {
	ProbeResults.WithLabelValues(outcome).Inc()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
