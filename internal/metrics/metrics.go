package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DigestRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aidigest",
			Name:      "digest_requests_total",
			Help:      "Digest requests by outcome",
		},
		[]string{"result"},
	)

	Acquisitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aidigest",
			Name:      "acquisitions_total",
			Help:      "Digest acquisitions by source and status",
		},
		[]string{"source", "status"},
	)

	AcquisitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aidigest",
			Name:      "acquisition_duration_seconds",
			Help:      "Duration of digest acquisitions in seconds",
			Buckets:   []float64{1, 5, 10, 20, 30, 60, 120},
		},
		[]string{"source"},
	)

	LLMRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aidigest",
			Name:      "llm_retries_total",
			Help:      "Rate-limited LLM calls that were retried",
		},
		[]string{"provider"},
	)

	AskStreams = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aidigest",
			Name:      "ask_streams_total",
			Help:      "Follow-up answer streams by status",
		},
		[]string{"status"},
	)
)

func RecordDigestRequest(result string) {
	DigestRequests.WithLabelValues(result).Inc()
}

func RecordAcquisition(source, status string, seconds float64) {
	Acquisitions.WithLabelValues(source, status).Inc()
	AcquisitionDuration.WithLabelValues(source).Observe(seconds)
}

func RecordLLMRetry(provider string) {
	LLMRetries.WithLabelValues(provider).Inc()
}

func RecordAskStream(status string) {
	AskStreams.WithLabelValues(status).Inc()
}
