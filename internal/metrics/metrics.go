package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	IngestFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartclaim",
			Name:      "ingest_files_total",
			Help:      "Uploaded files by final ingest state",
		},
		[]string{"outcome"}, // stored / skipped / failed
	)

	ClassifierRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "smartclaim",
			Name:      "classifier_rejections_total",
			Help:      "Files the policy classifier did not recognise",
		},
	)

	InferenceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartclaim",
			Name:      "inference_requests_total",
			Help:      "Inference calls by provider and status",
		},
		[]string{"provider", "status"},
	)

	InferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartclaim",
			Name:      "inference_duration_seconds",
			Help:      "Inference call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"provider"},
	)

	NormalizerFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartclaim",
			Name:      "normalizer_fallbacks_total",
			Help:      "Answers replaced by the default result",
		},
		[]string{"reason"}, // inference / malformed
	)

	PersistFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartclaim",
			Name:      "persist_failures_total",
			Help:      "Best-effort document store writes that failed",
		},
		[]string{"op"}, // save / delete
	)
)

func init() {
	prometheus.MustRegister(IngestFilesTotal)
	prometheus.MustRegister(ClassifierRejectionsTotal)
	prometheus.MustRegister(InferenceRequestsTotal)
	prometheus.MustRegister(InferenceDuration)
	prometheus.MustRegister(NormalizerFallbacksTotal)
	prometheus.MustRegister(PersistFailuresTotal)
}
