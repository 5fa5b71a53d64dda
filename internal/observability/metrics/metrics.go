// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "caption_timeline"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Segmentation metrics
	SegmentationsTotal   *prometheus.CounterVec
	PhrasesPerTranscript prometheus.Histogram
	SegmentationDuration prometheus.Histogram
	ValidationErrors     *prometheus.CounterVec

	// Resolver metrics
	ResolverLookups *prometheus.CounterVec

	// Export metrics
	ExportsTotal *prometheus.CounterVec
	ExportBytes  *prometheus.HistogramVec

	// Session metrics
	SessionsActive       prometheus.Gauge
	SessionLimitExceeded *prometheus.CounterVec
	PlaybackStreams      prometheus.Gauge

	// Transcription metrics
	TranscriptionsTotal  *prometheus.CounterVec
	TranscriptionLatency *prometheus.HistogramVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// gRPC metrics
	GRPCCallsTotal *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all Prometheus metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Segmentation metrics
		SegmentationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segmentations_total",
			Help:      "Total number of segmentation runs by outcome",
		}, []string{"status"}),
		PhrasesPerTranscript: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phrases_per_transcript",
			Help:      "Number of phrases produced per segmentation",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		SegmentationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segmentation_duration_seconds",
			Help:      "Time spent segmenting a transcript",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}),
		ValidationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Total number of rejected inputs by offending field",
		}, []string{"field"}),

		// Resolver metrics
		ResolverLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_lookups_total",
			Help:      "Total number of active span lookups",
		}, []string{"kind", "result"}),

		// Export metrics
		ExportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of exported documents",
		}, []string{"format"}),
		ExportBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_bytes",
			Help:      "Size of exported documents in bytes",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}, []string{"format"}),

		// Session metrics
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of open caption sessions",
		}),
		SessionLimitExceeded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "limit_exceeded_total",
			Help:      "Total number of times a limit was exceeded",
		}, []string{"limit_type"}),
		PlaybackStreams: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "playback_streams_active",
			Help:      "Number of open playback websocket streams",
		}),

		// Transcription metrics
		TranscriptionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Total number of transcription requests",
		}, []string{"provider", "result"}),
		TranscriptionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_latency_seconds",
			Help:      "Transcription collaborator latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"provider"}),

		// Kafka publish metrics
		KafkaPublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		// gRPC metrics
		GRPCCallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_calls_total",
			Help:      "Total number of gRPC calls by method and code",
		}, []string{"method", "code"}),
	}
}

// RecordSegmentation records one segmentation run.
func (m *Metrics) RecordSegmentation(status string, phrases int, durationSeconds float64) {
	m.SegmentationsTotal.WithLabelValues(status).Inc()
	m.SegmentationDuration.Observe(durationSeconds)
	if status != "INVALID" {
		m.PhrasesPerTranscript.Observe(float64(phrases))
	}
}

// RecordValidationError records a rejected input.
func (m *Metrics) RecordValidationError(field string) {
	m.ValidationErrors.WithLabelValues(field).Inc()
}

// RecordLookup records an active span lookup.
func (m *Metrics) RecordLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ResolverLookups.WithLabelValues(kind, result).Inc()
}

// RecordExport records an exported document.
func (m *Metrics) RecordExport(format string, bytes int) {
	m.ExportsTotal.WithLabelValues(format).Inc()
	m.ExportBytes.WithLabelValues(format).Observe(float64(bytes))
}

// RecordSessionOpened records a new session.
func (m *Metrics) RecordSessionOpened() {
	m.SessionsActive.Inc()
}

// RecordSessionClosed records a deleted session.
func (m *Metrics) RecordSessionClosed() {
	m.SessionsActive.Dec()
}

// RecordLimitExceeded records when a limit is exceeded.
func (m *Metrics) RecordLimitExceeded(limitType string) {
	m.SessionLimitExceeded.WithLabelValues(limitType).Inc()
}

// RecordPlaybackStart records a playback stream opening.
func (m *Metrics) RecordPlaybackStart() {
	m.PlaybackStreams.Inc()
}

// RecordPlaybackEnd records a playback stream closing.
func (m *Metrics) RecordPlaybackEnd() {
	m.PlaybackStreams.Dec()
}

// RecordTranscription records a transcription attempt.
func (m *Metrics) RecordTranscription(provider string, err error, latencySeconds float64) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.TranscriptionsTotal.WithLabelValues(provider, result).Inc()
	m.TranscriptionLatency.WithLabelValues(provider).Observe(latencySeconds)
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordGRPCCall records a completed gRPC call.
func (m *Metrics) RecordGRPCCall(method, code string) {
	m.GRPCCallsTotal.WithLabelValues(method, code).Inc()
}
