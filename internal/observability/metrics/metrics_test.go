package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSegmentation(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordSegmentation("OK", 4, 0.001)
	m.RecordSegmentation("OK", 2, 0.001)
	m.RecordSegmentation("INVALID", 0, 0.001)

	if got := testutil.ToFloat64(m.SegmentationsTotal.WithLabelValues("OK")); got != 2 {
		t.Errorf("expected 2 OK segmentations, got %v", got)
	}
	if got := testutil.ToFloat64(m.SegmentationsTotal.WithLabelValues("INVALID")); got != 1 {
		t.Errorf("expected 1 INVALID segmentation, got %v", got)
	}
	if got := testutil.CollectAndCount(m.PhrasesPerTranscript); got != 1 {
		t.Errorf("expected one phrase histogram series, got %d", got)
	}
}

func TestRecordLookup(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordLookup("word", true)
	m.RecordLookup("word", false)
	m.RecordLookup("word", false)

	if got := testutil.ToFloat64(m.ResolverLookups.WithLabelValues("word", "hit")); got != 1 {
		t.Errorf("expected 1 hit, got %v", got)
	}
	if got := testutil.ToFloat64(m.ResolverLookups.WithLabelValues("word", "miss")); got != 2 {
		t.Errorf("expected 2 misses, got %v", got)
	}
}

func TestRecordSessions(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordSessionOpened()
	m.RecordSessionOpened()
	m.RecordSessionClosed()

	if got := testutil.ToFloat64(m.SessionsActive); got != 1 {
		t.Errorf("expected 1 active session, got %v", got)
	}
}

func TestRecordTranscriptionAndKafka(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordTranscription("mock", nil, 0.2)
	m.RecordTranscription("mock", errors.New("boom"), 0.2)
	m.RecordKafkaPublish("caption.phrases", "caption.phrases.updated", errors.New("down"), 0.01)

	if got := testutil.ToFloat64(m.TranscriptionsTotal.WithLabelValues("mock", "error")); got != 1 {
		t.Errorf("expected 1 failed transcription, got %v", got)
	}
	if got := testutil.ToFloat64(m.KafkaPublishErrors.WithLabelValues("caption.phrases", "caption.phrases.updated")); got != 1 {
		t.Errorf("expected 1 kafka error, got %v", got)
	}
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	// Registering twice on the same registry would panic.
	a := NewMetrics(prometheus.NewRegistry())
	b := NewMetrics(prometheus.NewRegistry())

	a.RecordExport("srt", 120)
	if got := testutil.ToFloat64(b.ExportsTotal.WithLabelValues("srt")); got != 0 {
		t.Errorf("expected registries to be independent, got %v", got)
	}
}
