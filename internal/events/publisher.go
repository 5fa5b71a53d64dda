// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"caption-timeline-service/internal/models"
	"caption-timeline-service/internal/observability/metrics"
)

// Publisher publishes caption events to separate Kafka topics.
type Publisher struct {
	writerPhrases *kafka.Writer
	writerExports *kafka.Writer
	principal     string
	topicPhrases  string
	topicExports  string
	enabled       bool
	metrics       *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers      []string
	TopicPhrases string
	TopicExports string
	Principal    string
	Enabled      bool
}

// New creates a Kafka event publisher with separate topics for phrase
// updates and exports. A nil m uses metrics.DefaultMetrics.
func New(cfg *Config, m *metrics.Metrics) *Publisher {
	if m == nil {
		m = metrics.DefaultMetrics
	}

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:    cfg.Principal,
			topicPhrases: cfg.TopicPhrases,
			topicExports: cfg.TopicExports,
			enabled:      false,
			metrics:      m,
		}
	}

	// Longer dial timeout for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicPhrases", cfg.TopicPhrases).
		Str("topicExports", cfg.TopicExports).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerPhrases: newWriter(cfg.Brokers, cfg.TopicPhrases, transport),
		writerExports: newWriter(cfg.Brokers, cfg.TopicExports, transport),
		principal:     cfg.Principal,
		topicPhrases:  cfg.TopicPhrases,
		topicExports:  cfg.TopicExports,
		enabled:       true,
		metrics:       m,
	}
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// PublishPhrasesUpdated publishes a phrase update keyed by session.
func (p *Publisher) PublishPhrasesUpdated(ctx context.Context, event models.PhrasesUpdated) error {
	if event.EventType == "" {
		event.EventType = models.EventPhrasesUpdated
	}
	return p.publish(ctx, p.writerPhrases, p.topicPhrases, event.EventType, event.SessionID, event)
}

// PublishSubtitlesExported publishes an export notice keyed by session.
func (p *Publisher) PublishSubtitlesExported(ctx context.Context, event models.SubtitlesExported) error {
	if event.EventType == "" {
		event.EventType = models.EventSubtitlesExported
	}
	return p.publish(ctx, p.writerExports, p.topicExports, event.EventType, event.SessionID, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Enabled reports whether events go to Kafka rather than the log.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerPhrases != nil {
		if e := p.writerPhrases.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing phrases writer")
			err = e
		}
	}
	if p.writerExports != nil {
		if e := p.writerExports.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing exports writer")
			err = e
		}
	}
	return err
}
