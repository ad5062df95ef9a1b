package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/observability"
)

// Publisher delivers activity events.
type Publisher interface {
	Publish(ctx context.Context, event domain.ActivityEvent) error
	Close() error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, domain.ActivityEvent) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
// This interface allows for easy mocking in tests.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic receives activity events.
	Topic string
	// BatchTimeout is the writer flush interval.
	BatchTimeout time.Duration
}

// KafkaPublisher writes activity events to Kafka as JSON, keyed by session ID
// so one session's events stay ordered within a partition.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	async   bool
	metrics *observability.Metrics
	logger  zerolog.Logger
}

var _ Publisher = (*KafkaPublisher)(nil)

// deliveryReporter is implemented by publishers that count delivery outcomes
// themselves once the broker has answered.
type deliveryReporter interface {
	reportsDelivery() bool
}

// NewKafkaPublisher creates a publisher backed by an asynchronous kafka.Writer.
// Broker delivery outcomes are logged and counted from the writer's
// completion callback. metrics may be nil.
func NewKafkaPublisher(cfg KafkaConfig, logger zerolog.Logger, metrics *observability.Metrics) *KafkaPublisher {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Logger:       observability.KafkaLogger(logger, zerolog.DebugLevel),
		ErrorLogger:  observability.KafkaLogger(logger, zerolog.ErrorLevel),
	}

	p := newKafkaPublisher(writer, cfg.Topic, logger, metrics)
	p.async = true
	writer.Completion = p.complete
	return p
}

func newKafkaPublisher(writer messageWriter, topic string, logger zerolog.Logger, metrics *observability.Metrics) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  writer,
		topic:   topic,
		metrics: metrics,
		logger:  logger.With().Str("component", "kafka_publisher").Str("topic", topic).Logger(),
	}
}

func (p *KafkaPublisher) reportsDelivery() bool { return p.async }

// complete records the broker outcome of one written batch.
func (p *KafkaPublisher) complete(msgs []kafka.Message, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		p.logger.Error().Err(err).Int("messages", len(msgs)).Msg("activity event delivery failed")
	}
	for _, msg := range msgs {
		p.metrics.RecordEventPublished(eventTypeOf(msg), outcome)
	}
}

func eventTypeOf(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return "unknown"
}

// Publish serializes the event and writes it to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.ActivityEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	key := event.SessionID
	if key == "" {
		key = event.EventID
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
		Time: event.OccurredAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write event %s: %w", event.EventID, err)
	}

	p.logger.Debug().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Msg("activity event published")
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}
