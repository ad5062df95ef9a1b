package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/olasis/olasis-service/internal/domain"
)

// Handler processes one consumed activity event.
type Handler func(ctx context.Context, event domain.ActivityEvent) error

// messageReader is the subset of *kafka.Reader used by Listener.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ListenerConfig holds configuration for the activity listener.
type ListenerConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the activity topic.
	Topic string
	// GroupID is the consumer group ID. Empty reads without a group from the
	// latest offset.
	GroupID string
}

// Listener consumes activity events from Kafka and passes them to a Handler.
type Listener struct {
	reader  messageReader
	handler Handler
	logger  zerolog.Logger
}

// NewListener creates a new activity listener.
func NewListener(cfg ListenerConfig, handler Handler, logger zerolog.Logger) *Listener {
	readerCfg := kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  3 * time.Second,
	}
	if cfg.GroupID == "" {
		readerCfg.StartOffset = kafka.LastOffset
	}

	return newListener(kafka.NewReader(readerCfg), handler, logger)
}

func newListener(reader messageReader, handler Handler, logger zerolog.Logger) *Listener {
	return &Listener{
		reader:  reader,
		handler: handler,
		logger:  logger.With().Str("component", "activity_listener").Logger(),
	}
}

// Run starts the listener loop. Blocks until context is cancelled.
// Undecodable messages and handler errors are logged and skipped.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info().Msg("starting activity listener")
	defer l.reader.Close()

	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info().Msg("activity listener stopped via context cancellation")
				return ctx.Err()
			}
			l.logger.Error().Err(err).Msg("failed to read message from Kafka")
			continue
		}

		l.logger.Debug().
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("received activity event")

		var event domain.ActivityEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			l.logger.Error().Err(err).
				Str("raw_value", string(msg.Value)).
				Msg("failed to unmarshal activity event")
			continue
		}

		if err := l.handler(ctx, event); err != nil {
			l.logger.Error().Err(fmt.Errorf("handle %s: %w", event.EventType, err)).
				Str("event_id", event.EventID).
				Msg("failed to handle activity event")
		}
	}
}
