package events

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/observability"
)

// Emitter builds activity events and hands them to a Publisher.
// A nil *Emitter discards everything, so components can run without one.
type Emitter struct {
	publisher Publisher
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewEmitter creates an Emitter. metrics may be nil.
func NewEmitter(publisher Publisher, logger zerolog.Logger, metrics *observability.Metrics) *Emitter {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Emitter{
		publisher: publisher,
		logger:    logger.With().Str("component", "events").Logger(),
		metrics:   metrics,
	}
}

// Emit publishes an event of eventType for sessionID. The request ID is
// taken from ctx. Failures are logged and counted; Emit never fails the caller.
func (e *Emitter) Emit(ctx context.Context, eventType, sessionID string, payload any) {
	if e == nil {
		return
	}

	event, err := domain.NewActivityEvent(eventType, sessionID, payload)
	if err != nil {
		e.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to build activity event")
		e.metrics.RecordEventPublished(eventType, "error")
		return
	}
	event.WithRequestID(observability.RequestIDFromContext(ctx))

	if err := e.publisher.Publish(ctx, *event); err != nil {
		e.logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Str("event_id", event.EventID).
			Msg("failed to publish activity event")
		e.metrics.RecordEventPublished(eventType, "error")
		return
	}
	if r, ok := e.publisher.(deliveryReporter); ok && r.reportsDelivery() {
		return
	}
	e.metrics.RecordEventPublished(eventType, "ok")
}

// Close releases the underlying publisher.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	return e.publisher.Close()
}
