// Package events publishes OLASIS activity events.
//
// # Overview
//
// Searches, chat turns, session resets and suggestion requests are reported
// as domain.ActivityEvent values so downstream analytics can consume them
// without touching the request path. Publishing is best effort: failures are
// logged and counted, never returned to the HTTP caller.
//
// # Components
//
//   - Emitter: builds events enriched with the request ID and hands them to a Publisher
//   - KafkaPublisher: writes JSON events to a Kafka topic, keyed by session ID
//   - NopPublisher: discards events; used when events.enabled is false
//   - Listener: consumes the activity topic (used by olasisctl events tail)
//
// # Event Types
//
//   - search.performed: an aggregated search completed
//   - chat.answered: the assistant produced a reply (ok, error or unavailable)
//   - chat.reset: a session was reset
//   - suggestions.served: a suggestion list was returned
//
// # Usage
//
//	publisher := events.NewKafkaPublisher(events.KafkaConfig{
//	    Brokers: cfg.Events.Brokers,
//	    Topic:   cfg.Events.Topic,
//	}, logger, metrics)
//	emitter := events.NewEmitter(publisher, logger, metrics)
//	emitter.Emit(ctx, domain.EventTypeSearchPerformed, sessionID, payload)
package events
