package events

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/observability"
)

// mockPublisher implements Publisher for testing.
type mockPublisher struct {
	publishFn func(ctx context.Context, event domain.ActivityEvent) error
	events    []domain.ActivityEvent
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.ActivityEvent) error {
	if m.publishFn != nil {
		if err := m.publishFn(ctx, event); err != nil {
			return err
		}
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func TestEmitter_Emit(t *testing.T) {
	t.Run("publishes event with request ID", func(t *testing.T) {
		publisher := &mockPublisher{}
		metrics := observability.NewMetrics("test_events_emit_ok")
		emitter := NewEmitter(publisher, zerolog.Nop(), metrics)

		ctx := observability.WithRequestID(context.Background(), "req-42")
		emitter.Emit(ctx, domain.EventTypeSearchPerformed, "sess-1", domain.SearchPerformedPayload{
			Query: "ecologia", Page: 2, ArticlesTotal: 50, SpecialistsTotal: 12,
		})

		require.Len(t, publisher.events, 1)
		event := publisher.events[0]
		assert.NotEmpty(t, event.EventID)
		assert.Equal(t, domain.EventTypeSearchPerformed, event.EventType)
		assert.Equal(t, "sess-1", event.SessionID)
		assert.Equal(t, "req-42", event.RequestID)
		assert.JSONEq(t, `{"query":"ecologia","page":2,"articles_total":50,"specialists_total":12}`, string(event.Payload))
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(domain.EventTypeSearchPerformed, "ok")))
	})

	t.Run("swallows publish errors", func(t *testing.T) {
		publisher := &mockPublisher{publishFn: func(ctx context.Context, event domain.ActivityEvent) error {
			return errors.New("unavailable")
		}}
		metrics := observability.NewMetrics("test_events_emit_err")
		emitter := NewEmitter(publisher, zerolog.Nop(), metrics)

		emitter.Emit(context.Background(), domain.EventTypeChatReset, "s", struct{}{})

		assert.Empty(t, publisher.events)
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(domain.EventTypeChatReset, "error")))
	})

	t.Run("unmarshalable payload is dropped", func(t *testing.T) {
		publisher := &mockPublisher{}
		emitter := NewEmitter(publisher, zerolog.Nop(), nil)

		emitter.Emit(context.Background(), domain.EventTypeChatReset, "s", make(chan int))

		assert.Empty(t, publisher.events)
	})

	t.Run("nil emitter is a no-op", func(t *testing.T) {
		var emitter *Emitter
		assert.NotPanics(t, func() {
			emitter.Emit(context.Background(), domain.EventTypeChatReset, "s", nil)
		})
		assert.NoError(t, emitter.Close())
	})

	t.Run("nil publisher defaults to nop", func(t *testing.T) {
		emitter := NewEmitter(nil, zerolog.Nop(), nil)
		assert.NotPanics(t, func() {
			emitter.Emit(context.Background(), domain.EventTypeChatReset, "s", nil)
		})
	})
}
