package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: prometheus/promauto registers metrics globally, so we need to use
// unique namespaces per test to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_olasis_new")

	assert.NotNil(t, m.SearchRequests)
	assert.NotNil(t, m.SearchResults)
	assert.NotNil(t, m.SearchDuration)
	assert.NotNil(t, m.UpstreamRequestsTotal)
	assert.NotNil(t, m.UpstreamRequestDuration)
	assert.NotNil(t, m.ChatTurns)
	assert.NotNil(t, m.ChatDuration)
	assert.NotNil(t, m.ChatResets)
	assert.NotNil(t, m.SuggestionsServed)
	assert.NotNil(t, m.StatsFallbacks)
	assert.NotNil(t, m.ActiveSessions)
	assert.NotNil(t, m.EventsPublished)
}

func TestRecordSearch(t *testing.T) {
	m := NewMetrics("test_record_search")

	m.RecordSearch("ok", 13, 4, 0.8)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchRequests.WithLabelValues("ok")))
	histCount, err := getHistogramSampleCount(m.SearchDuration)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordUpstreamRequest(t *testing.T) {
	m := NewMetrics("test_record_upstream")

	m.RecordUpstreamRequest("openalex", "ok", 0.2)
	m.RecordUpstreamRequest("openalex", "status", 0.1)
	m.RecordUpstreamRequest("orcid", "ok", 0.3)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("openalex", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("openalex", "status")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("orcid", "ok")))
}

func TestRecordChatTurn(t *testing.T) {
	m := NewMetrics("test_record_chat_turn")

	m.RecordChatTurn("es", "first", "ok", 1.2)
	m.RecordChatTurn("es", "follow_up", "error", 0.4)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ChatTurns.WithLabelValues("es", "first", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ChatTurns.WithLabelValues("es", "follow_up", "error")))
}

func TestRecordCountersAndGauge(t *testing.T) {
	m := NewMetrics("test_record_misc")

	m.RecordChatReset()
	m.RecordSuggestions("adaptive")
	m.RecordStatsFallback("orcid")
	m.RecordEventPublished("chat.answered", "ok")
	m.SetActiveSessions(7)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ChatResets))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SuggestionsServed.WithLabelValues("adaptive")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StatsFallbacks.WithLabelValues("orcid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsPublished.WithLabelValues("chat.answered", "ok")))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.ActiveSessions))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordSearch("ok", 1, 1, 0.1)
		m.RecordUpstreamRequest("openalex", "ok", 0.1)
		m.RecordChatTurn("en", "first", "ok", 0.1)
		m.RecordChatReset()
		m.RecordSuggestions("context")
		m.RecordStatsFallback("openalex")
		m.SetActiveSessions(1)
		m.RecordEventPublished("search.performed", "ok")
	})
}

// getHistogramSampleCount extracts the sample count from a histogram.
func getHistogramSampleCount(h prometheus.Histogram) (uint64, error) {
	ch := make(chan prometheus.Metric, 1)
	h.Collect(ch)
	close(ch)

	var m prometheus.Metric
	for m = range ch {
		break
	}

	var metric = &dto.Metric{}
	if err := m.Write(metric); err != nil {
		return 0, err
	}

	return metric.Histogram.GetSampleCount(), nil
}
