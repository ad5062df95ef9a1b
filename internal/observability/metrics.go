package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the OLASIS service.
// Metrics are organized by subsystem: search, upstream sources, chat, suggestions,
// stats, sessions and activity events. All collectors are registered via promauto
// with the default Prometheus registry.
type Metrics struct {
	// SearchRequests counts aggregated search requests, labeled by outcome.
	SearchRequests *prometheus.CounterVec

	// SearchResults observes the number of records fetched per search, labeled by source.
	SearchResults *prometheus.HistogramVec

	// SearchDuration observes end-to-end search aggregation latency in seconds.
	SearchDuration prometheus.Histogram

	// UpstreamRequestsTotal counts upstream HTTP calls, labeled by source and outcome
	// (ok, network, status, decode).
	UpstreamRequestsTotal *prometheus.CounterVec

	// UpstreamRequestDuration observes upstream HTTP latency in seconds, labeled by source.
	UpstreamRequestDuration *prometheus.HistogramVec

	// ChatTurns counts assistant turns, labeled by language, turn kind and status.
	ChatTurns *prometheus.CounterVec

	// ChatDuration observes assistant turn latency in seconds, labeled by language.
	ChatDuration *prometheus.HistogramVec

	// ChatResets counts explicit session resets.
	ChatResets prometheus.Counter

	// SuggestionsServed counts suggestion requests, labeled by mode (context, field, adaptive, fallback).
	SuggestionsServed *prometheus.CounterVec

	// StatsFallbacks counts stats snapshots that used a hardcoded fallback, labeled by source.
	StatsFallbacks *prometheus.CounterVec

	// ActiveSessions reports the number of sessions held by the in-memory store.
	ActiveSessions prometheus.Gauge

	// EventsPublished counts activity events handed to the publisher, labeled by type and outcome.
	EventsPublished *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SearchRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of aggregated search requests",
		}, []string{"outcome"}),
		SearchResults: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of records fetched per search",
			Buckets:   []float64{0, 1, 6, 12, 25, 50, 100, 200},
		}, []string{"source"}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of aggregated searches in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		UpstreamRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream HTTP requests",
		}, []string{"source", "outcome"}),
		UpstreamRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of upstream HTTP requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		ChatTurns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Total number of assistant turns",
		}, []string{"lang", "turn", "status"}),
		ChatDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_duration_seconds",
			Help:      "Duration of assistant turns in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"lang"}),
		ChatResets: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_resets_total",
			Help:      "Total number of explicit chat session resets",
		}),
		SuggestionsServed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_served_total",
			Help:      "Total number of suggestion requests served",
		}, []string{"mode"}),
		StatsFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_fallbacks_total",
			Help:      "Total number of stats lookups answered with a fallback value",
		}, []string{"source"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of chat sessions held in memory",
		}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of activity events handed to the publisher",
		}, []string{"type", "outcome"}),
	}
}

// Recording methods are no-ops on a nil *Metrics so components can run without
// a registry in tests and CLIs.

// RecordSearch records a completed aggregated search.
func (m *Metrics) RecordSearch(outcome string, articles, specialists int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SearchRequests.WithLabelValues(outcome).Inc()
	m.SearchResults.WithLabelValues("openalex").Observe(float64(articles))
	m.SearchResults.WithLabelValues("orcid").Observe(float64(specialists))
	m.SearchDuration.Observe(durationSeconds)
}

// RecordUpstreamRequest records an upstream HTTP call.
func (m *Metrics) RecordUpstreamRequest(source, outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(source, outcome).Inc()
	m.UpstreamRequestDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordChatTurn records an assistant turn.
func (m *Metrics) RecordChatTurn(lang, turn, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ChatTurns.WithLabelValues(lang, turn, status).Inc()
	m.ChatDuration.WithLabelValues(lang).Observe(durationSeconds)
}

// RecordChatReset records an explicit session reset.
func (m *Metrics) RecordChatReset() {
	if m == nil {
		return
	}
	m.ChatResets.Inc()
}

// RecordSuggestions records a suggestion request by mode.
func (m *Metrics) RecordSuggestions(mode string) {
	if m == nil {
		return
	}
	m.SuggestionsServed.WithLabelValues(mode).Inc()
}

// RecordStatsFallback records a stats lookup that fell back to a fixed value.
func (m *Metrics) RecordStatsFallback(source string) {
	if m == nil {
		return
	}
	m.StatsFallbacks.WithLabelValues(source).Inc()
}

// SetActiveSessions sets the in-memory session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// RecordEventPublished records an activity event publish attempt.
func (m *Metrics) RecordEventPublished(eventType, outcome string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType, outcome).Inc()
}
