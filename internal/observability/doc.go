// Package observability provides logging and metrics support for the OLASIS
// service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for searches, upstream calls, chat turns, and suggestions
//   - Context helpers for propagating request and session identifiers
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("session_id", sessionID).Msg("chat turn answered")
//
// # Metrics
//
//	metrics := observability.NewMetrics("olasis")
//	metrics.RecordUpstreamRequest("openalex", "ok", 0.21)
//	metrics.RecordChatTurn("es", "first", "ok", 1.7)
//
// # Standard Fields
//
//   - request_id: chi request identifier
//   - session_id: chat session identifier
//   - query: user search query
//   - source: upstream source (openalex, orcid)
//   - lang: resolved conversation language
//
// All components are safe for concurrent use from multiple goroutines.
package observability
