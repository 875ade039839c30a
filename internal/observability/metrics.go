// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kizuna_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// MatchesFormed counts matches created by formation pathway.
	MatchesFormed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kizuna_matches_formed_total",
		Help: "Total number of matches formed, by pathway",
	}, []string{"pathway"})

	// ChatRequestsResolved counts chat requests moved to a terminal state.
	ChatRequestsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kizuna_chat_requests_resolved_total",
		Help: "Total number of chat requests accepted or declined",
	}, []string{"outcome"})

	// WebSocketChatConnections is the gauge of live connections per chat.
	WebSocketChatConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kizuna_websocket_chat_connections",
		Help: "Number of WebSocket connections per chat",
	}, []string{"chat_id"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kizuna_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// MessageThroughput counts messages fanned out per chat.
	MessageThroughput = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kizuna_message_throughput_total",
		Help: "Total number of chat messages processed",
	}, []string{"chat_id", "origin"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kizuna_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
