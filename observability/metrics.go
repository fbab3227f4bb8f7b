// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the 2048 server.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// TileBuckets covers tile values from 2 up to 65536
var TileBuckets = prometheus.ExponentialBuckets(2, 2, 16)

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tile2048_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tile2048_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// MovesTotal counts directional inputs by direction and outcome.
	MovesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tile2048_moves_total",
			Help: "Directional inputs processed",
		},
		[]string{"direction", "accepted"},
	)

	// MergesTotal counts merged tiles across all accepted moves.
	MergesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tile2048_merges_total",
			Help: "Tiles created by merging two equal tiles",
		},
	)

	// GamesOverTotal counts games that reached a terminal grid.
	GamesOverTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tile2048_games_over_total",
			Help: "Games that ended with no legal move",
		},
	)

	// FinalMaxTile records the largest tile of every finished game.
	FinalMaxTile = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tile2048_final_max_tile",
			Help:    "Largest tile on the grid when a game ends",
			Buckets: TileBuckets,
		},
	)

	// SessionsActive tracks the number of live sessions.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tile2048_sessions_active",
			Help: "Live game sessions",
		},
	)

	// WebSocketConnections tracks connected WebSocket viewers.
	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tile2048_websocket_connections_active",
			Help: "Active WebSocket connections",
		},
	)

	// ToolCallsTotal counts MCP tool calls by name and outcome.
	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tile2048_mcp_tool_calls_total",
			Help: "MCP tool calls",
		},
		[]string{"tool_name", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		MovesTotal,
		MergesTotal,
		GamesOverTotal,
		FinalMaxTile,
		SessionsActive,
		WebSocketConnections,
		ToolCallsTotal,
	)
}

// RecordMove counts one directional input
func RecordMove(direction string, accepted bool) {
	MovesTotal.WithLabelValues(direction, strconv.FormatBool(accepted)).Inc()
}

// RecordMerges counts the merges of one move
func RecordMerges(n int) {
	if n > 0 {
		MergesTotal.Add(float64(n))
	}
}

// RecordGameOver counts a finished game and its largest tile
func RecordGameOver(maxTile int) {
	GamesOverTotal.Inc()
	FinalMaxTile.Observe(float64(maxTile))
}

// RecordToolCall counts one MCP tool call
func RecordToolCall(tool string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
}
