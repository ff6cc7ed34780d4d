package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mac_assistant_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "mac_assistant_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	CommandCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mac_assistant_commands_total",
			Help: "Total number of processed commands by category and status",
		},
		[]string{"category", "status"},
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mac_assistant_command_duration_seconds",
			Help:    "Command pipeline latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
		[]string{"category"},
	)

	FallbackAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mac_assistant_fallback_attempts_total",
			Help: "Fallback strategy attempts by outcome",
		},
		[]string{"strategy", "outcome"},
	)

	FallbackLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "mac_assistant_fallback_latency_seconds",
			Help: "Fallback strategy latency in seconds",
		},
		[]string{"strategy"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mac_assistant_active_ws_sessions",
			Help: "Number of connected websocket clients",
		},
	)
)

// ObserveCommand 记录一次命令处理
func ObserveCommand(category, status string, elapsed time.Duration) {
	CommandCount.WithLabelValues(category, status).Inc()
	CommandDuration.WithLabelValues(category).Observe(elapsed.Seconds())
}

// ObserveFallback 记录一次兜底策略尝试，签名与 fallback.Observer 一致
func ObserveFallback(strategy, outcome string, elapsed time.Duration) {
	FallbackAttempts.WithLabelValues(strategy, outcome).Inc()
	if elapsed > 0 {
		FallbackLatency.WithLabelValues(strategy).Observe(elapsed.Seconds())
	}
}
