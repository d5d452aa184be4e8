// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ModerationTransitions counts approve/reject/republish attempts by kind and outcome.
	ModerationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vacancyhub_moderation_transitions_total",
		Help: "Moderation transitions by action, posting kind and outcome",
	}, []string{"action", "kind", "outcome"})

	// Publications counts channel publication attempts after approval.
	Publications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vacancyhub_publications_total",
		Help: "Channel publication attempts by posting kind and result",
	}, []string{"kind", "result"})

	// Submissions counts accepted and refused submissions.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vacancyhub_submissions_total",
		Help: "Posting submissions by kind and outcome",
	}, []string{"kind", "outcome"})

	// NotifierFailures counts swallowed outbound messaging failures.
	NotifierFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vacancyhub_notifier_failures_total",
		Help: "Outbound Telegram calls that failed and were swallowed",
	}, []string{"operation"})

	// TelegramRequestLatency records Bot API call latency.
	TelegramRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vacancyhub_telegram_request_latency_seconds",
		Help:    "Telegram Bot API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vacancyhub_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheLookups counts cache-aside reads by outcome (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vacancyhub_cache_lookups_total",
		Help: "Cache-aside lookups by outcome",
	}, []string{"outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vacancyhub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FeedConnections is the number of live moderation feed sockets.
	FeedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vacancyhub_feed_connections",
		Help: "Active moderation feed WebSocket connections",
	})

	// FeedDropped counts events skipped for feed clients whose buffer was full.
	FeedDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vacancyhub_feed_dropped_events_total",
		Help: "Moderation feed events dropped for lagging clients",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// TrackTelegram returns a function that records Bot API latency when called.
func TrackTelegram(method string) func() {
	start := time.Now()
	return func() {
		TelegramRequestLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
}
