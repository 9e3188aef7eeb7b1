// Package metrics 定义服务暴露给 Prometheus 的指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReactionsToggled counts like toggles by target type and outcome (liked/unliked).
	ReactionsToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "karmafeed_reactions_toggled_total",
		Help: "Total number of like toggles by target type and result",
	}, []string{"target", "result"})

	// KarmaCredited counts karma events appended to the ledger by cause.
	KarmaCredited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "karmafeed_karma_credited_total",
		Help: "Total number of karma events appended by cause",
	}, []string{"cause"})

	// CommentsCreated counts comments by kind (root/reply).
	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "karmafeed_comments_created_total",
		Help: "Total number of comments created",
	}, []string{"kind"})

	// LeaderboardRefreshes counts snapshot recomputations by trigger and status.
	LeaderboardRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "karmafeed_leaderboard_refreshes_total",
		Help: "Total number of leaderboard snapshot refreshes",
	}, []string{"trigger", "status"})

	// HTTPRequestDuration records request latency by method, route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "karmafeed_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
