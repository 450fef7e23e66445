// Package metrics provides Prometheus metrics for news-relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusRejected = "rejected"
	StatusSkipped  = "skipped"
)

var (
	// FetchTotal counts article fetches by outcome.
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsrelay",
			Name:      "article_fetch_total",
			Help:      "Total number of article fetches",
		},
		[]string{"status"},
	)

	// FetchDuration measures the backend round trip of a fetch.
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "newsrelay",
			Name:      "article_fetch_duration_seconds",
			Help:      "Duration of backend article queries in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	NotificationsPresented = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsrelay",
			Name:      "notifications_presented_total",
			Help:      "Total number of notifications handed to a surface",
		},
		[]string{"source", "status"},
	)

	TokenRegistrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsrelay",
			Name:      "token_registrations_total",
			Help:      "Device token registrations with the news API",
		},
		[]string{"status"},
	)

	TopicOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsrelay",
			Name:      "topic_operations_total",
			Help:      "Topic subscribe and unsubscribe requests",
		},
		[]string{"operation", "status"},
	)

	// TaskQueueDepth tracks the number of queued background tasks.
	TaskQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "newsrelay",
			Name:      "task_queue_depth",
			Help:      "Number of background tasks waiting for a worker",
		},
	)
)
