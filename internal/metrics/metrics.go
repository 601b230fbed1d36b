package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "massage_http_requests_total",
			Help: "HTTP requests served, by method and status.",
		},
		[]string{"method", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "massage_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "massage_chat_messages_sent_total",
			Help: "Chat messages persisted.",
		},
	)

	ChatConflictsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "massage_chat_create_conflicts_total",
			Help: "Racing chat creates resolved by re-reading the winner.",
		},
	)

	BookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "massage_bookings_created_total",
			Help: "Bookings accepted.",
		},
	)
)
