package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cafe_pos",
		Name:      "cache_hits_total",
		Help:      "Read-through cache hits.",
	}, []string{"backend"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cafe_pos",
		Name:      "cache_misses_total",
		Help:      "Read-through cache misses, including expired and undecodable entries.",
	}, []string{"backend"})

	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cafe_pos",
		Name:      "cache_invalidations_total",
		Help:      "Explicit cache invalidations after writes.",
	}, []string{"kind"})

	TicketsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cafe_pos",
		Name:      "tickets_created_total",
		Help:      "Tickets persisted.",
	})

	CounterFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cafe_pos",
		Name:      "ticket_counter_fallbacks_total",
		Help:      "Ticket numbers handed out from the wall clock because the counter was unavailable.",
	})

	OrdersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cafe_pos",
		Name:      "orders_submitted_total",
		Help:      "Teacher orders accepted for processing, by delivery type.",
	}, []string{"delivery_type"})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cafe_pos",
		Name:      "order_transitions_total",
		Help:      "Order status transitions, by target status and outcome.",
	}, []string{"status", "outcome"})

	PendingOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cafe_pos",
		Name:      "pending_orders",
		Help:      "Orders currently pending on the cashier board.",
	})

	BoardClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cafe_pos",
		Name:      "board_stream_clients",
		Help:      "Connected SSE clients on the pending orders stream.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cafe_pos",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route pattern and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cafe_pos",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)
