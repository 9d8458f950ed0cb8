// Package metrics holds the process-wide prometheus collectors. They are
// served by the api on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicketsIssued counts requests sent with a ticket, by kind.
	TicketsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorepane_tickets_issued_total",
		Help: "Requests dispatched to workers by kind",
	}, []string{"kind"})

	TicketsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scorepane_tickets_pending",
		Help: "Continuations waiting for a response",
	})

	// Responses counts worker responses by outcome: resolved, error, unexpected, malformed.
	Responses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorepane_responses_total",
		Help: "Worker responses by outcome",
	}, []string{"outcome"})

	WorkerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorepane_worker_messages_total",
		Help: "Messages handled by workers by kind and result",
	}, []string{"kind", "result"})

	WorkerRenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scorepane_worker_render_duration_seconds",
		Help:    "Time spent by the engine rendering one page",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	Views = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scorepane_views",
		Help: "Live views",
	})

	PagesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorepane_pages_rendered_total",
		Help: "Page markups applied to a content surface",
	})

	EditsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorepane_edits_committed_total",
		Help: "Edit requests issued by drag gestures",
	})
)
