// Package metrics exposes the gateway's Prometheus collectors. All
// collectors are registered on the default registry and served by the
// /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsCreated counts payment requests accepted, by network.
	PaymentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainpay",
		Subsystem: "settlement",
		Name:      "payments_created_total",
		Help:      "Payment requests created.",
	}, []string{"network"})

	// PaymentsTransitioned counts terminal transitions, by outcome.
	PaymentsTransitioned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainpay",
		Subsystem: "settlement",
		Name:      "payments_transitioned_total",
		Help:      "Payment requests moved to a terminal status.",
	}, []string{"status"})

	// SweepFailed counts payment requests failed by the expiry sweep.
	SweepFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chainpay",
		Subsystem: "settlement",
		Name:      "sweep_failed_total",
		Help:      "Stale pending requests failed by the expiry sweep.",
	})

	// WebhookDeliveries counts webhook delivery attempts, by result.
	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainpay",
		Subsystem: "webhook",
		Name:      "deliveries_total",
		Help:      "Webhook delivery attempts.",
	}, []string{"result"})

	// HTTPRequestDuration observes API latency by route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chainpay",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
