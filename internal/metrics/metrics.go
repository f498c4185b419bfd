// Package metrics declares the Prometheus collectors shared by the lifecycle
// and advice components and exposes them over HTTP.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PoliciesSubmitted counts policy quotes by category.
	PoliciesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_policies_submitted_total",
			Help: "Total number of policy quotes submitted",
		},
		[]string{"category"},
	)

	// ClaimsFiled counts accepted claims.
	ClaimsFiled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lifecycle_claims_filed_total",
			Help: "Total number of claims filed",
		},
	)

	// Transitions counts status writes by entity and target status. No-op
	// re-applications are recorded with outcome "noop".
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_status_transitions_total",
			Help: "Total number of status transitions applied",
		},
		[]string{"entity", "status", "outcome"},
	)

	// AdviceRequests counts advice calls by outcome (reply or fallback).
	AdviceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advice_requests_total",
			Help: "Total number of advice requests",
		},
		[]string{"outcome"},
	)

	// AdviceDuration observes provider latency.
	AdviceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "advice_provider_duration_seconds",
			Help:    "Duration of advice provider calls",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30},
		},
	)
)

// Handler serves the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
