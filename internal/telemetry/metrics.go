// Package telemetry holds the Prometheus collectors and HTTP instrumentation.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "radioqueue"

// Registry is scoped to this process so tests can read it without touching
// the global default registry.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

var (
	// DeliveriesTotal counts encoder polls by outcome: delivered, provisional, error.
	DeliveriesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deliveries_total",
		Help:      "Encoder delivery attempts by outcome.",
	}, []string{"result"})

	// AutofillRunsTotal counts autofill passes by outcome.
	AutofillRunsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "autofill_runs_total",
		Help:      "Autofill passes by outcome.",
	}, []string{"result"})

	// CandidatesTotal counts how each recommendation candidate was handled.
	CandidatesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendation_candidates_total",
		Help:      "Recommendation candidates by outcome.",
	}, []string{"outcome"})

	PendingTracks = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_tracks",
		Help:      "Tracks waiting for delivery, as seen by the last queue read.",
	})

	SweptTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expired_rows_deleted_total",
		Help:      "Delivered rows removed after their quarantine window.",
	})

	APIRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "endpoint", "status"})

	APIRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	APIActiveConnections = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_active_requests",
		Help:      "Requests currently being served.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
