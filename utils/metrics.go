package utils

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	HTTPInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "benefits",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "benefits",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "benefits",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	// AccrualRuns counts accrual calls by outcome: credited, noop, baseline, race.
	AccrualRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "benefits",
			Subsystem: "loyalty",
			Name:      "accrual_runs_total",
			Help:      "Accrual calls by outcome.",
		},
		[]string{"outcome"},
	)

	AccruedDays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "benefits",
			Subsystem: "loyalty",
			Name:      "accrued_days_total",
			Help:      "Total member-days credited.",
		},
	)

	// BonusClaims counts monthly bonus attempts by outcome: granted, already_claimed.
	BonusClaims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "benefits",
			Subsystem: "loyalty",
			Name:      "bonus_claims_total",
			Help:      "Monthly bonus claim attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		HTTPInFlight,
		HTTPRequests,
		HTTPDuration,
		AccrualRuns,
		AccruedDays,
		BonusClaims,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// MetricsHandler exposes the registry in the Prometheus text format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
