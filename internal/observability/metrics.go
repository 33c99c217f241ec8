// Package observability holds the Prometheus collectors for the pipeline and HTTP API.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "autoblog"

var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "generations_total",
			Help:      "Total number of generation runs by final status",
		},
		[]string{"status"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "generation_duration_seconds",
			Help:      "Wall time of a generation run including fallbacks",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	GeneratedScriptChars = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "script_chars",
			Help:      "Script-range character count of generated bodies",
			Buckets:   []float64{200, 500, 1000, 1600, 2000, 3000, 5000},
		},
	)

	RefinementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "refinements_total",
			Help:      "Total number of refinements by kind and status",
		},
		[]string{"kind", "status"},
	)

	BackendAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "attempts_total",
			Help:      "Backend attempts by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	BackendCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Backend call duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120},
		},
		[]string{"backend"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 30, 120},
		},
		[]string{"method", "route"},
	)
)

// RecordAttempt counts one backend attempt and its latency.
func RecordAttempt(backend, outcome string, elapsed time.Duration) {
	BackendAttemptsTotal.WithLabelValues(backend, outcome).Inc()
	BackendCallDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// RecordGeneration counts a finished generation run.
func RecordGeneration(status string, elapsed time.Duration, scriptChars int) {
	GenerationsTotal.WithLabelValues(status).Inc()
	GenerationDuration.Observe(elapsed.Seconds())
	if status == "success" {
		GeneratedScriptChars.Observe(float64(scriptChars))
	}
}

// RecordRefinement counts a finished refinement.
func RecordRefinement(kind string, succeeded bool) {
	status := "success"
	if !succeeded {
		status = "failure"
	}
	RefinementsTotal.WithLabelValues(kind, status).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
