// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aistudio"

// Metrics owns a private registry so tests and multiple servers do not collide.
type Metrics struct {
	registry        *prometheus.Registry
	CatalogSearches *prometheus.CounterVec
	Recommendations *prometheus.CounterVec
	Forwarded       *prometheus.CounterVec
	Imports         *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CatalogSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_searches_total",
			Help:      "Catalog searches by provenance of the returned entries.",
		}, []string{"source"}),
		Recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendations by origin (ai or rules).",
		}, []string{"origin"}),
		Forwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forwarder_requests_total",
			Help:      "Requests relayed to the processing service by operation and outcome.",
		}, []string{"op", "outcome"}),
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Dataset imports and auto-fetches by source.",
		}, []string{"source"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	m.registry.MustRegister(
		m.CatalogSearches,
		m.Recommendations,
		m.Forwarded,
		m.Imports,
		m.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records RequestDuration labelled by the matched chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

// The record helpers below are safe on a nil *Metrics.

func (m *Metrics) SearchServed(source string) {
	if m != nil {
		m.CatalogSearches.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) Recommended(origin string) {
	if m != nil {
		m.Recommendations.WithLabelValues(origin).Inc()
	}
}

func (m *Metrics) Forward(op, outcome string) {
	if m != nil {
		m.Forwarded.WithLabelValues(op, outcome).Inc()
	}
}

func (m *Metrics) Imported(source string) {
	if m != nil {
		m.Imports.WithLabelValues(source).Inc()
	}
}
