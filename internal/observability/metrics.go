package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sales"

// Record outcomes counted by RecordsTotal.
const (
	OutcomeRead     = "read"
	OutcomeSkipped  = "skipped"
	OutcomeInvalid  = "invalid"
	OutcomeFiltered = "filtered"
	OutcomeValid    = "valid"
)

// Metrics owns a private registry so tests and multiple servers never collide
// on the global one. All methods are safe on a nil receiver.
type Metrics struct {
	registry          *prometheus.Registry
	RecordsTotal      *prometheus.CounterVec
	EnrichmentTotal   *prometheus.CounterVec
	CatalogFetches    *prometheus.CounterVec
	AnalysisDuration  prometheus.Histogram
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RecordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Sales log records by ingest outcome.",
		}, []string{"outcome"}),
		EnrichmentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_total",
			Help:      "Transactions by catalog match result.",
		}, []string{"result"}),
		CatalogFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fetches_total",
			Help:      "Product catalog fetches by result.",
		}, []string{"result"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent building a full analytics report.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RecordsTotal,
		m.EnrichmentTotal,
		m.CatalogFetches,
		m.AnalysisDuration,
		m.HTTPRequestsTotal,
		m.HTTPDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AddRecords(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsTotal.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) ObserveEnrichment(matched, total int) {
	if m == nil {
		return
	}
	m.EnrichmentTotal.WithLabelValues("matched").Add(float64(matched))
	m.EnrichmentTotal.WithLabelValues("unmatched").Add(float64(total - matched))
}

func (m *Metrics) ObserveCatalogFetch(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CatalogFetches.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveAnalysis(d time.Duration) {
	if m == nil {
		return
	}
	m.AnalysisDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
