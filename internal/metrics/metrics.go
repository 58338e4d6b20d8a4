package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analytics service.
type Metrics struct {
	registry *prometheus.Registry

	// Analysis engine
	AnalysesTotal   *prometheus.CounterVec // labels: recommendation
	AnalysisErrors  *prometheus.CounterVec // labels: stage
	AnalysisDur     prometheus.Histogram
	BarsAnalyzed    prometheus.Histogram
	LastConfidence  *prometheus.GaugeVec // labels: symbol
	IndicatorsSaved prometheus.Counter

	// Ingestion
	BarsIngested    *prometheus.CounterVec // labels: source
	EventsRejected  *prometheus.CounterVec // labels: reason
	PublishFailures *prometheus.CounterVec // labels: publisher

	// HTTP
	HTTPRequests *prometheus.CounterVec // labels: route, method, status
	HTTPDur      *prometheus.HistogramVec
}

// New creates the metrics on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_analyses_total",
			Help: "Completed analyses by recommendation",
		}, []string{"recommendation"}),
		AnalysisErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_analysis_errors_total",
			Help: "Failed analyses by stage (load, analyze, store)",
		}, []string{"stage"}),
		AnalysisDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analytics_analysis_duration_seconds",
			Help:    "Engine compute latency per analysis",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		BarsAnalyzed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analytics_bars_per_analysis",
			Help:    "Number of price bars fed to each analysis",
			Buckets: []float64{1, 15, 26, 50, 100, 250, 500, 1000},
		}),
		LastConfidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "analytics_last_confidence",
			Help: "Confidence of the latest analysis per symbol",
		}, []string{"symbol"}),
		IndicatorsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_indicator_values_saved_total",
			Help: "Indicator values written to the database",
		}),

		BarsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_bars_ingested_total",
			Help: "Price bars stored by source (http, kafka)",
		}, []string{"source"}),
		EventsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_events_rejected_total",
			Help: "Price events rejected by reason",
		}, []string{"reason"}),
		PublishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_publish_failures_total",
			Help: "Failed result publications by publisher",
		}, []string{"publisher"}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.AnalysesTotal,
		m.AnalysisErrors,
		m.AnalysisDur,
		m.BarsAnalyzed,
		m.LastConfidence,
		m.IndicatorsSaved,
		m.BarsIngested,
		m.EventsRejected,
		m.PublishFailures,
		m.HTTPRequests,
		m.HTTPDur,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry holding the service metrics
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis records one successful analysis
func (m *Metrics) ObserveAnalysis(symbol, recommendation string, confidence float64, bars int, took time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(recommendation).Inc()
	m.AnalysisDur.Observe(took.Seconds())
	m.BarsAnalyzed.Observe(float64(bars))
	m.LastConfidence.WithLabelValues(symbol).Set(confidence)
}

// AnalysisFailed records a failed analysis at the given stage
func (m *Metrics) AnalysisFailed(stage string) {
	if m == nil {
		return
	}
	m.AnalysisErrors.WithLabelValues(stage).Inc()
}

// IndicatorValuesSaved records stored indicator values
func (m *Metrics) IndicatorValuesSaved(n int) {
	if m == nil {
		return
	}
	m.IndicatorsSaved.Add(float64(n))
}

// Ingested records stored price bars
func (m *Metrics) Ingested(source string, n int) {
	if m == nil {
		return
	}
	m.BarsIngested.WithLabelValues(source).Add(float64(n))
}

// Rejected records a rejected price event
func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.EventsRejected.WithLabelValues(reason).Inc()
}

// PublishFailed records a failed publication
func (m *Metrics) PublishFailed(publisher string) {
	if m == nil {
		return
	}
	m.PublishFailures.WithLabelValues(publisher).Inc()
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(route, method, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
	m.HTTPDur.WithLabelValues(route).Observe(took.Seconds())
}
