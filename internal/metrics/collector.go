// Package metrics exposes Prometheus metrics for the evaluation pipeline.
// All methods are safe on a nil *Collector, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram

	extractionsTotal *prometheus.CounterVec

	scoringStrategyTotal  *prometheus.CounterVec
	scoringFallbacksTotal *prometheus.CounterVec
}

// NewCollector registers every metric on a private registry along with the
// Go runtime and process collectors.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		evaluationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Evaluations by outcome (success, invalid, error)",
		}, []string{"outcome"}),
		evaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "End-to-end duration of successful evaluations",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		extractionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "text_extractions_total",
			Help:      "Text extractions by image role and outcome (text, empty, failed)",
		}, []string{"role", "outcome"}),
		scoringStrategyTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_strategy_total",
			Help:      "Scores produced, by the strategy that produced them",
		}, []string{"strategy"}),
		scoringFallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_fallbacks_total",
			Help:      "Scoring strategy failures that fell through to the next strategy",
		}, []string{"strategy"}),
	}
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (c *Collector) RecordEvaluation(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.evaluationsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		c.evaluationDuration.Observe(duration.Seconds())
	}
}

func (c *Collector) RecordExtraction(role, outcome string) {
	if c == nil {
		return
	}
	c.extractionsTotal.WithLabelValues(role, outcome).Inc()
}

func (c *Collector) ObserveScoringStrategy(strategy string) {
	if c == nil {
		return
	}
	c.scoringStrategyTotal.WithLabelValues(strategy).Inc()
}

func (c *Collector) ObserveScoringFallback(strategy string) {
	if c == nil {
		return
	}
	c.scoringFallbacksTotal.WithLabelValues(strategy).Inc()
}

const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"

	ExtractionText   = "text"
	ExtractionEmpty  = "empty"
	ExtractionFailed = "failed"
)
