package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeSuccess         = "success"
	outcomeParseError      = "parse_error"
	outcomeValidationError = "validation_error"
	outcomeInferenceError  = "inference_error"
)

type Metrics struct {
	registry *prometheus.Registry

	Estimates            *prometheus.CounterVec
	EstimateLatency      prometheus.Histogram
	HistoryWriteFailures prometheus.Counter
	MailPublishFailures  prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resale_estimates_total",
			Help: "Estimation requests by outcome.",
		}, []string{"outcome", "category"}),
		EstimateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "resale_estimate_duration_seconds",
			Help:    "Time spent validating, encoding and running inference.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		HistoryWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resale_history_write_failures_total",
			Help: "Successful estimates that could not be saved to the user's history.",
		}),
		MailPublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resale_mail_publish_failures_total",
			Help: "Mails that could not be queued for delivery.",
		}),
	}

	m.registry.MustRegister(
		m.Estimates,
		m.EstimateLatency,
		m.HistoryWriteFailures,
		m.MailPublishFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) ObserveEstimate(outcome, category string, elapsed time.Duration) {
	m.Estimates.WithLabelValues(outcome, category).Inc()
	m.EstimateLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
