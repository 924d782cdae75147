// Package metrics exposes the Prometheus collectors for the foundation site.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Option func(*Registry)

func WithNamespace(namespace string) Option {
	return func(r *Registry) {
		r.namespace = namespace
	}
}

func WithHistogramBuckets(buckets []float64) Option {
	return func(r *Registry) {
		r.buckets = buckets
	}
}

// WithoutRuntimeCollectors skips the Go and process collectors, mostly for tests.
func WithoutRuntimeCollectors() Option {
	return func(r *Registry) {
		r.runtime = false
	}
}

type Registry struct {
	namespace string
	buckets   []float64
	runtime   bool
	registry  *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	statsDuration prometheus.Histogram
	statsFailures prometheus.Counter
	donations     *prometheus.CounterVec
	evaluations   prometheus.Counter
	photoUploads  *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
}

func New(opts ...Option) *Registry {
	r := &Registry{
		namespace: "fundacion",
		buckets:   prometheus.DefBuckets,
		runtime:   true,
		registry:  prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.runtime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	auto := promauto.With(r.registry)

	r.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	r.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route",
		Buckets:   r.buckets,
	}, []string{"method", "route"})

	r.statsDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "donations",
		Name:      "stats_duration_seconds",
		Help:      "Time spent computing a donor's donation stats",
		Buckets:   r.buckets,
	})

	r.statsFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "donations",
		Name:      "stats_failures_total",
		Help:      "Donation stats computations aborted by a lookup error",
	})

	r.donations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "donations",
		Name:      "status_changes_total",
		Help:      "Donations created or moved to a new status",
	}, []string{"status"})

	r.evaluations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "beneficiaries",
		Name:      "evaluations_total",
		Help:      "Evaluations recorded for beneficiaries",
	})

	r.photoUploads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "beneficiaries",
		Name:      "photo_uploads_total",
		Help:      "Beneficiary photo uploads by outcome",
	}, []string{"outcome"})

	r.webhookEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "payments",
		Name:      "webhook_events_total",
		Help:      "Stripe webhook events by type and whether they changed a donation",
	}, []string{"type", "handled"})

	return r
}

func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (r *Registry) ObserveStats(elapsed time.Duration, err error) {
	if err != nil {
		r.statsFailures.Inc()
		return
	}
	r.statsDuration.Observe(elapsed.Seconds())
}

func (r *Registry) DonationStatus(status string) {
	r.donations.WithLabelValues(status).Inc()
}

func (r *Registry) EvaluationRecorded() {
	r.evaluations.Inc()
}

func (r *Registry) PhotoUpload(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.photoUploads.WithLabelValues(outcome).Inc()
}

func (r *Registry) WebhookEvent(eventType string, handled bool) {
	r.webhookEvents.WithLabelValues(eventType, strconv.FormatBool(handled)).Inc()
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
