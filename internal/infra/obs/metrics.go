package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bmrengine/internal/app/middleware"
	"bmrengine/internal/infra/outbox"
)

// Metrics holds the Prometheus collectors for estimates, cache and event relay.
type Metrics struct {
	gatherer        prometheus.Gatherer
	estimatesTotal  *prometheus.CounterVec
	estimateSeconds *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	eventsPublished *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. A nil reg gets a private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		estimatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bmr_estimates_total",
			Help: "Total estimate requests by method and outcome.",
		}, []string{"method", "outcome"}),
		estimateSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bmr_estimate_duration_seconds",
			Help:    "Histogram of estimate durations by method.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"method"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmr_cache_hits_total",
			Help: "Total estimate cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmr_cache_misses_total",
			Help: "Total estimate cache misses.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bmr_events_published_total",
			Help: "Outbox events relayed to the broker by topic and result.",
		}, []string{"topic", "result"}),
	}
	reg.MustRegister(
		m.estimatesTotal,
		m.estimateSeconds,
		m.cacheHits,
		m.cacheMisses,
		m.eventsPublished,
	)
	return m
}

func (m *Metrics) ObserveEstimate(method, outcome string, elapsed time.Duration) {
	m.estimatesTotal.WithLabelValues(method, outcome).Inc()
	m.estimateSeconds.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) ObservePublish(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsPublished.WithLabelValues(topic, result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

var (
	_ middleware.EstimateRecorder = (*Metrics)(nil)
	_ middleware.CacheObserver    = (*Metrics)(nil)
	_ outbox.PublishObserver      = (*Metrics)(nil)
)
