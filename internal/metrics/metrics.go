package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for inbound HTTP traffic and the
// sync engine.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	syncRuns        *prometheus.CounterVec
	syncDuration    *prometheus.HistogramVec
	webhookEvents   *prometheus.CounterVec
	skippedTicks    *prometheus.CounterVec
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockelevate",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockelevate",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	syncRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockelevate",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Total number of platform sync runs by outcome.",
	}, []string{"platform", "status"})

	syncDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockelevate",
		Subsystem: "sync",
		Name:      "run_duration_seconds",
		Help:      "Duration of platform sync runs.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"platform"})

	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockelevate",
		Subsystem: "webhook",
		Name:      "events_total",
		Help:      "Total number of inbound webhook events by outcome.",
	}, []string{"family", "provider", "status"})

	skippedTicks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockelevate",
		Subsystem: "sync",
		Name:      "skipped_ticks_total",
		Help:      "Scheduler ticks skipped because the previous run was still in flight.",
	}, []string{"cadence"})

	for _, c := range []prometheus.Collector{
		requestDuration, requestTotal, syncRuns, syncDuration, webhookEvents, skippedTicks,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		syncRuns:        syncRuns,
		syncDuration:    syncDuration,
		webhookEvents:   webhookEvents,
		skippedTicks:    skippedTicks,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveSyncRun records one completed (or failed) platform sync run.
func (c *Collector) ObserveSyncRun(platform, status string, duration time.Duration) {
	c.syncRuns.WithLabelValues(platform, status).Inc()
	c.syncDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// ObserveWebhookEvent records one inbound webhook delivery.
func (c *Collector) ObserveWebhookEvent(family, provider, status string) {
	c.webhookEvents.WithLabelValues(family, provider, status).Inc()
}

// ObserveSkippedTick records a scheduler tick skipped due to overlap.
func (c *Collector) ObserveSkippedTick(cadence string) {
	c.skippedTicks.WithLabelValues(cadence).Inc()
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
