package brokerkit

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request lifecycle and
// the reliability layers. It is safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal *prometheus.CounterVec

	circuitBreakerState *prometheus.GaugeVec

	limiterWait *prometheus.HistogramVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec

	dedupHits *prometheus.CounterVec

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector on the supplied
// registerer, letting tests isolate metrics per instance.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brokerkit_requests_total",
				Help: "Total number of logical requests executed",
			},
			[]string{"method", "group", "status_code"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brokerkit_request_duration_seconds",
				Help:    "End-to-end duration of logical requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "group", "status_code"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brokerkit_requests_in_flight",
				Help: "Number of logical requests currently in flight",
			},
			[]string{"method", "group"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brokerkit_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"method", "group", "attempt"},
		),
		circuitBreakerState: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brokerkit_circuit_breaker_state",
				Help: "Circuit breaker state per group (0=closed, 1=open, 2=half-open)",
			},
			[]string{"group"},
		),
		limiterWait: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brokerkit_rate_limiter_wait_seconds",
				Help:    "Time spent waiting for rate limiter admission",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"group"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brokerkit_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"method", "group"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brokerkit_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"method", "group"},
		),
		cacheSize: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brokerkit_cache_size",
				Help: "Current number of entries in cache",
			},
			[]string{"name"},
		),
		dedupHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brokerkit_deduplication_hits_total",
				Help: "Requests coalesced onto an identical in-flight request",
			},
			[]string{"method", "group"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "brokerkit_errors_total",
				Help: "Total number of terminal errors by kind",
			},
			[]string{"kind", "method", "group"},
		),
	}
}

// RecordRequest records request count and duration.
func (mc *MetricsCollector) RecordRequest(method, group string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}
	code := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, group, code).Inc()
	mc.requestDuration.WithLabelValues(method, group, code).Observe(duration.Seconds())
}

// RecordRequestStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(method, group string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(method, group).Inc()
}

// RecordRequestEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(method, group string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(method, group).Dec()
}

// RecordRetry increments the retry counter for an attempt.
func (mc *MetricsCollector) RecordRetry(method, group string, attempt int) {
	if mc == nil {
		return
	}
	mc.retriesTotal.WithLabelValues(method, group, strconv.Itoa(attempt)).Inc()
}

// RecordCircuitBreakerState sets the breaker state gauge for a group.
func (mc *MetricsCollector) RecordCircuitBreakerState(group string, state CircuitState) {
	if mc == nil {
		return
	}
	mc.circuitBreakerState.WithLabelValues(group).Set(float64(state))
}

// RecordLimiterWait observes time spent waiting for admission.
func (mc *MetricsCollector) RecordLimiterWait(group string, wait time.Duration) {
	if mc == nil {
		return
	}
	mc.limiterWait.WithLabelValues(group).Observe(wait.Seconds())
}

// RecordCacheHit increments the cache hit counter.
func (mc *MetricsCollector) RecordCacheHit(method, group string) {
	if mc == nil {
		return
	}
	mc.cacheHits.WithLabelValues(method, group).Inc()
}

// RecordCacheMiss increments the cache miss counter.
func (mc *MetricsCollector) RecordCacheMiss(method, group string) {
	if mc == nil {
		return
	}
	mc.cacheMisses.WithLabelValues(method, group).Inc()
}

// RecordCacheSize sets the cache size gauge.
func (mc *MetricsCollector) RecordCacheSize(name string, size int) {
	if mc == nil {
		return
	}
	mc.cacheSize.WithLabelValues(name).Set(float64(size))
}

// RecordDeduplicationHit increments the dedup hit counter.
func (mc *MetricsCollector) RecordDeduplicationHit(method, group string) {
	if mc == nil {
		return
	}
	mc.dedupHits.WithLabelValues(method, group).Inc()
}

// RecordError increments the terminal error counter by kind.
func (mc *MetricsCollector) RecordError(kind ErrorKind, method, group string) {
	if mc == nil {
		return
	}
	mc.errorsTotal.WithLabelValues(string(kind), method, group).Inc()
}
