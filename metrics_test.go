package brokerkit

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCollectorRecordsLifecycle(t *testing.T) {
	registry := prometheus.NewRegistry()
	mc := NewMetricsCollectorWithRegistry(registry)

	mc.RecordRequest("GET", "quotes", 200, 25*time.Millisecond)
	mc.RecordRequest("GET", "quotes", 200, 30*time.Millisecond)
	mc.RecordRequest("POST", "orders", 500, 10*time.Millisecond)

	if got := testutil.ToFloat64(mc.requestsTotal.WithLabelValues("GET", "quotes", "200")); got != 2 {
		t.Errorf("requests_total{GET,quotes,200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(mc.requestsTotal.WithLabelValues("POST", "orders", "500")); got != 1 {
		t.Errorf("requests_total{POST,orders,500} = %v, want 1", got)
	}

	mc.RecordRequestStart("GET", "quotes")
	if got := testutil.ToFloat64(mc.requestsInFlight.WithLabelValues("GET", "quotes")); got != 1 {
		t.Errorf("requests_in_flight = %v, want 1", got)
	}
	mc.RecordRequestEnd("GET", "quotes")
	if got := testutil.ToFloat64(mc.requestsInFlight.WithLabelValues("GET", "quotes")); got != 0 {
		t.Errorf("requests_in_flight = %v, want 0", got)
	}

	mc.RecordRetry("GET", "quotes", 1)
	mc.RecordCacheHit("GET", "quotes")
	mc.RecordCacheMiss("GET", "quotes")
	mc.RecordCacheSize("default", 7)
	mc.RecordDeduplicationHit("GET", "quotes")
	mc.RecordError(KindServer, "GET", "quotes")
	mc.RecordCircuitBreakerState("quotes", StateHalfOpen)
	mc.RecordLimiterWait("quotes", 5*time.Millisecond)

	if got := testutil.ToFloat64(mc.cacheHits.WithLabelValues("GET", "quotes")); got != 1 {
		t.Errorf("cache_hits_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(mc.errorsTotal.WithLabelValues("Server", "GET", "quotes")); got != 1 {
		t.Errorf("errors_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(mc.circuitBreakerState.WithLabelValues("quotes")); got != float64(StateHalfOpen) {
		t.Errorf("circuit_breaker_state = %v, want %v", got, float64(StateHalfOpen))
	}
}

func TestMetricsCollectorNilSafe(t *testing.T) {
	var mc *MetricsCollector

	// A client without metrics passes a nil collector through every path.
	mc.RecordRequest("GET", "quotes", 200, time.Millisecond)
	mc.RecordRequestStart("GET", "quotes")
	mc.RecordRequestEnd("GET", "quotes")
	mc.RecordRetry("GET", "quotes", 1)
	mc.RecordCircuitBreakerState("quotes", StateOpen)
	mc.RecordLimiterWait("quotes", time.Millisecond)
	mc.RecordCacheHit("GET", "quotes")
	mc.RecordCacheMiss("GET", "quotes")
	mc.RecordCacheSize("default", 0)
	mc.RecordDeduplicationHit("GET", "quotes")
	mc.RecordError(KindServer, "GET", "quotes")
}

func TestClientWithMetricsRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	transport := &fakeTransport{fn: func(call int, req *Request) (*Response, error) {
		return okResponse(), nil
	}}
	client := New(WithTransport(transport), WithMetricsRegistry(registry), WithCache(16, time.Minute))

	desc := Get("quotes", "/v1/quotes", nil)
	client.Execute(context.Background(), desc)
	client.Execute(context.Background(), desc)

	if got := testutil.ToFloat64(client.metrics.cacheMisses.WithLabelValues("GET", "quotes")); got != 1 {
		t.Errorf("cache_misses_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(client.metrics.cacheHits.WithLabelValues("GET", "quotes")); got != 1 {
		t.Errorf("cache_hits_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(client.metrics.requestsTotal.WithLabelValues("GET", "quotes", "200")); got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
}
