// Package brokerkit is a resilient client core for rate-limited brokerage
// and market-data HTTP APIs. It mediates every logical request through
// composable reliability layers:
//
//   - Sliding-window rate limiting per endpoint group (blocking admission,
//     token-bucket variant available)
//   - Circuit breaker per endpoint group (closed / open / half-open, single
//     probe during recovery)
//   - Retries with exponential backoff + jitter, honouring Retry-After
//   - TTL + LRU response caching for idempotent reads (in-memory or Redis)
//   - Bulk dispatch with bounded concurrency and input-ordered results
//   - Request de-duplication for identical in-flight reads
//   - Credential injection with a single fresh-token retry on auth rejection
//   - Prometheus metrics and lightweight structured debug logging
//
// Business endpoints stay outside the core: callers describe a remote
// operation with a RequestDescriptor and hand it to Execute or ExecuteAll.
//
// Typical usage:
//
//	client := brokerkit.New(
//	    brokerkit.WithBaseURL("https://api.example.com", nil),
//	    brokerkit.WithCredentials(brokerkit.NewStaticCredentials(token)),
//	    brokerkit.WithRateLimit(60, time.Minute),
//	    brokerkit.WithCache(1024, 5*time.Minute),
//	    brokerkit.WithCircuitBreaker(brokerkit.BreakerConfig{}),
//	)
//	res, err := client.Execute(ctx, brokerkit.Get("quotes", "/v1/quotes", params))
//
// Each endpoint group ("orders", "quotes", ...) owns independent limiter and
// breaker state; a fresh Client gets fresh state, so tests never share
// registries.
package brokerkit
