package brokerkit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// WithTransport sets the transport used for every attempt.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithBaseURL installs an HTTPTransport over net/http for the given base
// URL, with an optional custom *http.Client (nil uses a 30s-timeout
// default).
func WithBaseURL(baseURL string, httpClient *http.Client) Option {
	return func(c *Client) {
		c.transport = NewHTTPTransport(baseURL, httpClient)
	}
}

// WithCredentials sets the credential provider consulted before each
// attempt.
func WithCredentials(provider CredentialProvider) Option {
	return func(c *Client) {
		c.creds = provider
	}
}

// WithBackoffSchedule sets retry pacing. Zero fields keep their defaults.
func WithBackoffSchedule(schedule BackoffSchedule) Option {
	return func(c *Client) {
		c.schedule = schedule.withDefaults()
	}
}

// WithRetryPolicy replaces the default retry policy entirely.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.retryPolicy = policy
	}
}

// WithRateLimit configures every endpoint group with a sliding-window
// limiter admitting count requests per window.
func WithRateLimit(count int, window time.Duration) Option {
	return func(c *Client) {
		c.newLimiter = func() Limiter { return NewSlidingWindowLimiter(count, window) }
	}
}

// WithTokenBucketRateLimit configures every endpoint group with a
// token-bucket limiter refilling at rps with the given burst.
func WithTokenBucketRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.newLimiter = func() Limiter { return NewTokenBucketLimiter(rps, burst) }
	}
}

// WithCircuitBreaker sets the breaker configuration applied per endpoint
// group.
func WithCircuitBreaker(config BreakerConfig) Option {
	return func(c *Client) {
		c.breakerConfig = config.withDefaults()
	}
}

// WithCache enables response caching for idempotent descriptors using an
// in-memory LRU cache of the given capacity and default TTL.
func WithCache(capacity int, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = NewMemoryCache(capacity)
		c.cacheTTL = ttl
	}
}

// WithCustomCache sets a custom cache implementation, e.g. NewRedisCache.
func WithCustomCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithDeduplication coalesces concurrent identical idempotent requests onto
// a single transport call.
func WithDeduplication() Option {
	return func(c *Client) {
		c.dedup = new(singleflight.Group)
	}
}

// WithBulkConcurrency bounds the number of concurrent executions inside
// ExecuteAll. Default 8.
func WithBulkConcurrency(n int) Option {
	return func(c *Client) {
		c.bulkConcurrency = n
	}
}

// WithMiddleware appends middleware to the transport chain.
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsRegistry enables Prometheus metrics on a custom registerer,
// useful for test isolation.
func WithMetricsRegistry(registry prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollectorWithRegistry(registry)
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables debug logging with the default stage flags.
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		if c.logger == nil {
			c.logger = NewSimpleLogger()
		}
	}
}

// WithDebugConfig sets per-stage debug flags. A nil config keeps the
// defaults.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		if config != nil {
			c.debug = config
		}
	}
}

// ValidateConfiguration checks the assembled configuration. New runs it
// once; an invalid client fails every Execute with the returned error.
func (c *Client) ValidateConfiguration() error {
	var problems []string

	if c.transport == nil {
		problems = append(problems, "transport must be set (WithTransport or WithBaseURL)")
	}

	if c.schedule.BaseDelay <= 0 {
		problems = append(problems, "backoff BaseDelay must be positive")
	}
	if c.schedule.MaxDelay < c.schedule.BaseDelay {
		problems = append(problems, "backoff MaxDelay must be >= BaseDelay")
	}
	if c.schedule.Multiplier <= 0 {
		problems = append(problems, "backoff Multiplier must be positive")
	}
	if c.schedule.MaxAttempts <= 0 {
		problems = append(problems, "MaxAttempts must be positive")
	}
	if c.schedule.Jitter < 0 || c.schedule.Jitter > 1 {
		problems = append(problems, "Jitter must be between 0 and 1")
	}

	if c.breakerConfig.FailureThreshold <= 0 {
		problems = append(problems, "breaker FailureThreshold must be positive")
	}
	if c.breakerConfig.FailureWindow <= 0 {
		problems = append(problems, "breaker FailureWindow must be positive")
	}
	if c.breakerConfig.RecoveryTimeout <= 0 {
		problems = append(problems, "breaker RecoveryTimeout must be positive")
	}

	if c.cache != nil && c.cacheTTL <= 0 {
		problems = append(problems, "cache TTL must be positive when caching is enabled")
	}

	if c.bulkConcurrency <= 0 {
		problems = append(problems, "bulk concurrency must be positive")
	}

	if c.debug != nil && c.debug.Enabled && c.logger == nil {
		problems = append(problems, "logger must be set when debug logging is enabled")
	}

	if len(problems) > 0 {
		return &RequestError{
			Kind:    KindValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", problems),
		}
	}
	return nil
}
