package brokerkit

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

// Client mediates all calls to a rate-limited, occasionally unreliable
// remote API. It layers response caching, per-group circuit breaking and
// rate limiting, retry with backoff, and credential injection around an
// abstract Transport. It is safe for concurrent use.
type Client struct {
	transport  Transport
	middleware []Middleware
	creds      CredentialProvider

	retryPolicy RetryPolicy
	schedule    BackoffSchedule

	breakerConfig BreakerConfig
	newLimiter    func() Limiter
	groups        *groupRegistry

	cache    Cache
	cacheTTL time.Duration

	dedup *singleflight.Group

	bulkConcurrency int
	dispatcher      *BulkDispatcher

	metrics *MetricsCollector
	debug   *DebugConfig
	logger  Logger

	validationError error
}

// New constructs a Client from functional options. Configuration is
// validated once; an invalid client fails every Execute with the
// validation error.
func New(options ...Option) *Client {
	client := &Client{
		schedule:        BackoffSchedule{}.withDefaults(),
		breakerConfig:   BreakerConfig{}.withDefaults(),
		newLimiter:      func() Limiter { return noopLimiter{} },
		cacheTTL:        5 * time.Minute,
		bulkConcurrency: 8,
		debug:           DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}

	if client.retryPolicy == nil {
		client.retryPolicy = NewRetryPolicy(client.schedule)
	}
	client.groups = newGroupRegistry(client.newLimiter, func() *CircuitBreaker {
		return NewCircuitBreaker(client.breakerConfig)
	})
	client.dispatcher = NewBulkDispatcher(client, client.bulkConcurrency)

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Execute performs one logical request: cache lookup, circuit breaker
// check, rate limiter admission, transport call, outcome classification and
// retries, then cache fill on terminal success for idempotent descriptors.
func (c *Client) Execute(ctx context.Context, desc *RequestDescriptor) (*Response, error) {
	if c.validationError != nil {
		return nil, c.validationError
	}
	if err := desc.validate(); err != nil {
		return nil, err
	}

	group := desc.group()
	start := time.Now()

	c.metrics.RecordRequestStart(desc.Method, group)
	defer c.metrics.RecordRequestEnd(desc.Method, group)

	if c.debug.Enabled && c.debug.LogRequests && c.logger != nil {
		c.logger.Debug("starting request", "method", desc.Method, "path", desc.Path, "group", group)
	}

	ttl := c.ttlFor(desc)
	cacheable := c.cache != nil && desc.Idempotent && ttl > 0

	var key string
	if cacheable || (c.dedup != nil && desc.Idempotent) {
		key = desc.CacheKey()
	}

	if cacheable {
		if entry, ok := c.cache.Get(key); ok {
			if c.debug.Enabled && c.debug.LogCache && c.logger != nil {
				c.logger.Debug("cache hit", "key", key)
			}
			c.metrics.RecordCacheHit(desc.Method, group)
			c.metrics.RecordRequest(desc.Method, group, entry.Response.StatusCode, time.Since(start))
			return entry.Response, nil
		}
		c.metrics.RecordCacheMiss(desc.Method, group)
	}

	res, err := c.coalesce(ctx, desc, group, key)

	statusCode := 0
	if res != nil {
		statusCode = res.StatusCode
	}
	c.metrics.RecordRequest(desc.Method, group, statusCode, time.Since(start))
	if err != nil {
		c.metrics.RecordError(KindOf(err), desc.Method, group)
	}

	// Cancelled attempts never populate the cache.
	if cacheable && err == nil && ctx.Err() == nil && res.StatusCode < 400 {
		c.cache.Set(key, &CacheEntry{Response: res}, ttl)
		if mem, ok := c.cache.(*MemoryCache); ok {
			c.metrics.RecordCacheSize("default", mem.Len())
		}
		if c.debug.Enabled && c.debug.LogCache && c.logger != nil {
			c.logger.Debug("response cached", "key", key, "ttl", ttl)
		}
	}

	return res, err
}

// ExecuteAll fans out independent descriptors through the client's bulk
// dispatcher. See BulkDispatcher.ExecuteAll.
func (c *Client) ExecuteAll(ctx context.Context, descs []*RequestDescriptor) []Result {
	return c.dispatcher.ExecuteAll(ctx, descs)
}

// coalesce merges concurrent identical idempotent requests so only one
// transport call is in flight per key.
func (c *Client) coalesce(ctx context.Context, desc *RequestDescriptor, group, key string) (*Response, error) {
	if c.dedup == nil || !desc.Idempotent {
		return c.run(ctx, desc, group)
	}

	v, err, shared := c.dedup.Do(key, func() (any, error) {
		return c.run(ctx, desc, group)
	})
	if shared {
		c.metrics.RecordDeduplicationHit(desc.Method, group)
	}
	if v == nil {
		return nil, err
	}
	return v.(*Response), err
}

// run is the attempt loop. The breaker is checked once per logical request;
// every attempt re-acquires the limiter and reports its outcome to the
// breaker.
func (c *Client) run(ctx context.Context, desc *RequestDescriptor, group string) (*Response, error) {
	breaker := c.groups.breaker(group)
	limiter := c.groups.limiter(group)

	if !breaker.Allow() {
		if c.debug.Enabled && c.debug.LogCircuit && c.logger != nil {
			c.logger.Warn("circuit open, short-circuiting", "group", group, "method", desc.Method, "path", desc.Path)
		}
		c.metrics.RecordCircuitBreakerState(group, breaker.State())
		return nil, &RequestError{
			Kind:    KindCircuitOpen,
			Message: "circuit breaker is open",
			Group:   group,
			Method:  desc.Method,
			Path:    desc.Path,
		}
	}

	authRetried := false
	for attempt := 0; ; attempt++ {
		waitStart := time.Now()
		if err := limiter.Acquire(ctx); err != nil {
			// The cancelled wait recorded no admission.
			breaker.RecordAbandon()
			return nil, c.cancelled(desc, group, attempt, err)
		}
		if wait := time.Since(waitStart); wait > 0 {
			c.metrics.RecordLimiterWait(group, wait)
			if wait > time.Millisecond && c.debug.Enabled && c.debug.LogRateLimit && c.logger != nil {
				c.logger.Debug("rate limiter delay", "group", group, "wait", wait)
			}
		}

		req, err := c.buildRequest(ctx, desc)
		if err != nil {
			breaker.RecordAbandon()
			return nil, err
		}

		if attempt > 0 {
			c.metrics.RecordRetry(desc.Method, group, attempt)
			if c.debug.Enabled && c.debug.LogRetries && c.logger != nil {
				c.logger.Info("retry attempt", "attempt", attempt, "method", desc.Method, "path", desc.Path, "group", group)
			}
		}

		res, sendErr := c.send(ctx, req)
		kind := Classify(res, sendErr)

		if kind == KindCancelled {
			breaker.RecordAbandon()
			return nil, c.cancelled(desc, group, attempt, sendErr)
		}

		// Transport-level and 5xx failures drive the breaker; 4xx and
		// server throttling reflect the caller, not remote health.
		switch kind {
		case KindServer, KindTransport, KindTimeout:
			breaker.RecordFailure()
		default:
			breaker.RecordSuccess()
		}
		c.metrics.RecordCircuitBreakerState(group, breaker.State())

		if kind == "" {
			return res, nil
		}

		// An auth-rejected response earns one fresh-token retry per
		// request, outside the normal retry budget.
		if kind == KindClient && res != nil && res.StatusCode == http.StatusUnauthorized &&
			c.creds != nil && !authRetried {
			authRetried = true
			if invErr := c.creds.Invalidate(ctx); invErr == nil {
				if c.debug.Enabled && c.debug.LogRetries && c.logger != nil {
					c.logger.Info("auth rejected, retrying with fresh token", "method", desc.Method, "path", desc.Path)
				}
				continue
			}
		}

		lastErr := c.attemptError(kind, desc, group, res, sendErr, attempt)

		if !IsRetryable(kind) {
			return nil, lastErr
		}

		delay, retry := c.retryPolicy.ShouldRetry(res, kind, attempt)
		if !retry {
			return nil, &RequestError{
				Kind:    KindExhaustedRetries,
				Message: "retry budget exhausted",
				Cause:   lastErr,
				Group:   group,
				Method:  desc.Method,
				Path:    desc.Path,
				Attempt: attempt + 1,
			}
		}

		if c.debug.Enabled && c.debug.LogRetries && c.logger != nil {
			c.logger.Info("scheduling retry", "attempt", attempt+1, "backoff", delay, "group", group)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, c.cancelled(desc, group, attempt, ctx.Err())
		}
	}
}

// buildRequest materializes a descriptor, merging descriptor headers and the
// current auth token. The descriptor itself is never mutated.
func (c *Client) buildRequest(ctx context.Context, desc *RequestDescriptor) (*Request, error) {
	header := make(http.Header, len(desc.Header)+1)
	for k, values := range desc.Header {
		for _, v := range values {
			header.Add(k, v)
		}
	}

	if c.creds != nil {
		token, err := c.creds.Token(ctx)
		if err != nil {
			return nil, &RequestError{
				Kind:    KindTransport,
				Message: "credential provider failed",
				Cause:   err,
				Group:   desc.group(),
				Method:  desc.Method,
				Path:    desc.Path,
			}
		}
		if token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	return &Request{
		Method: desc.Method,
		Path:   desc.Path,
		Query:  desc.Params,
		Header: header,
		Body:   desc.Body,
	}, nil
}

// send runs the middleware chain ending at the transport. The first
// registered middleware is outermost.
func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	if len(c.middleware) == 0 {
		return c.transport.Send(ctx, req)
	}

	current := c.transport
	for i := len(c.middleware) - 1; i >= 0; i-- {
		mw := c.middleware[i]
		next := current
		current = TransportFunc(func(ctx context.Context, r *Request) (*Response, error) {
			return mw(ctx, r, next)
		})
	}
	return current.Send(ctx, req)
}

func (c *Client) attemptError(kind ErrorKind, desc *RequestDescriptor, group string, res *Response, cause error, attempt int) *RequestError {
	e := &RequestError{
		Kind:    kind,
		Cause:   cause,
		Group:   group,
		Method:  desc.Method,
		Path:    desc.Path,
		Attempt: attempt + 1,
	}
	if res != nil {
		e.StatusCode = res.StatusCode
	}
	switch kind {
	case KindRateLimited:
		e.Message = "server rate limit exceeded"
	case KindServer:
		e.Message = "server error"
	case KindClient:
		e.Message = "client error"
	case KindTimeout:
		e.Message = "request timed out"
	default:
		e.Message = "transport failure"
	}
	return e
}

func (c *Client) cancelled(desc *RequestDescriptor, group string, attempt int, cause error) *RequestError {
	kind := KindCancelled
	if cause == context.DeadlineExceeded {
		kind = KindTimeout
	}
	return &RequestError{
		Kind:    kind,
		Message: "request aborted",
		Cause:   cause,
		Group:   group,
		Method:  desc.Method,
		Path:    desc.Path,
		Attempt: attempt + 1,
	}
}

func (c *Client) ttlFor(desc *RequestDescriptor) time.Duration {
	if desc.CacheTTL > 0 {
		return desc.CacheTTL
	}
	return c.cacheTTL
}

// RegisterLimiter installs a group-specific limiter, overriding the default
// factory for that group.
func (c *Client) RegisterLimiter(group string, l Limiter) {
	c.groups.setLimiter(group, l)
}

// RegisterBreaker installs a group-specific circuit breaker.
func (c *Client) RegisterBreaker(group string, b *CircuitBreaker) {
	c.groups.setBreaker(group, b)
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the construction-time validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// noopLimiter admits everything; used when no rate limit is configured.
type noopLimiter struct{}

func (noopLimiter) Acquire(ctx context.Context) error {
	return ctx.Err()
}
