package brokerkit

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind is the closed set of failure classifications produced by the
// client. Both the retry policy and the circuit breaker consume these.
type ErrorKind string

const (
	// KindRateLimited means the server signalled throttling (HTTP 429),
	// distinct from a local limiter delay which never errors.
	KindRateLimited ErrorKind = "RateLimited"
	// KindCircuitOpen means the breaker short-circuited the request before
	// any transport call was made.
	KindCircuitOpen ErrorKind = "CircuitOpen"
	// KindTimeout means an attempt exceeded its deadline.
	KindTimeout ErrorKind = "Timeout"
	// KindTransport means a connection-level failure.
	KindTransport ErrorKind = "Transport"
	// KindClient means a 4xx response other than 429. Fatal, never retried.
	KindClient ErrorKind = "Client"
	// KindServer means a 5xx response. Retryable.
	KindServer ErrorKind = "Server"
	// KindCancelled means the caller aborted the request.
	KindCancelled ErrorKind = "Cancelled"
	// KindExhaustedRetries means the retry budget was spent; the error wraps
	// the last underlying failure.
	KindExhaustedRetries ErrorKind = "ExhaustedRetries"
	// KindValidation means the client configuration or descriptor is invalid.
	KindValidation ErrorKind = "Validation"
)

// Sentinel errors for common failure scenarios.
var (
	// ErrCircuitOpen is returned when the circuit breaker is in open state.
	ErrCircuitOpen = errors.New("brokerkit: circuit open")

	// ErrRetriesExhausted is returned when the attempt budget is spent.
	ErrRetriesExhausted = errors.New("brokerkit: retries exhausted")
)

// RequestError is the structured error returned by Execute and ExecuteAll.
type RequestError struct {
	Kind       ErrorKind
	Message    string
	Cause      error
	Group      string
	Method     string
	Path       string
	StatusCode int
	Attempt    int
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Method != "" || e.Path != "" {
		msg = fmt.Sprintf("%s [%s %s]", msg, e.Method, e.Path)
	}
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d)", msg, e.Attempt)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches either a *RequestError of the same kind or the corresponding
// sentinel error, so callers may use errors.Is(err, ErrCircuitOpen).
func (e *RequestError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrCircuitOpen:
		return e.Kind == KindCircuitOpen
	case ErrRetriesExhausted:
		return e.Kind == KindExhaustedRetries
	}
	if targetErr, ok := target.(*RequestError); ok {
		return e.Kind == targetErr.Kind
	}
	return false
}

// KindOf extracts the ErrorKind from err, or "" when err is nil or foreign.
func KindOf(err error) ErrorKind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// Classify maps an attempt outcome to an ErrorKind. A zero kind means the
// attempt succeeded. The same classification feeds the retry policy and the
// circuit breaker.
func Classify(res *Response, err error) ErrorKind {
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return KindCancelled
		case errors.Is(err, context.DeadlineExceeded):
			return KindTimeout
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return KindTimeout
		}
		return KindTransport
	}
	if res == nil {
		return KindTransport
	}
	switch {
	case res.StatusCode == 429:
		return KindRateLimited
	case res.StatusCode >= 500:
		return KindServer
	case res.StatusCode >= 400:
		return KindClient
	}
	return ""
}

// IsRetryable reports whether an outcome of the given kind may be retried.
// Server throttling, 5xx, timeouts and transport failures qualify; circuit
// short-circuits and cancellations are terminal, and client errors are fatal.
func IsRetryable(kind ErrorKind) bool {
	switch kind {
	case KindRateLimited, KindTimeout, KindTransport, KindServer:
		return true
	default:
		return false
	}
}
