package brokerkit

import (
	"context"
	"net/http"
	"net/url"
)

// DefaultGroup is the endpoint group used when a descriptor does not name one.
const DefaultGroup = "default"

// Request is the materialized form of a RequestDescriptor handed to a
// Transport. The base URL is owned by the transport; Path and Query describe
// the remote operation.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Transport performs a single exchange with the remote service. The core
// never assumes a specific network stack; HTTPTransport is the stock
// implementation.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Send implements Transport.
func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware wraps a Transport for cross-cutting concerns (tracing, extra
// headers, request logging). Middleware run in registration order, the first
// registered being outermost.
type Middleware func(ctx context.Context, req *Request, next Transport) (*Response, error)

// CredentialProvider supplies an auth token on demand. The client calls
// Token before each transport attempt and Invalidate once per request after
// an auth-rejected response, then retries with a fresh token.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context) error
}

// Limiter admits requests for one endpoint group. Acquire blocks until a
// slot is admissible or ctx is cancelled; it never errors for rate reasons.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Option configures a Client.
type Option func(*Client)
