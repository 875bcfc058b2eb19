package brokerkit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RequestDescriptor describes one logical call to the remote API. It is
// immutable once handed to Execute: the client copies what it needs and
// never mutates the descriptor.
type RequestDescriptor struct {
	// Method is the HTTP verb.
	Method string
	// Path is the endpoint path relative to the transport base URL.
	Path string
	// Group names the endpoint group sharing one rate-limit and breaker
	// budget (e.g. "orders", "quotes"). Empty means DefaultGroup.
	Group string
	// Params are encoded into the query string.
	Params url.Values
	// Header holds extra headers merged into each attempt.
	Header http.Header
	// Body is the request payload, replayed verbatim on every retry.
	Body []byte
	// Idempotent marks the request safe to cache and to deduplicate.
	Idempotent bool
	// CacheTTL overrides the client default TTL for this descriptor.
	// Zero means use the default; ignored unless Idempotent is set.
	CacheTTL time.Duration
}

// Get builds an idempotent read descriptor.
func Get(group, path string, params url.Values) *RequestDescriptor {
	return &RequestDescriptor{
		Method:     http.MethodGet,
		Path:       path,
		Group:      group,
		Params:     params,
		Idempotent: true,
	}
}

// Post builds a mutating descriptor carrying a JSON payload.
func Post(group, path string, body []byte) *RequestDescriptor {
	return &RequestDescriptor{
		Method: http.MethodPost,
		Path:   path,
		Group:  group,
		Body:   body,
	}
}

// Delete builds a delete descriptor.
func Delete(group, path string) *RequestDescriptor {
	return &RequestDescriptor{
		Method: http.MethodDelete,
		Path:   path,
		Group:  group,
	}
}

// group returns the effective endpoint group.
func (d *RequestDescriptor) group() string {
	if d.Group == "" {
		return DefaultGroup
	}
	return d.Group
}

// CacheKey derives the cache and deduplication key. url.Values.Encode sorts
// keys, so equivalent descriptors share one entry.
func (d *RequestDescriptor) CacheKey() string {
	var b strings.Builder
	b.WriteString(d.Method)
	b.WriteByte(':')
	b.WriteString(d.group())
	b.WriteByte(':')
	b.WriteString(d.Path)
	if len(d.Params) > 0 {
		b.WriteByte('?')
		b.WriteString(d.Params.Encode())
	}
	return b.String()
}

// validate reports descriptor problems before any component is touched.
func (d *RequestDescriptor) validate() error {
	if d == nil {
		return &RequestError{Kind: KindValidation, Message: "nil descriptor"}
	}
	if d.Method == "" {
		return &RequestError{Kind: KindValidation, Message: "descriptor method is empty", Path: d.Path, Group: d.group()}
	}
	if d.Path == "" {
		return &RequestError{Kind: KindValidation, Message: "descriptor path is empty", Method: d.Method, Group: d.group()}
	}
	if d.CacheTTL < 0 {
		return &RequestError{Kind: KindValidation, Message: fmt.Sprintf("negative cache ttl %v", d.CacheTTL), Method: d.Method, Path: d.Path, Group: d.group()}
	}
	return nil
}

// Response is the fully buffered reply to one logical request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	if r == nil {
		return fmt.Errorf("brokerkit: nil response")
	}
	return json.Unmarshal(r.Body, v)
}

// Result pairs one bulk slot's response with its error. Exactly one of the
// two fields is set.
type Result struct {
	Response *Response
	Err      error
}
