package brokerkit

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestHTTPTransportSend(t *testing.T) {
	var gotMethod, gotPath, gotQuery, gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"42"}`))
	}))
	defer server.Close()

	transport := NewHTTPTransport(server.URL+"/", nil)
	res, err := transport.Send(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "/v1/orders",
		Query:  url.Values{"validate": {"true"}},
		Header: http.Header{"Authorization": {"Bearer tok"}},
		Body:   []byte(`{"qty":1}`),
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/v1/orders" {
		t.Errorf("server saw %s %s", gotMethod, gotPath)
	}
	if gotQuery != "validate=true" {
		t.Errorf("query = %q, want validate=true", gotQuery)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if string(gotBody) != `{"qty":1}` {
		t.Errorf("body = %q", gotBody)
	}

	if res.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want 201", res.StatusCode)
	}
	if string(res.Body) != `{"id":"42"}` {
		t.Errorf("Body = %q", res.Body)
	}
	if res.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", res.Header.Get("Content-Type"))
	}
}

func TestHTTPTransportJoinsPathsWithoutSlash(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := NewHTTPTransport(server.URL, nil)
	if _, err := transport.Send(context.Background(), &Request{Method: "GET", Path: "v1/quotes"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotPath != "/v1/quotes" {
		t.Errorf("path = %q, want /v1/quotes", gotPath)
	}
}

func TestHTTPTransportContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	transport := NewHTTPTransport(server.URL, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := transport.Send(ctx, &Request{Method: "GET", Path: "/slow"})
	if err == nil {
		t.Fatal("Send() expected error on cancelled context")
	}
	if kind := Classify(nil, err); kind != KindTimeout && kind != KindCancelled {
		t.Errorf("Classify() = %s, want timeout or cancelled", kind)
	}
}

func TestHTTPTransportThroughClient(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := New(
		WithBaseURL(server.URL, nil),
		WithBackoffSchedule(fastSchedule(3)),
	)
	res, err := client.Execute(context.Background(), Get("", "/health", nil))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.StatusCode != http.StatusOK || calls != 2 {
		t.Errorf("status = %d, calls = %d; want 200 after one retry", res.StatusCode, calls)
	}
}
