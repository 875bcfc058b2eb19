package brokerkit

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// BulkDispatcher fans a batch of independent requests through a Client with
// bounded concurrency. The bound protects local resources; the rate limiter
// remains the authority on remote-safe throughput.
type BulkDispatcher struct {
	client *Client
	sem    *semaphore.Weighted
}

// NewBulkDispatcher builds a dispatcher running at most maxConcurrent
// executions at once.
func NewBulkDispatcher(client *Client, maxConcurrent int) *BulkDispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &BulkDispatcher{
		client: client,
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// ExecuteAll executes every descriptor and returns one Result per input, in
// input order regardless of completion order. A fatal failure in one slot
// never cancels its siblings; cancellation of ctx aborts slots not yet
// dispatched and in-flight waits.
func (d *BulkDispatcher) ExecuteAll(ctx context.Context, descs []*RequestDescriptor) []Result {
	results := make([]Result, len(descs))

	var wg sync.WaitGroup
	for i, desc := range descs {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			results[i] = Result{Err: &RequestError{
				Kind:    KindCancelled,
				Message: "bulk dispatch aborted",
				Cause:   err,
				Group:   desc.group(),
				Method:  desc.Method,
				Path:    desc.Path,
			}}
			continue
		}

		wg.Add(1)
		go func(i int, desc *RequestDescriptor) {
			defer wg.Done()
			defer d.sem.Release(1)

			res, err := d.client.Execute(ctx, desc)
			results[i] = Result{Response: res, Err: err}
		}(i, desc)
	}
	wg.Wait()

	return results
}
