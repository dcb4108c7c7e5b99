package github

import (
	"net/http"
	"time"
)

// retryStatuses are the transient upstream responses worth another attempt.
var retryStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// retryTransport retries idempotent GET requests on transient failures with
// capped exponential backoff. Non-GET requests pass through untouched; the
// client is read-only but the guard keeps the transport safe to share.
type retryTransport struct {
	base     http.RoundTripper
	attempts int
	backoff  time.Duration
	maxWait  time.Duration
}

func newRetryTransport(base http.RoundTripper) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &retryTransport{
		base:     base,
		attempts: 3,
		backoff:  200 * time.Millisecond,
		maxWait:  2 * time.Second,
	}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.base.RoundTrip(req)
	}

	var resp *http.Response
	var err error
	wait := t.backoff

	for attempt := 0; attempt < t.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(wait):
			}
			wait *= 2
			if wait > t.maxWait {
				wait = t.maxWait
			}
		}

		resp, err = t.base.RoundTrip(req)
		if err != nil {
			// Connection-level failure; retry unless the context is gone.
			resp = nil
			if req.Context().Err() != nil {
				return nil, err
			}
			continue
		}
		if !retryStatuses[resp.StatusCode] {
			return resp, nil
		}
		// Drain so the connection can be reused before the next attempt.
		if attempt < t.attempts-1 {
			resp.Body.Close()
		}
	}

	return resp, err
}
