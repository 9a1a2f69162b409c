package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// retryTransport retries rate-limited and transient server failures with
// exponential backoff. A Retry-After header overrides the computed delay.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RoundTrip implements http.RoundTripper.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := range t.maxRetries + 1 {
		if req.Body != nil && req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("cloning request body: %w", bodyErr)
			}

			req.Body = body
		}

		resp, err = t.base.RoundTrip(req)
		if err != nil {
			return nil, fmt.Errorf("round trip: %w", err)
		}

		if !shouldRetry(resp.StatusCode) || attempt == t.maxRetries {
			return resp, nil
		}

		delay := t.delay(attempt, resp.Header.Get("Retry-After"))

		_ = resp.Body.Close()

		slog.Debug("retrying request",
			"url", req.URL.Redacted(),
			"status", resp.StatusCode,
			"attempt", attempt+1,
			"delay", delay,
		)

		select {
		case <-req.Context().Done():
			return nil, fmt.Errorf("retry wait: %w", req.Context().Err())
		case <-time.After(delay):
		}
	}

	return resp, nil
}

func (t *retryTransport) delay(attempt int, retryAfter string) time.Duration {
	d := t.baseDelay * (1 << attempt) //nolint:gosec // attempt is bounded by maxRetries

	if secs, err := strconv.ParseFloat(retryAfter, 64); err == nil && secs >= 0 {
		d = time.Duration(secs * float64(time.Second))
	}

	if t.maxDelay > 0 && d > t.maxDelay {
		d = t.maxDelay
	}

	return d
}

// shouldRetry returns true for status codes that warrant a retry.
func shouldRetry(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		(statusCode >= http.StatusInternalServerError && statusCode <= http.StatusGatewayTimeout)
}

// loggingTransport logs every request at debug level. Credentials never
// appear because they travel in the Authorization header.
type loggingTransport struct {
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	slog.Debug("http request", "method", req.Method, "url", req.URL.Redacted())

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		slog.Debug("http error",
			"method", req.Method,
			"url", req.URL.Redacted(),
			"error", err,
			"duration", time.Since(start),
		)

		return nil, fmt.Errorf("logging round trip: %w", err)
	}

	slog.Debug("http response",
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	return resp, nil
}
