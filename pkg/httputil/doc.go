// Package httputil provides HTTP utilities for package registry clients.
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Only errors wrapped in [RetryableError] trigger a retry; permanent
// failures (404, malformed responses) are returned immediately. The delay
// doubles after each failed attempt.
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return client.fetch(ctx, pkg)
//	})
//
// Response caching lives in the cache package; registry clients combine the
// two through integrations.Client.
package httputil
