// Package httputil provides the retry policy shared by fetchflow clients.
//
// # Overview
//
// [Do] wraps any fallible operation with exponential backoff:
//
//	items, err := httputil.Do(ctx, httputil.DefaultPolicy(), func(ctx context.Context) ([]Item, error) {
//	    return network.Execute[[]Item](ctx, client, url, opts)
//	})
//
// The operation runs at most MaxRetries+1 times. Before retry i (0-based)
// the policy waits BaseDelay * 2^i plus a uniform jitter in [0, 100ms) so
// that callers retrying the same endpoint drift apart.
//
// # Retry Semantics
//
// Every failure is retried, including HTTP 4xx responses. There is no
// distinction between retryable and terminal kinds; callers that need
// fast-fail behaviour should check the error themselves before calling [Do].
//
// # Configuration
//
// Defaults are:
//
//   - Max retries: 2 (three attempts in total)
//   - Base delay: 1 second
//   - Jitter: up to 100 milliseconds
//
// [Retry] is a shorthand for a Policy built from a retry count and base delay.
package httputil
