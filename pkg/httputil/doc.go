// Package httputil provides retry plumbing for the storefront API client.
//
// # Retry
//
// [Retry] re-runs an operation with exponential backoff while it keeps
// failing with a [RetryableError]. The API client wraps transport failures
// and 5xx responses in RetryableError; 4xx responses are returned as-is so
// a missing product or a rejected token fails fast.
//
//	err := httputil.Retry(ctx, httputil.DefaultPolicy, func() error {
//	    return client.Get(ctx, "v1/brands", query, &page)
//	})
//
// A [RetryableError] may carry a server-provided delay (from a Retry-After
// header), which overrides the computed backoff for that attempt.
//
// # Defaults
//
//   - Attempts: 3
//   - Base delay: 500ms, doubling per attempt
//   - Max delay: 5s
package httputil
