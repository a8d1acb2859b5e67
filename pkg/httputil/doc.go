// Package httputil provides HTTP utilities for the platform API client.
//
// # Retry
//
// [Retry] re-runs an operation for transient failures only. An error is
// transient when it is wrapped in a [RetryableError]; everything else is
// returned on the first attempt:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// The delay doubles after every failed attempt. A server-provided
// Retry-After value, when present on the error, replaces the computed delay
// for that attempt.
//
// Retries here cover single HTTP round trips. Long-running platform
// operations (publish and install polling) are driven by the packaging
// package's deadline-based poller instead.
package httputil
