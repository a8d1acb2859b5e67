// Package integrations provides the shared HTTP client used by platform API
// clients.
//
// # Overview
//
// [Client] wraps net/http with the behavior every API client needs:
//
//   - Default headers (authorization, user agent) on every request
//   - JSON request and response bodies
//   - Status mapping to [ErrNotFound], [ErrUnauthorized] and [ErrNetwork]
//   - Platform error bodies decoded into [*APIError]
//   - Automatic retry of idempotent requests on transient failures
//   - Optional response caching through [cache.Cache]
//
// The org-specific client lives in the [salesforce] subpackage.
//
// # Retries
//
// GET, PATCH and DELETE requests are retried with exponential backoff on
// network errors and 5xx responses. POST is never retried: creating an
// install request twice would start two installs.
package integrations
