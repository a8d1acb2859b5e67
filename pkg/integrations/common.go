package integrations

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const httpTimeout = 60 * time.Second

var (
	// ErrNotFound is returned when a record or endpoint doesn't exist.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized is returned when the access token is missing, expired or revoked.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response whose body carried platform error details.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
	}
	return e.Message
}

// Unwrap returns the status category (ErrNotFound, ErrUnauthorized, ...).
func (e *APIError) Unwrap() error { return e.kind }

// apiErrorItem is one element of the platform's JSON error array.
type apiErrorItem struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

func joinAPIErrors(items []apiErrorItem) (code, message string) {
	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if it.Message != "" {
			msgs = append(msgs, it.Message)
		}
	}
	if len(items) > 0 {
		code = items[0].ErrorCode
	}
	return code, strings.Join(msgs, "; ")
}

// NewHTTPClient creates an HTTP client with a standard timeout for API requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// idempotent reports whether method may be retried safely.
func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}
