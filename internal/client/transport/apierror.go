// Package transport is the single choke point for outbound HTTP calls: it
// attaches bearer tokens, refreshes them proactively, classifies failures,
// and retries the retryable ones with exponential backoff.
package transport

import (
	"encoding/json"
	"fmt"
)

// APIError is the typed error surfaced to callers for any failed request.
// Status is 0 when no HTTP response was received (transport-level failure).
// Data carries the raw response body for callers that need backend-specific
// error fields.
type APIError struct {
	Message string
	Status  int
	Data    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}
